// Package models defines data structures for the venue scraper.
package models

// Category identifies which kind of venue page a scraper targets.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryHotel      Category = "hotel"
	CategoryAttraction Category = "attraction"
	CategoryActivity   Category = "activity"
)

// Valid reports whether the category is one of the supported kinds.
func (c Category) Valid() bool {
	switch c {
	case CategoryRestaurant, CategoryHotel, CategoryAttraction, CategoryActivity:
		return true
	}
	return false
}

// Coordinates is a validated lat/lng pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Venue holds the fields shared by every venue category. Optional fields
// are left empty when the page did not yield a valid value. Phone numbers
// are normalized to the international "27..." form.
type Venue struct {
	Name        string       `json:"name"`
	Address     string       `json:"address,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Website     string       `json:"website,omitempty"`
	Description string       `json:"description,omitempty"`
	Rating      float64      `json:"rating,omitempty"`
	Images      []string     `json:"images"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Restaurant extends Venue with restaurant-specific fields.
type Restaurant struct {
	Venue
	Cuisines     []string          `json:"cuisines,omitempty"`
	PriceRange   string            `json:"price_range,omitempty"`
	Features     []string          `json:"features,omitempty"`
	OpeningHours map[string]string `json:"opening_hours,omitempty"`
}

// RoomType is one bookable room offering on a hotel page.
type RoomType struct {
	Type      string   `json:"type"`
	Price     float64  `json:"price"`
	Amenities []string `json:"amenities,omitempty"`
}

// Hotel extends Venue with hotel-specific fields. StarRating is 0 when
// the page did not state one.
type Hotel struct {
	Venue
	StarRating         int        `json:"star_rating,omitempty"`
	RoomTypes          []RoomType `json:"room_types,omitempty"`
	Amenities          []string   `json:"amenities,omitempty"`
	CheckIn            string     `json:"check_in,omitempty"`
	CheckOut           string     `json:"check_out,omitempty"`
	CancellationPolicy string     `json:"cancellation_policy,omitempty"`
}

// TicketPrice is one admission tier on an attraction page.
type TicketPrice struct {
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

// Attraction extends Venue with attraction-specific fields.
type Attraction struct {
	Venue
	TicketPrices    []TicketPrice     `json:"ticket_prices,omitempty"`
	OpeningHours    map[string]string `json:"opening_hours,omitempty"`
	BestTimeToVisit string            `json:"best_time_to_visit,omitempty"`
	Duration        string            `json:"duration,omitempty"`
	Accessibility   []string          `json:"accessibility,omitempty"`
	Facilities      []string          `json:"facilities,omitempty"`
}

// Difficulty is the effort tier of an activity.
type Difficulty string

const (
	DifficultyEasy        Difficulty = "Easy"
	DifficultyModerate    Difficulty = "Moderate"
	DifficultyChallenging Difficulty = "Challenging"
	DifficultyExpert      Difficulty = "Expert"
)

// Activity extends Venue with activity-specific fields.
type Activity struct {
	Venue
	Duration       string     `json:"duration,omitempty"`
	GroupSize      string     `json:"group_size,omitempty"`
	Difficulty     Difficulty `json:"difficulty,omitempty"`
	AgeRestriction string     `json:"age_restriction,omitempty"`
	Included       []string   `json:"included,omitempty"`
	Requirements   []string   `json:"requirements,omitempty"`
	BestTime       string     `json:"best_time,omitempty"`
}
