package models

import "time"

// Result is the per-URL outcome of a scrape. Exactly one of Data or Error
// is populated; Success discriminates. Data holds *Restaurant, *Hotel,
// *Attraction, or *Activity depending on the scraper that produced it.
type Result struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// Succeed builds a success result for url carrying data.
func Succeed(url string, data any) Result {
	return Result{
		Success:   true,
		Data:      data,
		URL:       url,
		Timestamp: time.Now().UTC(),
	}
}

// Fail builds a failure result for url carrying the error message.
func Fail(url string, err error) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{
		Success:   false,
		Error:     msg,
		URL:       url,
		Timestamp: time.Now().UTC(),
	}
}

// BaseVenue returns the shared Venue fields of the payload, or nil when
// the result is a failure or carries an unknown type.
func (r Result) BaseVenue() *Venue {
	switch d := r.Data.(type) {
	case *Restaurant:
		return &d.Venue
	case *Hotel:
		return &d.Venue
	case *Attraction:
		return &d.Venue
	case *Activity:
		return &d.Venue
	}
	return nil
}
