package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mzansitravel/venue-scraper/models"
)

var csvHeader = []string{
	"category", "name", "address", "phone", "website", "rating",
	"images", "lat", "lng", "url", "scraped_at", "details",
}

// CSVWriter writes flattened venue records to CSV.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends venue records to the CSV output.
func (cw *CSVWriter) Write(results []*models.Result) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, result := range results {
		record, err := flattenResult(result)
		if err != nil {
			return err
		}
		if record == nil {
			continue
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

func flattenResult(result *models.Result) ([]string, error) {
	venue := result.BaseVenue()
	if venue == nil {
		return nil, nil
	}

	details, err := json.Marshal(result.Data)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}

	lat, lng := "", ""
	if venue.Coordinates != nil {
		lat = strconv.FormatFloat(venue.Coordinates.Lat, 'f', -1, 64)
		lng = strconv.FormatFloat(venue.Coordinates.Lng, 'f', -1, 64)
	}
	rating := ""
	if venue.Rating > 0 {
		rating = strconv.FormatFloat(venue.Rating, 'f', 1, 64)
	}

	return []string{
		categoryOf(result.Data),
		venue.Name,
		venue.Address,
		venue.Phone,
		venue.Website,
		rating,
		strings.Join(venue.Images, "|"),
		lat,
		lng,
		result.URL,
		result.Timestamp.Format(time.RFC3339),
		string(details),
	}, nil
}

func categoryOf(data any) string {
	switch data.(type) {
	case *models.Restaurant:
		return string(models.CategoryRestaurant)
	case *models.Hotel:
		return string(models.CategoryHotel)
	case *models.Attraction:
		return string(models.CategoryAttraction)
	case *models.Activity:
		return string(models.CategoryActivity)
	}
	return ""
}

// JSONWriter writes newline-delimited JSON results.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends results in JSONL format.
func (jw *JSONWriter) Write(results []*models.Result) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, result := range results {
		if err := jw.encoder.Encode(result); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}

	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
