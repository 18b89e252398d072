package models

import "time"

// JobStatus tracks a batch job through its lifecycle.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobPaused    JobStatus = "paused"
	JobError     JobStatus = "error"
)

// Job is one batch scrape: an ordered URL list driven through a single
// category scraper. Results are positional; Results[i] always corresponds
// to URLs[i] regardless of completion order. Progress is a percentage and
// only ever increases.
type Job struct {
	ID        string     `json:"id"`
	Category  Category   `json:"category"`
	URLs      []string   `json:"urls"`
	Status    JobStatus  `json:"status"`
	Progress  int        `json:"progress"`
	Results   []Result   `json:"results"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// SuccessCount returns how many results succeeded so far.
func (j *Job) SuccessCount() int {
	n := 0
	for _, r := range j.Results {
		if r.Success {
			n++
		}
	}
	return n
}

// FailureCount returns how many results failed so far.
func (j *Job) FailureCount() int {
	n := 0
	for _, r := range j.Results {
		if !r.Success && r.URL != "" {
			n++
		}
	}
	return n
}
