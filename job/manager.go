// Package job orchestrates batch scrape jobs: an ordered URL list driven
// through one category scraper under a concurrency cap, with positional
// results, sampled progress, and cooperative cancellation.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mzansitravel/venue-scraper/config"
	"github.com/mzansitravel/venue-scraper/models"
	"github.com/mzansitravel/venue-scraper/scraper"
)

// ScraperFactory builds the scraper used to run a job. Injectable so
// tests can supply a stub.
type ScraperFactory func(category models.Category, cfg *config.Config) (scraper.Scraper, error)

// Manager owns the visible set of jobs. Deleting a job detaches it:
// already-dispatched fetches finish and their results are discarded.
type Manager struct {
	mu      sync.Mutex
	jobs    map[string]*tracked
	factory ScraperFactory
}

type tracked struct {
	job       *models.Job
	cfg       *config.Config
	cancel    context.CancelFunc
	completed int
	deleted   bool
	submitted time.Time
}

// NewManager builds a manager using the real scraper constructors.
func NewManager() *Manager {
	return NewManagerWithFactory(scraper.New)
}

// NewManagerWithFactory builds a manager with a custom scraper factory.
func NewManagerWithFactory(factory ScraperFactory) *Manager {
	return &Manager{
		jobs:    make(map[string]*tracked),
		factory: factory,
	}
}

// Submit validates the request and registers a pending job. Malformed
// input is rejected here, before any network activity: the category must
// be known and every URL must be absolute http(s).
func (m *Manager) Submit(category models.Category, urls []string, cfg *config.Config) (*models.Job, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("url list cannot be empty")
	}
	for _, u := range urls {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return nil, fmt.Errorf("url %q is not absolute http(s)", u)
		}
	}

	job := &models.Job{
		ID:       uuid.NewString(),
		Category: category,
		URLs:     append([]string(nil), urls...),
		Status:   models.JobPending,
		Results:  make([]models.Result, len(urls)),
	}

	m.mu.Lock()
	m.jobs[job.ID] = &tracked{
		job:       job,
		cfg:       cfg.WithDefaults(),
		submitted: time.Now(),
	}
	m.mu.Unlock()

	return snapshot(job), nil
}

// Run drives a submitted job to completion and returns its final state.
// Individual URL failures never fail the job; it completes with a mix of
// success and failure results. Only structural failures (an invalid
// scraper configuration) move the job to the error status.
func (m *Manager) Run(ctx context.Context, id string) (*models.Job, error) {
	m.mu.Lock()
	t, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("job %s not found", id)
	}
	if t.job.Status != models.JobPending {
		m.mu.Unlock()
		return nil, fmt.Errorf("job %s already %s", id, t.job.Status)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.cancel = cancel
	t.job.Status = models.JobRunning
	now := time.Now()
	t.job.StartTime = &now
	urls := t.job.URLs
	cfg := t.cfg
	category := t.job.Category
	m.mu.Unlock()

	s, err := m.factory(category, cfg)
	if err != nil {
		m.mu.Lock()
		t.job.Status = models.JobError
		end := time.Now()
		t.job.EndTime = &end
		result := snapshot(t.job)
		m.mu.Unlock()
		return result, fmt.Errorf("create %s scraper: %w", category, err)
	}

	slog.Info("job started",
		slog.String("job_id", id),
		slog.String("category", string(category)),
		slog.Int("urls", len(urls)),
	)

	g := &errgroup.Group{}
	g.SetLimit(cfg.MaxConcurrency)
	for i, u := range urls {
		i, u := i, u
		if jobCtx.Err() != nil {
			// Deletion or caller cancellation: stop scheduling new work.
			m.record(t, i, models.Fail(u, jobCtx.Err()))
			continue
		}
		g.Go(func() error {
			// Dispatched fetches run on the caller's context: deletion only
			// gates scheduling, never aborts work already in flight.
			m.record(t, i, s.Scrape(ctx, u))
			return nil
		})
	}
	_ = g.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	if t.deleted {
		return snapshot(t.job), nil
	}
	t.job.Status = models.JobCompleted
	t.job.Progress = 100
	end := time.Now()
	t.job.EndTime = &end

	slog.Info("job finished",
		slog.String("job_id", id),
		slog.Int("succeeded", t.job.SuccessCount()),
		slog.Int("failed", t.job.FailureCount()),
	)
	return snapshot(t.job), nil
}

// record writes a result into its positional slot and advances progress.
// Results arriving after deletion are discarded.
func (m *Manager) record(t *tracked, index int, result models.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.deleted {
		return
	}
	t.job.Results[index] = result
	t.completed++
	t.job.Progress = t.completed * 100 / len(t.job.URLs)
}

// Get returns a snapshot of a job.
func (m *Manager) Get(id string) (*models.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	return snapshot(t.job), true
}

// List returns snapshots of all visible jobs in submission order.
func (m *Manager) List() []*models.Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*tracked, 0, len(m.jobs))
	for _, t := range m.jobs {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].submitted.Before(all[j].submitted)
	})

	out := make([]*models.Job, len(all))
	for i, t := range all {
		out[i] = snapshot(t.job)
	}
	return out
}

// Delete removes a job from the visible set at any point in its
// lifecycle. A running job stops scheduling new URLs; in-flight requests
// complete and their results are discarded.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.jobs[id]
	if !ok {
		return false
	}
	t.deleted = true
	if t.cancel != nil {
		t.cancel()
	}
	delete(m.jobs, id)
	return true
}

// snapshot copies a job so callers can read it without racing the runner.
func snapshot(j *models.Job) *models.Job {
	out := *j
	out.URLs = append([]string(nil), j.URLs...)
	out.Results = append([]models.Result(nil), j.Results...)
	if j.StartTime != nil {
		start := *j.StartTime
		out.StartTime = &start
	}
	if j.EndTime != nil {
		end := *j.EndTime
		out.EndTime = &end
	}
	return &out
}
