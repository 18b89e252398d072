// Package pipeline coordinates validation, de-duplication, and output
// writing for scrape results.
package pipeline

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mzansitravel/venue-scraper/models"
)

// ErrPipelineClosed is returned when Process is called after shutdown.
var ErrPipelineClosed = errors.New("pipeline: closed")

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(results []*models.Result) error
	Close() error
	Validate() error
}

const defaultDedupeSize = 10000

// Pipeline fans results through worker goroutines that validate,
// deduplicate by URL, and write batches to the configured output.
type Pipeline struct {
	writer    OutputWriter
	resultCh  chan *models.Result
	batchSize int

	wg sync.WaitGroup

	seen *lru.Cache[string, struct{}]

	metrics counters

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline with a modest in-memory buffer. The
// seen-URL set is LRU-bounded so long runs cannot grow without limit.
func NewPipeline(writer OutputWriter) *Pipeline {
	seen, err := lru.New[string, struct{}](defaultDedupeSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &Pipeline{
		writer:    writer,
		resultCh:  make(chan *models.Result, 256),
		batchSize: 32,
		seen:      seen,
		metrics:   newCounters(),
		shutdown:  make(chan struct{}),
	}
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues results for downstream processing.
func (p *Pipeline) Process(results ...models.Result) error {
	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for i := range results {
		if err := p.enqueue(&results[i]); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.resultCh)
	})

	p.wg.Wait()
	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]any {
	return p.metrics.snapshot()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.Result, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for result := range p.resultCh {
		prepared := p.prepare(result)
		if prepared == nil {
			continue
		}
		batch = append(batch, prepared)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

// prepare gates a result before writing: failures and duplicate URLs are
// counted and dropped.
func (p *Pipeline) prepare(result *models.Result) *models.Result {
	if !result.Success {
		p.metrics.addSkip("failed_scrape")
		return nil
	}
	if result.BaseVenue() == nil {
		p.metrics.addSkip("invalid_record")
		return nil
	}

	if found, _ := p.seen.ContainsOrAdd(result.URL, struct{}{}); found {
		p.metrics.addSkip("duplicate_url")
		return nil
	}

	p.metrics.incrementProcessed()
	return result
}

func (p *Pipeline) enqueue(result *models.Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.resultCh <- result:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.resultCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type counters struct {
	mu        sync.Mutex
	processed int64
	skipped   map[string]int
}

func newCounters() counters {
	return counters{
		skipped: make(map[string]int),
	}
}

func (c *counters) incrementProcessed() {
	c.mu.Lock()
	c.processed++
	c.mu.Unlock()
}

func (c *counters) addSkip(kind string) {
	c.mu.Lock()
	c.skipped[kind]++
	c.mu.Unlock()
}

func (c *counters) snapshot() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	skipped := make(map[string]int, len(c.skipped))
	for k, v := range c.skipped {
		skipped[k] = v
	}

	return map[string]any{
		"processed_venues": c.processed,
		"skipped":          skipped,
	}
}
