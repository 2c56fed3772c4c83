package analytics

import (
	"Shortlytics-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotRunning = errors.New("analytics processor is not running")
	ErrQueueFull  = errors.New("analytics queue is full")
)

// Recorder persists a single click
type Recorder interface {
	Record(ctx context.Context, click ClickData) error
}

// ProcessorConfig holds configuration for the analytics processor
type ProcessorConfig struct {
	WorkerCount     int           // Number of worker goroutines
	BufferSize      int           // Size of the job queue buffer
	RetryAttempts   int           // Number of attempts per click, first one included
	RetryDelay      time.Duration // Base delay between retries
	ShutdownTimeout time.Duration // Time to wait for the queue to drain on Stop
	JobTimeout      time.Duration // Deadline of a single attempt
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() ProcessorConfig {
	return ProcessorConfig{
		WorkerCount:     3,
		BufferSize:      1000,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		ShutdownTimeout: 30 * time.Second,
		JobTimeout:      30 * time.Second,
	}
}

// Stats is a snapshot of processor state
type Stats struct {
	Started       bool  `json:"started"`
	QueueLength   int   `json:"queue_length"`
	QueueCapacity int   `json:"queue_capacity"`
	WorkerCount   int   `json:"worker_count"`
	RetryAttempts int   `json:"retry_attempts"`
	Processed     int64 `json:"processed"`
	Failed        int64 `json:"failed"`
	Dropped       int64 `json:"dropped"`
}

// Processor counts cache-hit clicks in the background with a bounded queue and retries
type Processor struct {
	config   ProcessorConfig
	recorder Recorder
	log      *zap.Logger
	jobQueue chan ClickData
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	stopped  bool
	mu       sync.RWMutex

	pending   atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewProcessor creates a new analytics processor
func NewProcessor(recorder Recorder, log *zap.Logger, config ProcessorConfig) *Processor {
	defaults := DefaultConfig()
	if config.WorkerCount <= 0 {
		config.WorkerCount = defaults.WorkerCount
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		config:   config,
		recorder: recorder,
		log:      log.With(zap.String("component", "analytics_processor")),
		jobQueue: make(chan ClickData, config.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing analytics data
func (p *Processor) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("processor already started")
	}
	if p.stopped {
		return fmt.Errorf("processor cannot be restarted")
	}

	p.log.Info("starting analytics processor",
		zap.Int("workers", p.config.WorkerCount),
		zap.Int("buffer_size", p.config.BufferSize),
		zap.Int("retry_attempts", p.config.RetryAttempts),
	)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop closes the queue and waits for the workers to drain it.
// In-flight retries are abandoned once ShutdownTimeout passes.
func (p *Processor) Stop() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.started = false
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.log.Info("stopping analytics processor", zap.Int("queued", len(p.jobQueue)))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.log.Info("analytics processor stopped gracefully")
		return nil
	case <-time.After(p.config.ShutdownTimeout):
		p.cancel()
		p.log.Warn("analytics processor shutdown timeout reached", zap.Int64("pending", p.pending.Load()))
		return fmt.Errorf("shutdown timeout reached")
	}
}

// SubmitClick queues a click without blocking
func (p *Processor) SubmitClick(click ClickData) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		p.dropped.Add(1)
		return ErrNotRunning
	}

	p.pending.Add(1)
	select {
	case p.jobQueue <- click:
		p.log.Debug("click data submitted for processing", zap.String("alias", click.Alias))
		return nil
	default:
		p.pending.Add(-1)
		p.dropped.Add(1)
		p.log.Error("analytics queue is full, dropping click data",
			zap.String("alias", click.Alias),
			zap.Int("queue_size", len(p.jobQueue)),
		)
		return ErrQueueFull
	}
}

// Flush blocks until every submitted click has been processed or ctx is done.
func (p *Processor) Flush(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for p.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (p *Processor) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", workerID))
	log.Debug("analytics worker started")

	for click := range p.jobQueue {
		p.processClickWithRetry(log, click)
		p.pending.Add(-1)
	}

	log.Debug("analytics worker stopped")
}

func (p *Processor) processClickWithRetry(log *zap.Logger, click ClickData) {
	var lastErr error

	for attempt := 1; attempt <= p.config.RetryAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(p.ctx, p.config.JobTimeout)
		err := p.recorder.Record(ctx, click)
		cancel()

		if err == nil {
			p.processed.Add(1)
			if attempt > 1 {
				log.Info("click processing succeeded after retry",
					zap.String("alias", click.Alias),
					zap.Int("attempt", attempt),
				)
			}
			return
		}

		lastErr = err
		if !retryable(err) {
			break
		}

		log.Warn("click processing failed",
			zap.String("alias", click.Alias),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.config.RetryAttempts),
			zap.Error(err),
		)

		if attempt == p.config.RetryAttempts {
			break
		}

		// Exponential backoff
		delay := p.config.RetryDelay * time.Duration(1<<(attempt-1))
		select {
		case <-time.After(delay):
		case <-p.ctx.Done():
			log.Info("worker shutdown during retry delay", zap.String("alias", click.Alias))
			p.failed.Add(1)
			return
		}
	}

	p.failed.Add(1)
	log.Error("click processing failed",
		zap.String("alias", click.Alias),
		zap.Bool("retryable", retryable(lastErr)),
		zap.Error(lastErr),
	)
}

func retryable(err error) bool {
	return !errors.Is(err, ErrPartialWrite) && !errors.Is(err, repository.ErrAliasNotFound)
}

// GetStats returns processor statistics
func (p *Processor) GetStats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Stats{
		Started:       p.started,
		QueueLength:   len(p.jobQueue),
		QueueCapacity: cap(p.jobQueue),
		WorkerCount:   p.config.WorkerCount,
		RetryAttempts: p.config.RetryAttempts,
		Processed:     p.processed.Load(),
		Failed:        p.failed.Load(),
		Dropped:       p.dropped.Load(),
	}
}
