// Package scheduler runs aggregation refreshes on an interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/infrastructure/config"
)

// RefreshJobStatus represents the status of a refresh job
type RefreshJobStatus string

const (
	RefreshJobStatusRunning  RefreshJobStatus = "RUNNING"
	RefreshJobStatusSuccess  RefreshJobStatus = "SUCCESS"
	RefreshJobStatusDegraded RefreshJobStatus = "DEGRADED"
	RefreshJobStatusFailed   RefreshJobStatus = "FAILED"
)

// RefreshTrigger tells what started a job
type RefreshTrigger string

const (
	TriggerStartup   RefreshTrigger = "startup"
	TriggerScheduled RefreshTrigger = "scheduled"
	TriggerManual    RefreshTrigger = "manual"
)

// RefreshJob records one scheduled refresh including its retries
type RefreshJob struct {
	ID          uuid.UUID        `json:"id"`
	Trigger     RefreshTrigger   `json:"trigger"`
	Status      RefreshJobStatus `json:"status"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Attempts    int              `json:"attempts"`
	RunID       string           `json:"run_id,omitempty"`
	TotalOrders int              `json:"total_orders"`
	// Pruned is the number of stored runs removed by retention after the job
	Pruned int64 `json:"pruned,omitempty"`
}

// Pruner deletes stored runs that finished before the cutoff
type Pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RefreshSchedulerConfig holds configuration for the refresh scheduler
type RefreshSchedulerConfig struct {
	// Interval between scheduled refreshes
	Interval time.Duration
	// JobTimeout bounds a single attempt
	JobTimeout time.Duration
	// RetryAttempts is the number of extra attempts after a failed run
	RetryAttempts int
	// RetryDelay is the base delay between retries (with exponential backoff)
	RetryDelay time.Duration
	// RunOnStart runs one refresh as soon as the scheduler starts
	RunOnStart bool
	// Retention is how long stored runs are kept; zero keeps them all
	Retention time.Duration
}

// DefaultRefreshSchedulerConfig returns default configuration
func DefaultRefreshSchedulerConfig() RefreshSchedulerConfig {
	return RefreshSchedulerConfig{
		Interval:      15 * time.Minute,
		JobTimeout:    2 * time.Minute,
		RetryAttempts: 2,
		RetryDelay:    30 * time.Second,
		RunOnStart:    true,
	}
}

// RefreshSchedulerConfigFrom derives scheduler settings from the collector section
func RefreshSchedulerConfigFrom(cfg config.CollectorConfig) RefreshSchedulerConfig {
	out := DefaultRefreshSchedulerConfig()
	if cfg.RefreshInterval > 0 {
		out.Interval = cfg.RefreshInterval
	}
	if cfg.FetchTimeout > 0 {
		// channels fetch concurrently; the cafe24 chain makes up to three attempts, plus sink publishing
		out.JobTimeout = 4 * cfg.FetchTimeout
	}
	if cfg.RetryAttempts >= 0 {
		out.RetryAttempts = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		out.RetryDelay = cfg.RetryDelay
	}
	return out
}

// Validate validates the configuration
func (c *RefreshSchedulerConfig) Validate() error {
	if c.Interval <= 0 || c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts > 0 && c.RetryDelay <= 0 {
		return ErrInvalidConfig
	}
	if c.Retention < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// RefreshScheduler periodically runs the aggregation. Jobs run one at a
// time on a single loop so refreshes never overlap.
type RefreshScheduler struct {
	config RefreshSchedulerConfig
	runner app.Runner
	pruner Pruner
	logger *zap.Logger

	manual    chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	historyMu  sync.RWMutex
	history    []*RefreshJob
	maxHistory int

	after func(time.Duration) <-chan time.Time
	now   func() time.Time
}

// SchedulerOption configures a RefreshScheduler
type SchedulerOption func(*RefreshScheduler)

// WithPruner enables run retention; it only acts when Retention is set
func WithPruner(p Pruner) SchedulerOption {
	return func(s *RefreshScheduler) { s.pruner = p }
}

// NewRefreshScheduler creates a new refresh scheduler
func NewRefreshScheduler(cfg RefreshSchedulerConfig, runner app.Runner, logger *zap.Logger, opts ...SchedulerOption) (*RefreshScheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RefreshScheduler{
		config:     cfg,
		runner:     runner,
		logger:     logger,
		manual:     make(chan struct{}, 1),
		maxHistory: 50,
		after:      time.After,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start starts the scheduler loop
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Refresh scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("retry_attempts", s.config.RetryAttempts),
	)
	return nil
}

// Stop stops the loop and waits for the current job to finish
func (s *RefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Refresh scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *RefreshScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Trigger queues a manual refresh. At most one manual refresh is pending.
func (s *RefreshScheduler) Trigger() error {
	if !s.IsRunning() {
		return ErrSchedulerNotRunning
	}
	select {
	case s.manual <- struct{}{}:
		return nil
	default:
		return ErrRefreshPending
	}
}

func (s *RefreshScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.execute(ctx, TriggerStartup)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, TriggerScheduled)
		case <-s.manual:
			s.execute(ctx, TriggerManual)
		}
	}
}

// execute runs one job with retries and records it
func (s *RefreshScheduler) execute(ctx context.Context, trigger RefreshTrigger) *RefreshJob {
	job := &RefreshJob{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    RefreshJobStatusRunning,
		StartedAt: time.Now(),
	}

	for {
		job.Attempts++
		run, err := s.attempt(ctx)
		if err == nil {
			job.RunID = run.ID
			job.TotalOrders = run.Payload.Summary.TotalOrders
			job.Error = ""
			job.Status = RefreshJobStatusSuccess
			if run.Degraded() {
				job.Status = RefreshJobStatusDegraded
			}
			break
		}

		job.Status = RefreshJobStatusFailed
		job.Error = err.Error()
		s.logger.Warn("Refresh attempt failed",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", job.Attempts),
			zap.Error(err),
		)

		if job.Attempts > s.config.RetryAttempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-s.after(s.backoff(job.Attempts)):
			continue
		}
		break
	}

	if job.Status != RefreshJobStatusFailed {
		job.Pruned = s.prune(ctx)
	}

	now := time.Now()
	job.CompletedAt = &now
	s.addToHistory(job)

	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("trigger", string(job.Trigger)),
		zap.String("status", string(job.Status)),
		zap.Int("attempts", job.Attempts),
		zap.Duration("duration", now.Sub(job.StartedAt)),
	}
	if job.Status == RefreshJobStatusFailed {
		s.logger.Error("Refresh job failed", append(fields, zap.String("error", job.Error))...)
	} else {
		s.logger.Info("Refresh job completed", append(fields,
			zap.String("run_id", job.RunID),
			zap.Int("total_orders", job.TotalOrders))...)
	}
	return job
}

func (s *RefreshScheduler) attempt(ctx context.Context) (*app.Run, error) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	run, err := s.runner.Run(jobCtx)
	if err != nil {
		return nil, err
	}
	if run.AllFailed() {
		return nil, ErrAllSourcesFailed
	}
	return run, nil
}

// prune removes runs older than the retention window. Failures are logged
// and retried on the next job.
func (s *RefreshScheduler) prune(ctx context.Context) int64 {
	if s.pruner == nil || s.config.Retention <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.config.Retention)
	deleted, err := s.pruner.DeleteBefore(ctx, cutoff)
	if err != nil {
		s.logger.Warn("Failed to prune stored runs", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0
	}
	if deleted > 0 {
		s.logger.Info("Pruned stored runs", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
	return deleted
}

// backoff is RetryDelay * 2^(attempt-1), capped at the interval
func (s *RefreshScheduler) backoff(attempt int) time.Duration {
	delay := s.config.RetryDelay * time.Duration(1<<(attempt-1))
	if delay > s.config.Interval {
		delay = s.config.Interval
	}
	return delay
}

func (s *RefreshScheduler) addToHistory(job *RefreshJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*RefreshJob{job}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent jobs, newest first
func (s *RefreshScheduler) GetJobHistory(limit int) []*RefreshJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*RefreshJob, limit)
	copy(result, s.history[:limit])
	return result
}
