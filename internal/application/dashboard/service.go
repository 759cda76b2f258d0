package dashboard

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Runner executes one aggregation run
type Runner interface {
	Run(ctx context.Context) (*Run, error)
}

// Service serves the latest run to readers. Lookups go through the readers in
// order (cache, then store); when none has a run, a fresh run is executed.
type Service struct {
	runner  Runner
	readers []RunReader
	mode    string
	logger  *zap.Logger
}

// NewService creates a dashboard service. mode names the configured data
// source mode and is reported by health checks.
func NewService(runner Runner, mode string, logger *zap.Logger, readers ...RunReader) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, readers: readers, mode: mode, logger: logger}
}

// Mode returns the configured data source mode
func (s *Service) Mode() string {
	return s.mode
}

// LatestRun returns the most recent stored run without starting a new one
func (s *Service) LatestRun(ctx context.Context) (*Run, error) {
	for _, r := range s.readers {
		run, err := r.LatestRun(ctx)
		if err == nil && run != nil {
			return run, nil
		}
		if err != nil && !errors.Is(err, ErrRunNotFound) {
			s.logger.Warn("Run reader failed, trying next", zap.Error(err))
		}
	}
	return nil, ErrRunNotFound
}

// Latest returns the most recent run, running an aggregation when no
// reader has one
func (s *Service) Latest(ctx context.Context) (*Run, error) {
	if run, err := s.LatestRun(ctx); err == nil {
		return run, nil
	}
	return s.Refresh(ctx)
}

// Refresh executes a new run
func (s *Service) Refresh(ctx context.Context) (*Run, error) {
	if s.runner == nil {
		return nil, ErrRunNotFound
	}
	return s.runner.Run(ctx)
}

// View opens a view session over the latest run
func (s *Service) View(ctx context.Context) (*View, error) {
	run, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return NewView(run), nil
}
