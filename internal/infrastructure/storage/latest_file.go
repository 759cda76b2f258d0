package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	app "github.com/shopdash/backend/internal/application/dashboard"
)

// LatestFile returns the conventional location of the combined payload
// inside a data directory.
func LatestFile(dataDir string) string {
	return filepath.Join(dataDir, "combined", "latest.json")
}

// LatestFileSink writes the payload of every run to a JSON file. The file is
// replaced atomically so readers never see a partial payload.
type LatestFileSink struct {
	path string
}

// NewLatestFileSink creates a sink writing to path
func NewLatestFileSink(path string) *LatestFileSink {
	return &LatestFileSink{path: path}
}

// Name identifies the sink in run reports
func (s *LatestFileSink) Name() string { return "file" }

// Path returns the target file
func (s *LatestFileSink) Path() string { return s.path }

// Publish writes the run payload
func (s *LatestFileSink) Publish(_ context.Context, run *app.Run) error {
	data, err := json.MarshalIndent(run.Payload, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode payload: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".latest-*.json")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("storage: write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: write payload: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("storage: replace %s: %w", s.path, err)
	}
	return nil
}
