package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

// ChannelFile returns the cache file of a channel under dataDir
func ChannelFile(dataDir string, ch sales.Channel) string {
	return filepath.Join(dataDir, string(ch), "orders.json")
}

// FileSource reads a channel snapshot from its cache file. The file holds
// either an envelope with orders and summary or a bare order list.
type FileSource struct {
	channel sales.Channel
	path    string
}

// NewFileSource creates a source reading the channel's file under dataDir
func NewFileSource(dataDir string, ch sales.Channel) *FileSource {
	return &FileSource{channel: ch, path: ChannelFile(dataDir, ch)}
}

func (s *FileSource) Channel() sales.Channel { return s.channel }

func (s *FileSource) Name() string { return "file" }

// Path returns the file read by the source
func (s *FileSource) Path() string { return s.path }

// Fetch reads and parses the file. A missing file is an empty snapshot.
func (s *FileSource) Fetch(ctx context.Context) (dashboard.ChannelSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return dashboard.EmptySnapshot(s.channel), err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return dashboard.EmptySnapshot(s.channel), nil
	}
	if err != nil {
		return dashboard.EmptySnapshot(s.channel), fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.path, err)
	}

	snap, err := dashboard.ParseChannelSnapshot(s.channel, data)
	if err != nil {
		return dashboard.EmptySnapshot(s.channel), fmt.Errorf("%s: %w", s.path, err)
	}
	return snap, nil
}
