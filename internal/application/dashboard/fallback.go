package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

// BoundedSource applies a fetch timeout to each of its attempts itself
// instead of sharing one deadline across them.
type BoundedSource interface {
	Source
	FetchWithin(ctx context.Context, timeout time.Duration) (dashboard.ChannelSnapshot, error)
}

// fetchWithin fetches src with timeout as the per-attempt bound; zero means
// no extra bound.
func fetchWithin(ctx context.Context, src Source, timeout time.Duration) (dashboard.ChannelSnapshot, error) {
	if b, ok := src.(BoundedSource); ok {
		return b.FetchWithin(ctx, timeout)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return src.Fetch(ctx)
}

// FallbackSource fetches from Primary and, when that fails, from Secondary.
// A snapshot served by Secondary carries the primary error as its
// FallbackReason.
type FallbackSource struct {
	Primary   Source
	Secondary Source
}

// NewFallbackSource composes two sources of the same channel
func NewFallbackSource(primary, secondary Source) (*FallbackSource, error) {
	if primary.Channel() != secondary.Channel() {
		return nil, fmt.Errorf("dashboard: fallback channel mismatch: %s vs %s", primary.Channel(), secondary.Channel())
	}
	return &FallbackSource{Primary: primary, Secondary: secondary}, nil
}

func (s *FallbackSource) Channel() sales.Channel {
	return s.Primary.Channel()
}

func (s *FallbackSource) Name() string {
	return s.Primary.Name() + "|" + s.Secondary.Name()
}

// Fetch returns the primary snapshot or the secondary one. Both errors are
// reported when both fail.
func (s *FallbackSource) Fetch(ctx context.Context) (dashboard.ChannelSnapshot, error) {
	return s.FetchWithin(ctx, 0)
}

// FetchWithin gives the primary and the secondary their own timeout. A primary
// that runs out of time still falls through; the secondary is skipped only
// when ctx itself is done.
func (s *FallbackSource) FetchWithin(ctx context.Context, timeout time.Duration) (dashboard.ChannelSnapshot, error) {
	snap, err := fetchWithin(ctx, s.Primary, timeout)
	if err == nil {
		return snap, nil
	}
	if ctx.Err() != nil {
		return dashboard.EmptySnapshot(s.Channel()), err
	}

	backup, berr := fetchWithin(ctx, s.Secondary, timeout)
	if berr != nil {
		return dashboard.EmptySnapshot(s.Channel()), fmt.Errorf("%s: %w; %s: %v", s.Primary.Name(), err, s.Secondary.Name(), berr)
	}
	backup.FallbackReason = fmt.Sprintf("%s: %v", s.Primary.Name(), err)
	return backup, nil
}
