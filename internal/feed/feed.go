// Package feed provides the reactive note feed the dashboard subscribes to:
// an initial fetch, change-driven re-fetches, and a manual invalidation hook.
package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/dagaz/internal/dashboard"
	"github.com/starford/dagaz/internal/models"
)

// ListFunc fetches the current note list for the feed's fixed scope and
// filter parameters.
type ListFunc func(ctx context.Context) ([]models.Note, error)

// Feed implements dashboard.Feed over a lister plus an optional change-event
// stream (a broker subscription). Change events are debounced so a burst of
// writes triggers a single re-fetch. A Feed carries one subscription at a
// time.
type Feed struct {
	list         ListFunc
	changes      <-chan []byte
	debounce     time.Duration
	logger       *slog.Logger
	invalidateCh chan struct{}
}

var _ dashboard.Feed = (*Feed)(nil)

// New creates a feed. changes may be nil when no change stream is available;
// the feed then re-fetches only on Invalidate.
func New(list ListFunc, changes <-chan []byte, debounce time.Duration, logger *slog.Logger) *Feed {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		list:         list,
		changes:      changes,
		debounce:     debounce,
		logger:       logger,
		invalidateCh: make(chan struct{}, 1),
	}
}

// Subscribe starts delivering feed transitions to cb: a loading transition,
// then either data or an error, for the initial fetch and every subsequent
// re-fetch. cb is called from the feed's goroutine. The returned cancel
// function stops delivery.
func (f *Feed) Subscribe(cb func(dashboard.FeedState)) (cancel func()) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	go f.run(ctx, cb)
	return cancelCtx
}

// Invalidate forces a re-fetch. Coalesces when one is already pending.
func (f *Feed) Invalidate() {
	select {
	case f.invalidateCh <- struct{}{}:
	default:
	}
}

func (f *Feed) run(ctx context.Context, cb func(dashboard.FeedState)) {
	fetch := func() {
		cb(dashboard.FeedState{Loading: true})
		notes, err := f.list(ctx)
		if err != nil {
			f.logger.Error("feed fetch failed", slog.String("error", err.Error()))
			cb(dashboard.FeedState{Err: err})
			return
		}
		cb(dashboard.FeedState{Notes: notes})
	}
	fetch()

	changes := f.changes

	// refetchTimer debounces change-event bursts into one re-fetch.
	var refetchTimer *time.Timer
	var refetchCh <-chan time.Time
	schedule := func() {
		if refetchTimer == nil {
			refetchTimer = time.NewTimer(f.debounce)
			refetchCh = refetchTimer.C
		} else {
			refetchTimer.Reset(f.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if refetchTimer != nil {
				refetchTimer.Stop()
			}
			return

		case <-f.invalidateCh:
			fetch()

		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			schedule()

		case <-refetchCh:
			fetch()
		}
	}
}
