// internal/app/system/workers/autocomplete.go
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	eventstore "github.com/dalemusser/campusevents/internal/app/store/events"
	"github.com/dalemusser/campusevents/internal/app/system/auditlog"
	"github.com/dalemusser/campusevents/internal/app/system/feedcache"
	"github.com/dalemusser/campusevents/internal/app/system/metrics"
	"github.com/dalemusser/campusevents/internal/app/system/recommend"
	"github.com/dalemusser/campusevents/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// sweepBatch caps how many events one sweep completes.
const sweepBatch = 200

// AutoComplete is a background worker that completes published events whose
// ends_at has passed.
type AutoComplete struct {
	events   *eventstore.Store
	feed     *feedcache.Cache
	notifier *recommend.Notifier
	audit    *auditlog.Logger
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewAutoComplete creates the worker. feed, notifier and audit may be nil.
func NewAutoComplete(events *eventstore.Store, feed *feedcache.Cache, notifier *recommend.Notifier, audit *auditlog.Logger, logger *zap.Logger, interval time.Duration) *AutoComplete {
	if interval <= 0 {
		interval = time.Minute
	}
	return &AutoComplete{
		events:   events,
		feed:     feed,
		notifier: notifier,
		audit:    audit,
		log:      logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *AutoComplete) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("autocomplete worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *AutoComplete) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("autocomplete worker stopped")
}

func (w *AutoComplete) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
			if _, err := w.Sweep(ctx); err != nil {
				w.log.Error("autocomplete sweep failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// Sweep completes every ended published event and returns how many it moved.
// An event another request completed first is skipped silently.
func (w *AutoComplete) Sweep(ctx context.Context) (int, error) {
	now := w.now()
	ended, err := w.events.ListEndedPublished(ctx, now, sweepBatch)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, ev := range ended {
		err := w.events.Complete(ctx, ev.ID, now)
		if errors.Is(err, eventstore.ErrStatusConflict) {
			continue
		}
		if err != nil {
			w.log.Warn("autocomplete: complete failed", zap.String("event_id", ev.ID.Hex()), zap.Error(err))
			continue
		}
		completed++
		metrics.EventTransitions.WithLabelValues("completed", "worker").Inc()
		w.audit.EventCompleted(ctx, nil, nil, ev.ID, "worker")
		w.notifier.Withdrawn(ctx, ev.ID.Hex())
	}

	if completed > 0 {
		w.feed.Invalidate(ctx)
		w.log.Info("autocompleted ended events", zap.Int("count", completed))
	}
	return completed, nil
}
