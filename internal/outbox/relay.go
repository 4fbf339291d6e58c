package outbox

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/metrics"
)

// Relay drains the outbox table into the dispatcher.
type Relay struct {
	logger    *log.Logger
	store     Store
	dispatch  *Dispatcher
	metrics   *metrics.Metrics
	relayID   string
	batchSize int
	interval  time.Duration
	lease     time.Duration
}

func NewRelay(logger *log.Logger, store Store, dispatch *Dispatcher, m *metrics.Metrics, relayID string) *Relay {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Relay{
		logger:    logger,
		store:     store,
		dispatch:  dispatch,
		metrics:   m,
		relayID:   relayID,
		batchSize: 100,
		interval:  500 * time.Millisecond,
		lease:     5 * time.Second,
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Printf("outbox: relay stopping relay_id=%s", r.relayID)
			return nil
		case <-t.C:
			if _, err := r.Flush(ctx); err != nil {
				r.logger.Printf("outbox: relay flush error=%v", err)
			}
		}
	}
}

// Flush dispatches one batch and returns how many events were sent.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	events, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease)
	if err != nil {
		return 0, err
	}
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		err := r.dispatch.Dispatch(ctx, e)
		r.metrics.OutboxEvent(err)
		if err != nil {
			if markErr := r.store.MarkFailed(ctx, e.ID, err.Error()); markErr != nil {
				r.logger.Printf("outbox: mark failed event_id=%d err=%v", e.ID, markErr)
			}
			continue
		}
		ids = append(ids, e.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := r.store.MarkSent(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}
