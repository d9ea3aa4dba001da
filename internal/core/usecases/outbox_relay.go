package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/samirrijal/rihla/internal/core/ports"
	"github.com/samirrijal/rihla/internal/pkg/metrics"
)

const defaultRelayBatch = 100

// OutboxRelay forwards committed outbox events to the broker. Delivery is
// at least once; consumers dedupe on the event id.
type OutboxRelay struct {
	outbox    ports.Outbox
	tx        ports.Transactor
	publisher ports.OutboxPublisher
	batch     int
}

func NewOutboxRelay(outbox ports.Outbox, tx ports.Transactor, publisher ports.OutboxPublisher, batch int) *OutboxRelay {
	if batch <= 0 {
		batch = defaultRelayBatch
	}
	return &OutboxRelay{outbox: outbox, tx: tx, publisher: publisher, batch: batch}
}

// RelayBatch publishes one batch of pending events in creation order and
// returns how many were sent. A publish failure stops the batch; the
// events sent before it are still marked.
func (r *OutboxRelay) RelayBatch(ctx context.Context) (int, error) {
	var sent []string
	var publishErr error
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		events, err := r.outbox.ClaimPending(ctx, r.batch)
		if err != nil {
			return err
		}
		for i := range events {
			e := &events[i]
			if err := r.publisher.PublishOutboxEvent(ctx, e); err != nil {
				metrics.OutboxRelayed.WithLabelValues(e.Type, "failed").Inc()
				publishErr = err
				break
			}
			metrics.OutboxRelayed.WithLabelValues(e.Type, "published").Inc()
			sent = append(sent, e.ID)
		}
		return r.outbox.MarkPublished(ctx, sent)
	})
	if err != nil {
		return 0, err
	}
	return len(sent), publishErr
}

// Run relays on every tick until ctx is done.
func (r *OutboxRelay) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.RelayBatch(ctx)
			if err != nil {
				slog.WarnContext(ctx, "outbox relay", "sent", n, "error", err)
			}
		}
	}
}
