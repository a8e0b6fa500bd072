package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/ports"
)

// OutboxWorkerConfig tunes the relay loop. Zero values fall back to defaults.
type OutboxWorkerConfig struct {
	Interval   time.Duration
	BatchSize  int
	ClaimTTL   time.Duration
	MaxRetries int
}

func (c OutboxWorkerConfig) withDefaults() OutboxWorkerConfig {
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	return c
}

// OutboxWorker relays committed lead, RFQ and download-token events to the publisher.
type OutboxWorker struct {
	logger    *slog.Logger
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	cfg       OutboxWorkerConfig
	now       func() time.Time
}

func NewOutboxWorker(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, cfg OutboxWorkerConfig) *OutboxWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxWorker{
		logger:    logger.With("module", "events.outbox_worker", "layer", "adapter"),
		outbox:    outbox,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// batchStats summarises one relay pass.
type batchStats struct {
	Claimed      int
	Published    int
	Failed       int
	DeadLettered int
}

// Run polls until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := w.processOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "outbox iteration failed",
				"operation", "outbox_process_once",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *OutboxWorker) processOnce(ctx context.Context) (batchStats, error) {
	claimToken := uuid.NewString()
	records, err := w.outbox.ClaimUnpublished(ctx, w.cfg.BatchSize, claimToken, w.now().Add(w.cfg.ClaimTTL))
	if err != nil {
		return batchStats{}, err
	}

	stats := batchStats{Claimed: len(records)}
	for _, rec := range records {
		w.relay(ctx, rec, claimToken, &stats)
	}
	if stats.Claimed > 0 {
		w.logger.InfoContext(ctx, "outbox batch processed",
			"operation", "outbox_process_once",
			"outcome", "success",
			"batch_size", stats.Claimed,
			"published_count", stats.Published,
			"failed_count", stats.Failed,
			"dead_lettered_count", stats.DeadLettered,
		)
	}
	return stats, nil
}

func (w *OutboxWorker) relay(ctx context.Context, rec ports.OutboxRecord, claimToken string, stats *batchStats) {
	now := w.now()
	if rec.RetryCount >= w.cfg.MaxRetries {
		stats.DeadLettered++
		_ = w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, "retry threshold reached before publish", now)
		return
	}

	err := w.publisher.Publish(ctx, rec.EventType, rec.Payload, rec.PartitionKey)
	if err == nil {
		stats.Published++
		_ = w.outbox.MarkPublished(ctx, rec.OutboxID, claimToken, now)
		return
	}

	stats.Failed++
	retries := rec.RetryCount + 1
	attrs := []any{
		"operation", "publish_event",
		"outcome", "failure",
		"outbox_id", rec.OutboxID,
		"event_type", rec.EventType,
		"retry_count", retries,
		"error", err,
	}
	if retries >= w.cfg.MaxRetries {
		stats.DeadLettered++
		w.logger.ErrorContext(ctx, "outbox message moved to dlq", attrs...)
		_ = w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, err.Error(), now)
		return
	}
	w.logger.WarnContext(ctx, "outbox publish failed; retry scheduled", attrs...)
	_ = w.outbox.MarkFailed(ctx, rec.OutboxID, claimToken, err.Error(), now)
}
