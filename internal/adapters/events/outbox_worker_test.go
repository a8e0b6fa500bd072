package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/ports"
)

type fakeOutbox struct {
	mu        sync.Mutex
	pending   []ports.OutboxRecord
	published []uuid.UUID
	failed    []uuid.UUID
	dead      []uuid.UUID
}

func (f *fakeOutbox) Enqueue(context.Context, ports.OutboxEvent) error { return nil }

func (f *fakeOutbox) ClaimUnpublished(_ context.Context, limit int, _ string, _ time.Time) ([]ports.OutboxRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	out := f.pending[:limit]
	f.pending = f.pending[limit:]
	return out, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, id uuid.UUID, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, id)
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, _, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeOutbox) MarkDeadLettered(_ context.Context, id uuid.UUID, _, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dead = append(f.dead, id)
	return nil
}

type recordingPublisher struct {
	failFor map[string]error
	keys    []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ []byte, partitionKey string) error {
	if err, ok := p.failFor[eventType]; ok {
		return err
	}
	p.keys = append(p.keys, partitionKey)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOutboxWorkerProcessOnce(t *testing.T) {
	t.Parallel()

	ok := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "lead.created", PartitionKey: "lead-1"}
	retry := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "rfq.submitted", RetryCount: 0}
	exhausted := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "rfq.submitted", RetryCount: 2}
	stale := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "lead.created", RetryCount: 3}

	outbox := &fakeOutbox{pending: []ports.OutboxRecord{ok, retry, exhausted, stale}}
	pub := &recordingPublisher{failFor: map[string]error{"rfq.submitted": errors.New("broker down")}}
	w := NewOutboxWorker(quietLogger(), outbox, pub, OutboxWorkerConfig{MaxRetries: 3})

	stats, err := w.processOnce(context.Background())
	if err != nil {
		t.Fatalf("processOnce() error = %v", err)
	}
	if stats.Claimed != 4 || stats.Published != 1 || stats.Failed != 2 || stats.DeadLettered != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(outbox.published) != 1 || outbox.published[0] != ok.OutboxID {
		t.Fatalf("published = %v", outbox.published)
	}
	if len(outbox.failed) != 1 || outbox.failed[0] != retry.OutboxID {
		t.Fatalf("failed = %v", outbox.failed)
	}
	if len(outbox.dead) != 2 {
		t.Fatalf("dead = %v", outbox.dead)
	}
	if len(pub.keys) != 1 || pub.keys[0] != "lead-1" {
		t.Fatalf("partition key not forwarded: %v", pub.keys)
	}
}

func TestOutboxWorkerRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	w := NewOutboxWorker(quietLogger(), &fakeOutbox{}, &recordingPublisher{}, OutboxWorkerConfig{Interval: time.Millisecond})
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestKafkaPublisherRequiresBrokers(t *testing.T) {
	t.Parallel()

	if _, err := NewKafkaPublisher([]string{" ", ""}, "site."); err == nil {
		t.Fatal("expected error without brokers")
	}
	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "site.")
	if err != nil {
		t.Fatalf("NewKafkaPublisher() error = %v", err)
	}
	defer p.Close()
	if got := p.TopicFor("lead.created"); got != "site.lead.created" {
		t.Fatalf("TopicFor() = %q", got)
	}
}
