package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"vendas/internal/amqp"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(context.Context, string) (int, error) {
	f.calls++
	return 42, f.err
}

func TestHandleRefreshMessage(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	r := &fakeRefresher{}
	w := NewRefreshWorker(r)
	w.now = func() time.Time { return clock }
	ctx := context.Background()

	if err := w.HandleRefreshMessage(ctx, &amqp.RefreshMessage{Reason: "a", RequestedAt: base.Add(-time.Minute)}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if r.calls != 1 {
		t.Fatalf("expected 1 refresh, got %d", r.calls)
	}

	// queued before the refresh started: already satisfied
	if err := w.HandleRefreshMessage(ctx, &amqp.RefreshMessage{Reason: "b", RequestedAt: base.Add(-time.Second)}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if r.calls != 1 {
		t.Fatalf("stale request should be skipped, got %d refreshes", r.calls)
	}

	clock = base.Add(time.Hour)
	if err := w.HandleRefreshMessage(ctx, &amqp.RefreshMessage{Reason: "c", RequestedAt: base.Add(time.Minute)}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if r.calls != 2 {
		t.Fatalf("expected 2 refreshes, got %d", r.calls)
	}
}

func TestHandleRefreshMessageFailure(t *testing.T) {
	boom := errors.New("upstream down")
	r := &fakeRefresher{err: boom}
	w := NewRefreshWorker(r)
	msg := &amqp.RefreshMessage{Reason: "x", RequestedAt: time.Now()}

	if err := w.HandleRefreshMessage(context.Background(), msg); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	// a failure does not mark later duplicates as satisfied
	r.err = nil
	if err := w.HandleRefreshMessage(context.Background(), msg); err != nil || r.calls != 2 {
		t.Fatalf("expected retry to refresh, calls=%d err=%v", r.calls, err)
	}
}
