package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"vendas/internal/amqp"
	"vendas/internal/services"
)

// RefreshWorker handles refresh requests coming from AMQP. Requests issued
// before the last successful refresh completed are already satisfied and
// are skipped.
type RefreshWorker struct {
	refresher services.Refresher

	mu          sync.Mutex
	lastRefresh time.Time
	now         func() time.Time
}

func NewRefreshWorker(r services.Refresher) *RefreshWorker {
	return &RefreshWorker{refresher: r, now: time.Now}
}

// HandleRefreshMessage processes a single refresh request.
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RefreshMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lastRefresh.IsZero() && msg.RequestedAt.Before(w.lastRefresh) {
		slog.InfoContext(ctx, "Skipping stale refresh request",
			"reason", msg.Reason,
			"requested_at", msg.RequestedAt,
			"last_refresh", w.lastRefresh)
		return nil
	}

	started := w.now()
	n, err := w.refresher.Refresh(ctx, msg.Reason)
	if err != nil {
		return errors.Wrapf(err, "refresh requested at %s", msg.RequestedAt.Format(time.RFC3339))
	}
	w.lastRefresh = started

	slog.InfoContext(ctx, "Refresh request completed",
		"reason", msg.Reason,
		"records", n,
		"duration_ms", w.now().Sub(started).Milliseconds())
	return nil
}
