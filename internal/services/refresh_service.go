package services

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"vendas/internal/core"
	"vendas/internal/metrics"
	"vendas/internal/source"
)

// Invalidator drops derived state after the data changed.
type Invalidator interface {
	Invalidate()
}

// RefreshService copies the full upstream dataset into a snapshot store.
type RefreshService struct {
	upstream source.RecordSource
	snapshot source.SnapshotWriter
	caches   []Invalidator
}

func NewRefreshService(upstream source.RecordSource, snapshot source.SnapshotWriter, caches ...Invalidator) *RefreshService {
	return &RefreshService{upstream: upstream, snapshot: snapshot, caches: caches}
}

// Refresh fetches everything upstream and replaces the snapshot. On failure
// the previous snapshot stays in place.
func (s *RefreshService) Refresh(ctx context.Context, reason string) (n int, err error) {
	defer func() {
		metrics.MetricRefreshCount.WithLabelValues(metrics.Outcome(err)).Inc()
	}()

	if s.upstream == nil || s.snapshot == nil {
		return 0, errors.New("refresh not configured")
	}

	var sales []core.Sale
	sales, err = s.upstream.Fetch(ctx, source.Query{})
	if err != nil {
		return 0, errors.Wrap(err, "fetch upstream")
	}
	if err = s.snapshot.ReplaceAll(ctx, sales); err != nil {
		return 0, errors.Wrap(err, "replace snapshot")
	}
	for _, c := range s.caches {
		c.Invalidate()
	}

	metrics.MetricSnapshotRecords.Set(float64(len(sales)))
	slog.InfoContext(ctx, "Snapshot refreshed", "reason", reason, "records", len(sales))
	return len(sales), nil
}
