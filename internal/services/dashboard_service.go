package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"vendas/internal/cache"
	"vendas/internal/core"
	"vendas/internal/metrics"
	"vendas/internal/source"
)

type (
	// DashboardRequest carries the sidebar selections of the main page.
	DashboardRequest struct {
		Query   source.Query
		Sellers []string
		TopN    int
	}

	// DashboardView is everything the main page renders.
	DashboardView struct {
		Query         source.Query
		Sellers       []string
		TopN          int
		SellerOptions []string
		Summary       core.Summary
		TopByRevenue  []core.SellerSummary
		TopBySales    []core.SellerSummary
	}

	// RawRequest carries the raw data page selections. A nil Selection
	// applies the page defaults for the loaded dataset, adjusted by
	// Customize when set.
	RawRequest struct {
		Selection *core.Selection
		Customize func(*core.Selection)
		Columns   []string
	}

	// RawView is the filtered record table.
	RawView struct {
		Selection core.Selection
		Defaults  core.Selection
		Columns   []core.Column
		Rows      []core.Sale
		Total     int
		Options   map[core.TextField][]string
	}
)

// DashboardService loads records through a cache and derives the page
// models. It never mutates the cached collections.
type DashboardService struct {
	source  source.RecordSource
	cache   cache.Cache[[]core.Sale]
	backend string
	logger  *slog.Logger
}

func NewDashboardService(src source.RecordSource, c cache.Cache[[]core.Sale], backend string, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{source: src, cache: c, backend: backend, logger: logger}
}

// Records returns the collection for q, from cache when possible.
func (s *DashboardService) Records(ctx context.Context, q source.Query) ([]core.Sale, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	key := q.Key()
	if s.cache != nil {
		if sales, ok := s.cache.Get(key); ok {
			metrics.MetricCacheLookups.With(prometheus.Labels{"result": "hit"}).Inc()
			return sales, nil
		}
		metrics.MetricCacheLookups.With(prometheus.Labels{"result": "miss"}).Inc()
	}

	start := time.Now()
	sales, err := s.source.Fetch(ctx, q)
	metrics.MetricFetchCount.With(prometheus.Labels{"backend": s.backend, "outcome": metrics.Outcome(err)}).Inc()
	metrics.MetricFetchLatency.With(prometheus.Labels{"backend": s.backend}).Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch records", "query", key, "error", err)
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, sales)
	}
	return sales, nil
}

// Dashboard filters by the selected sellers and computes every table.
func (s *DashboardService) Dashboard(ctx context.Context, req DashboardRequest) (DashboardView, error) {
	sales, err := s.Records(ctx, req.Query)
	if err != nil {
		return DashboardView{}, err
	}
	q, _ := req.Query.Normalize()

	filtered := core.Filter(sales, core.Predicates{core.In(core.FieldSeller, req.Sellers...)})
	summary := core.Aggregate(filtered)
	n := core.ClampTopN(req.TopN)

	return DashboardView{
		Query:         q,
		Sellers:       req.Sellers,
		TopN:          n,
		SellerOptions: sortedDistinct(sales, core.FieldSeller),
		Summary:       summary,
		TopByRevenue:  core.TopSellers(summary.Sellers, n, core.ByRevenue),
		TopBySales:    core.TopSellers(summary.Sellers, n, core.BySales),
	}, nil
}

// Raw filters the whole dataset with the raw page selection.
func (s *DashboardService) Raw(ctx context.Context, req RawRequest) (RawView, error) {
	sales, err := s.Records(ctx, source.Query{})
	if err != nil {
		return RawView{}, err
	}
	cols, err := core.ParseColumns(req.Columns)
	if err != nil {
		return RawView{}, err
	}

	defaults := core.DefaultSelection(sales)
	sel := defaults
	if req.Selection != nil {
		sel = *req.Selection
	} else if req.Customize != nil {
		req.Customize(&sel)
	}
	preds, err := sel.Predicates()
	if err != nil {
		return RawView{}, err
	}
	rows := core.Filter(sales, preds)

	return RawView{
		Selection: sel,
		Defaults:  defaults,
		Columns:   cols,
		Rows:      rows,
		Total:     len(sales),
		Options: map[core.TextField][]string{
			core.FieldProduct:     sortedDistinct(sales, core.FieldProduct),
			core.FieldCategory:    sortedDistinct(sales, core.FieldCategory),
			core.FieldSeller:      sortedDistinct(sales, core.FieldSeller),
			core.FieldLocation:    sortedDistinct(sales, core.FieldLocation),
			core.FieldPaymentType: sortedDistinct(sales, core.FieldPaymentType),
		},
	}, nil
}

// Invalidate drops every cached collection.
func (s *DashboardService) Invalidate() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// CachedQueries is the number of collections held in the cache.
func (s *DashboardService) CachedQueries() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Size()
}

func sortedDistinct(sales []core.Sale, f core.TextField) []string {
	out := core.Distinct(sales, f)
	sort.Strings(out)
	return out
}
