package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"vendas/internal/cache"
	"vendas/internal/core"
	"vendas/internal/source"
	"vendas/internal/source/memory"
)

type countingSource struct {
	inner source.RecordSource
	calls atomic.Int32
	err   error
}

func (c *countingSource) Fetch(ctx context.Context, q source.Query) ([]core.Sale, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.Fetch(ctx, q)
}

func fixture() []core.Sale {
	mk := func(seller, loc string, month time.Month, price float64) core.Sale {
		return core.Sale{
			Product: "p", Category: "livros", Price: price, Rating: 3, Installments: 1,
			PurchaseDate: time.Date(2022, month, 10, 0, 0, 0, 0, time.UTC),
			Seller:       seller, Location: loc,
		}
	}
	return []core.Sale{
		mk("Ana Duarte", "SP", time.January, 100),
		mk("Ana Duarte", "RS", time.March, 50),
		mk("Bruno Rodrigues", "SP", time.January, 300),
		mk("Juliana Costa", "BA", time.February, 20),
		mk("Mariana Ferreira", "RS", time.March, 10),
	}
}

func newService(src source.RecordSource) *DashboardService {
	return NewDashboardService(src, cache.NewLRUCache[[]core.Sale](8, time.Minute), "memory", nil)
}

func TestDashboardAllSellers(t *testing.T) {
	svc := newService(memory.New(fixture()))
	view, err := svc.Dashboard(context.Background(), DashboardRequest{TopN: 3})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.Summary.TotalRevenue != 480 || view.Summary.TotalSales != 5 {
		t.Fatalf("unexpected totals %+v", view.Summary)
	}
	if len(view.Summary.RevenueByMonth) != 3 {
		t.Fatalf("expected 3 months, got %d", len(view.Summary.RevenueByMonth))
	}
	if len(view.TopByRevenue) != 3 || view.TopByRevenue[0].Seller != "Bruno Rodrigues" {
		t.Fatalf("unexpected revenue ranking %+v", view.TopByRevenue)
	}
	if view.TopBySales[0].Seller != "Ana Duarte" {
		t.Fatalf("unexpected sales ranking %+v", view.TopBySales)
	}
	if len(view.SellerOptions) != 4 {
		t.Fatalf("expected 4 seller options, got %v", view.SellerOptions)
	}
}

func TestDashboardSellerAndRegion(t *testing.T) {
	svc := newService(memory.New(fixture()))
	view, err := svc.Dashboard(context.Background(), DashboardRequest{
		Query:   source.Query{Region: "sudeste"},
		Sellers: []string{"Ana Duarte"},
		TopN:    99,
	})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.Summary.TotalRevenue != 100 || view.Summary.TotalSales != 1 {
		t.Fatalf("unexpected totals %+v", view.Summary)
	}
	if view.TopN != core.MaxTopN {
		t.Fatalf("expected top-n clamped to %d, got %d", core.MaxTopN, view.TopN)
	}
	if view.Query.Region != core.Sudeste {
		t.Fatalf("expected canonical region, got %q", view.Query.Region)
	}
	// options come from the region, not from the seller selection
	if len(view.SellerOptions) != 2 {
		t.Fatalf("expected 2 seller options, got %v", view.SellerOptions)
	}
}

func TestDashboardEmptyResult(t *testing.T) {
	svc := newService(memory.New(fixture()))
	view, err := svc.Dashboard(context.Background(), DashboardRequest{Sellers: []string{"Ninguem"}})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.Summary.TotalRevenue != 0 || view.Summary.TotalSales != 0 || len(view.TopByRevenue) != 0 {
		t.Fatalf("expected zero view, got %+v", view.Summary)
	}
}

func TestRecordsAreCached(t *testing.T) {
	src := &countingSource{inner: memory.New(fixture())}
	svc := newService(src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Records(ctx, source.Query{Region: "Sul"}); err != nil {
			t.Fatalf("records: %v", err)
		}
	}
	// "Brasil" and "" share one cache entry
	svc.Records(ctx, source.Query{})
	svc.Records(ctx, source.Query{Region: core.AllRegions})
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", got)
	}

	svc.Invalidate()
	svc.Records(ctx, source.Query{Region: "Sul"})
	if got := src.calls.Load(); got != 3 {
		t.Fatalf("expected refetch after invalidate, got %d calls", got)
	}
}

func TestRecordsErrorNotCached(t *testing.T) {
	boom := errors.New("boom")
	src := &countingSource{inner: memory.New(fixture()), err: boom}
	svc := newService(src)

	if _, err := svc.Dashboard(context.Background(), DashboardRequest{}); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	src.err = nil
	if _, err := svc.Dashboard(context.Background(), DashboardRequest{}); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestRawDefaultsAndSelection(t *testing.T) {
	svc := newService(memory.New(fixture()))
	ctx := context.Background()

	view, err := svc.Raw(ctx, RawRequest{})
	if err != nil {
		t.Fatalf("raw: %v", err)
	}
	if len(view.Rows) != 5 || view.Total != 5 || len(view.Columns) != len(core.Columns()) {
		t.Fatalf("defaults must keep everything: rows=%d cols=%d", len(view.Rows), len(view.Columns))
	}
	if got := view.Options[core.FieldLocation]; len(got) != 3 || got[0] != "BA" {
		t.Fatalf("unexpected location options %v", got)
	}

	sel := view.Defaults
	sel.Price = core.Range{Low: 20, High: 100}
	sel.Locations = []string{"SP", "BA"}
	view, err = svc.Raw(ctx, RawRequest{Selection: &sel, Columns: []string{"Vendedor", "Preço"}})
	if err != nil {
		t.Fatalf("raw: %v", err)
	}
	if len(view.Rows) != 2 || view.Total != 5 {
		t.Fatalf("expected 2 of 5 rows, got %d of %d", len(view.Rows), view.Total)
	}
	if len(view.Columns) != 2 || view.Columns[0] != core.ColPrice {
		t.Fatalf("unexpected columns %v", view.Columns)
	}

	if _, err := svc.Raw(ctx, RawRequest{Columns: []string{"Cor"}}); err == nil {
		t.Fatalf("expected unknown column error")
	}
}

func TestRawCustomizeStartsFromDefaults(t *testing.T) {
	svc := newService(memory.New(fixture()))

	view, err := svc.Raw(context.Background(), RawRequest{Customize: func(sel *core.Selection) {
		sel.Locations = []string{"SP", "BA"}
	}})
	if err != nil {
		t.Fatalf("raw: %v", err)
	}
	if view.Selection.Price != view.Defaults.Price || !view.Selection.From.Equal(view.Defaults.From) {
		t.Fatalf("customized selection lost its defaults: %+v", view.Selection)
	}
	if len(view.Selection.Locations) != 2 {
		t.Fatalf("customization not applied: %v", view.Selection.Locations)
	}
	for _, s := range view.Rows {
		if s.Location != "SP" && s.Location != "BA" {
			t.Fatalf("unexpected location %s", s.Location)
		}
	}
}
