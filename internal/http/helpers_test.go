package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"

	"vendas/internal/core"
	"vendas/internal/source"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid request", errors.Wrap(ErrInvalidRequest, "top"), http.StatusBadRequest},
		{"invalid query", errors.Wrap(source.ErrInvalidQuery, "year"), http.StatusBadRequest},
		{"bad expression", core.ErrInvalidExpression, http.StatusBadRequest},
		{"unknown column", core.ErrUnknownColumn, http.StatusBadRequest},
		{"client went away", errors.Wrap(context.Canceled, "fetch"), statusClientClosed},
		{"upstream status", errors.Wrap(source.ErrUpstreamStatus, "503"), http.StatusBadGateway},
		{"anything else", errors.New("dial tcp: connection refused"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		value, peak float64
		want        int
	}{
		{50, 100, 50},
		{100, 100, 100},
		{0.1, 100, 2},
		{0, 100, 0},
		{10, 0, 0},
		{33.4, 100, 33},
		{33.5, 100, 34},
	}
	for _, tt := range tests {
		if got := barWidth(tt.value, tt.peak); got != tt.want {
			t.Errorf("barWidth(%v, %v) = %d, want %d", tt.value, tt.peak, got, tt.want)
		}
	}
}

func TestLocationBarsLimit(t *testing.T) {
	rows := []core.LocationTotal{
		{Location: "SP", Value: 400}, {Location: "RJ", Value: 200}, {Location: "BA", Value: 100},
	}
	bars := locationBars(rows, 2, formatCount)
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Label != "SP" || bars[0].Width != 100 || bars[1].Width != 50 {
		t.Errorf("unexpected bars %+v", bars)
	}
	if all := locationBars(rows, 0, formatCount); len(all) != 3 {
		t.Errorf("limit 0 should keep every row, got %d", len(all))
	}
}

func TestMonthBarsLabel(t *testing.T) {
	bars := monthBars([]core.MonthTotal{{Year: 2022, MonthName: "March", Value: 3}}, formatCount)
	if len(bars) != 1 || bars[0].Label != "March 2022" {
		t.Errorf("unexpected bars %+v", bars)
	}
}

func TestSellerBars(t *testing.T) {
	sellers := []core.SellerSummary{
		{Seller: "Ana Duarte", Revenue: 2000, Sales: 4},
		{Seller: "Bruno Rodrigues", Revenue: 1000, Sales: 8},
	}
	byRevenue := sellerBars(sellers, core.ByRevenue)
	if byRevenue[0].Width != 100 || byRevenue[1].Width != 50 || byRevenue[0].Value != "R$ 2.00 mil" {
		t.Errorf("unexpected revenue bars %+v", byRevenue)
	}
	bySales := sellerBars(sellers, core.BySales)
	if bySales[0].Width != 50 || bySales[1].Width != 100 || bySales[1].Value != "8 vendas" {
		t.Errorf("unexpected sales bars %+v", bySales)
	}
}

func TestMapPoints(t *testing.T) {
	rows := []core.LocationTotal{
		{Location: "SP", Lat: -14, Lon: -54, Value: 100},
		{Location: "RS", Lat: -34, Lon: -74, Value: 25},
	}
	pts := mapPoints(rows, formatCount)
	if len(pts) != 2 {
		t.Fatalf("expected 2 points, got %d", len(pts))
	}
	if pts[0].X != 200 || pts[0].Y != 200 || pts[0].Radius != maxBubble {
		t.Errorf("unexpected center point %+v", pts[0])
	}
	if pts[1].X != 0 || pts[1].Y != mapSize || pts[1].Radius != maxBubble/2 {
		t.Errorf("unexpected corner point %+v", pts[1])
	}
	if got := mapPoints([]core.LocationTotal{{Location: "SP"}}, formatCount); len(got) != 0 {
		t.Errorf("all-zero totals should draw nothing, got %+v", got)
	}
}
