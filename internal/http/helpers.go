package http

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"vendas/internal/core"
	"vendas/internal/source"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// errorStatus maps a request error to its HTTP status: bad input is the
// caller's fault, anything else failed while loading records.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, source.ErrInvalidQuery),
		errors.Is(err, core.ErrInvalidExpression),
		errors.Is(err, core.ErrUnknownColumn):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return statusClientClosed
	default:
		return http.StatusBadGateway
	}
}

// statusClientClosed is logged when the client went away mid request.
const statusClientClosed = 499

// requestStatus is errorStatus for r: a cancellation only counts as the
// client leaving when r's own context is done.
func requestStatus(r *http.Request, err error) int {
	status := errorStatus(err)
	if status == statusClientClosed && r.Context().Err() == nil {
		return http.StatusBadGateway
	}
	return status
}

// errorDetail is the part of err shown to the user, if any. Bad input and
// unparseable source dates are reported verbatim.
func errorDetail(status int, err error) string {
	if status == http.StatusBadRequest || errors.Is(err, core.ErrInvalidDate) {
		return err.Error()
	}
	return ""
}

// errorMessage is the user facing text of errorStatus.
func errorMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Parâmetros inválidos"
	case http.StatusBadGateway:
		return "Não foi possível carregar os dados de vendas"
	}
	return "Erro interno"
}

// barRow is one line of a horizontal bar chart.
type barRow struct {
	Label string
	Value string
	Width int
}

// barWidth scales value against peak as a rounded percentage. Non-zero
// values get at least 2% so they stay visible.
func barWidth(value, peak float64) int {
	if peak <= 0 || value <= 0 {
		return 0
	}
	width := int(value*100/peak + 0.5)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

func maxOf[T any](rows []T, value func(T) float64) float64 {
	var peak float64
	for _, r := range rows {
		peak = max(peak, value(r))
	}
	return peak
}

func locationBars(rows []core.LocationTotal, limit int, format func(float64) string) []barRow {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	peak := maxOf(rows, func(r core.LocationTotal) float64 { return r.Value })
	out := make([]barRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, barRow{Label: r.Location, Value: format(r.Value), Width: barWidth(r.Value, peak)})
	}
	return out
}

// mapPoint is one bubble of the location map, in SVG user units.
type mapPoint struct {
	Label  string
	Value  string
	X, Y   float64
	Radius float64
}

// Bounding box of the map, roughly the Brazilian territory.
const (
	mapWest, mapEast   = -74.0, -34.0
	mapNorth, mapSouth = 6.0, -34.0
	mapSize            = 400.0
	maxBubble          = 24.0
)

// mapPoints projects location totals onto a mapSize square. Bubble area is
// proportional to the value.
func mapPoints(rows []core.LocationTotal, format func(float64) string) []mapPoint {
	peak := maxOf(rows, func(r core.LocationTotal) float64 { return r.Value })
	out := make([]mapPoint, 0, len(rows))
	for _, r := range rows {
		if peak <= 0 {
			break
		}
		out = append(out, mapPoint{
			Label:  r.Location,
			Value:  format(r.Value),
			X:      math.Round((r.Lon-mapWest)/(mapEast-mapWest)*mapSize*10) / 10,
			Y:      math.Round((mapNorth-r.Lat)/(mapNorth-mapSouth)*mapSize*10) / 10,
			Radius: math.Round(max(2, maxBubble*math.Sqrt(r.Value/peak))*10) / 10,
		})
	}
	return out
}

func monthBars(rows []core.MonthTotal, format func(float64) string) []barRow {
	peak := maxOf(rows, func(r core.MonthTotal) float64 { return r.Value })
	out := make([]barRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, barRow{
			Label: fmt.Sprintf("%s %d", r.MonthName, r.Year),
			Value: format(r.Value),
			Width: barWidth(r.Value, peak),
		})
	}
	return out
}

func categoryBars(rows []core.CategoryTotal, format func(float64) string) []barRow {
	peak := maxOf(rows, func(r core.CategoryTotal) float64 { return r.Value })
	out := make([]barRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, barRow{Label: r.Category, Value: format(r.Value), Width: barWidth(r.Value, peak)})
	}
	return out
}

func sellerBars(rows []core.SellerSummary, by core.Ranking) []barRow {
	value := func(s core.SellerSummary) float64 {
		if by == core.BySales {
			return float64(s.Sales)
		}
		return s.Revenue
	}
	peak := maxOf(rows, value)
	out := make([]barRow, 0, len(rows))
	for _, r := range rows {
		label := core.FormatCurrency(r.Revenue)
		if by == core.BySales {
			label = fmt.Sprintf("%d vendas", r.Sales)
		}
		out = append(out, barRow{Label: r.Seller, Value: label, Width: barWidth(value(r), peak)})
	}
	return out
}

func formatCount(v float64) string {
	return core.FormatNumber(v, "")
}

func formatInputDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(inputDateLayout)
}
