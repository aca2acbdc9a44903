package http

import (
	"net/http"
	"time"

	"vendas/internal/core"
	vlog "vendas/internal/log"
	"vendas/internal/services"
)

// topLocations is how many states the bar charts of the first two tabs show.
const topLocations = 5

type metricsPanel struct {
	Revenue string
	Sales   string
}

type chartsPanel struct {
	Map           []mapPoint
	ByLocation    []barRow
	TopLocations  []barRow
	ByMonth       []barRow
	ByCategory    []barRow
	LocationCount int
}

// dashboardPage is the model of dashboard.html.
type dashboardPage struct {
	Regions  []string
	Years    []int
	MinTopN  int
	MaxTopN  int
	Region   string
	Year     int
	AllYears bool

	View    services.DashboardView
	Metrics metricsPanel
	Revenue chartsPanel
	Sales   chartsPanel

	TopByRevenue []barRow
	TopBySales   []barRow
}

func newDashboardPage(view services.DashboardView) dashboardPage {
	sum := view.Summary
	years := make([]int, 0, core.LastYear-core.FirstYear+1)
	for y := core.FirstYear; y <= core.LastYear; y++ {
		years = append(years, y)
	}
	region := view.Query.Region
	if region == "" {
		region = core.AllRegions
	}

	return dashboardPage{
		Regions:  core.Regions(),
		Years:    years,
		MinTopN:  core.MinTopN,
		MaxTopN:  core.MaxTopN,
		Region:   region,
		Year:     view.Query.Year,
		AllYears: view.Query.Year == 0,
		View:     view,
		Metrics: metricsPanel{
			Revenue: core.FormatCurrency(sum.TotalRevenue),
			Sales:   formatCount(float64(sum.TotalSales)),
		},
		Revenue: chartsPanel{
			Map:           mapPoints(sum.RevenueByLocation, core.FormatCurrency),
			ByLocation:    locationBars(sum.RevenueByLocation, 0, core.FormatCurrency),
			TopLocations:  locationBars(sum.RevenueByLocation, topLocations, core.FormatCurrency),
			ByMonth:       monthBars(sum.RevenueByMonth, core.FormatCurrency),
			ByCategory:    categoryBars(sum.RevenueByCategory, core.FormatCurrency),
			LocationCount: len(sum.RevenueByLocation),
		},
		Sales: chartsPanel{
			Map:           mapPoints(sum.SalesByLocation, formatCount),
			ByLocation:    locationBars(sum.SalesByLocation, 0, formatCount),
			TopLocations:  locationBars(sum.SalesByLocation, topLocations, formatCount),
			ByMonth:       monthBars(sum.SalesByMonth, formatCount),
			ByCategory:    categoryBars(sum.SalesByCategory, formatCount),
			LocationCount: len(sum.SalesByLocation),
		},
		TopByRevenue: sellerBars(view.TopByRevenue, core.ByRevenue),
		TopBySales:   sellerBars(view.TopBySales, core.BySales),
	}
}

// handleDashboard renders the main dashboard page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	req, err := ParseDashboardRequest(r.URL.Query())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	view, err := s.dashboard.Dashboard(ctx, req)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.renderPage(w, r, http.StatusOK, "dashboard.html", newDashboardPage(view))
	s.events.LogDashboardRendered(ctx, view.Query.Region, view.Query.Year,
		view.Summary.TotalSales, time.Since(start).Milliseconds())
	logSlow(ctx, "dashboard", start)
}

// dashboardJSON is the body of /api/dashboard.
type dashboardJSON struct {
	Region        string               `json:"region"`
	Year          int                  `json:"year,omitempty"`
	Sellers       []string             `json:"sellers"`
	TopN          int                  `json:"top_n"`
	Revenue       string               `json:"revenue_label"`
	Sales         string               `json:"sales_label"`
	Summary       core.Summary         `json:"summary"`
	TopByRevenue  []core.SellerSummary `json:"top_by_revenue"`
	TopBySales    []core.SellerSummary `json:"top_by_sales"`
	SellerOptions []string             `json:"seller_options"`
}

// handleDashboardJSON serves the dashboard tables as JSON.
func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := ParseDashboardRequest(r.URL.Query())
	if err == nil {
		var view services.DashboardView
		if view, err = s.dashboard.Dashboard(ctx, req); err == nil {
			page := newDashboardPage(view)
			sellers := view.Sellers
			if sellers == nil {
				sellers = []string{}
			}
			writeJSON(w, http.StatusOK, dashboardJSON{
				Region:        page.Region,
				Year:          view.Query.Year,
				Sellers:       sellers,
				TopN:          view.TopN,
				Revenue:       page.Metrics.Revenue,
				Sales:         page.Metrics.Sales,
				Summary:       view.Summary,
				TopByRevenue:  view.TopByRevenue,
				TopBySales:    view.TopBySales,
				SellerOptions: view.SellerOptions,
			})
			return
		}
	}

	status := requestStatus(r, err)
	if status == statusClientClosed {
		return
	}
	vlog.FromContext(ctx).WarnContext(ctx, "Dashboard API request failed",
		vlog.FieldError, err, vlog.FieldStatusCode, status, vlog.FieldComponent, vlog.ComponentDashboard)
	body := map[string]any{"error": errorMessage(status)}
	if detail := errorDetail(status, err); detail != "" {
		body["detail"] = detail
	}
	writeJSON(w, status, body)
}
