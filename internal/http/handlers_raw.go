package http

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"vendas/internal/core"
	vlog "vendas/internal/log"
	"vendas/internal/services"
)

// filterOption is one multi-select widget of the raw data sidebar.
type filterOption struct {
	Param    string
	Label    string
	Options  []string
	Selected []string
}

// rangeInput is one min/max pair of the raw data sidebar.
type rangeInput struct {
	Label          string
	MinParam       string
	MaxParam       string
	Low, High      float64
	Floor, Ceiling float64
	Step           string
}

// hiddenField carries a current filter into the export form.
type hiddenField struct {
	Name, Value string
}

// rawPage is the model of dados.html.
type rawPage struct {
	View       services.RawView
	Selects    []filterOption
	Ranges     []rangeInput
	From, To   string
	AllColumns []core.Column
	Filename   string
	Hidden     []hiddenField
}

func newRawPage(view services.RawView, filename string, q url.Values) rawPage {
	sel, def := view.Selection, view.Defaults

	keys := make([]string, 0, len(q))
	for k := range q {
		if k != paramFilename {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var hidden []hiddenField
	for _, k := range keys {
		for _, v := range q[k] {
			hidden = append(hidden, hiddenField{Name: k, Value: v})
		}
	}

	return rawPage{
		View: view,
		Selects: []filterOption{
			{paramProducts, "Produto", view.Options[core.FieldProduct], sel.Products},
			{paramCategories, "Categoria do produto", view.Options[core.FieldCategory], sel.Categories},
			{paramSellers, "Vendedor", view.Options[core.FieldSeller], sel.Sellers},
			{paramLocations, "Local da compra", view.Options[core.FieldLocation], sel.Locations},
			{paramPayments, "Tipo de pagamento", view.Options[core.FieldPaymentType], sel.PaymentTypes},
		},
		Ranges: []rangeInput{
			{"Preço do produto", paramPriceMin, paramPriceMax, sel.Price.Low, sel.Price.High, def.Price.Low, def.Price.High, "0.01"},
			{"Frete da venda", paramFreightMin, paramFreightMax, sel.Freight.Low, sel.Freight.High, def.Freight.Low, def.Freight.High, "0.01"},
			{"Avaliação da compra", paramRatingMin, paramRatingMax, sel.Rating.Low, sel.Rating.High, def.Rating.Low, def.Rating.High, "1"},
			{"Quantidade de parcelas", paramInstallMin, paramInstallMax, sel.Installments.Low, sel.Installments.High, def.Installments.Low, def.Installments.High, "1"},
		},
		From:       formatInputDate(sel.From),
		To:         formatInputDate(sel.To),
		AllColumns: core.Columns(),
		Filename:   filename,
		Hidden:     hidden,
	}
}

// handleRawData renders the filterable record table.
func (s *Server) handleRawData(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	req, err := ParseRawRequest(r.URL.Query())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	view, err := s.dashboard.Raw(ctx, req.Service)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	vlog.FromContext(ctx).DebugContext(ctx, "Raw data filtered",
		vlog.FieldRecords, len(view.Rows),
		"total", view.Total,
		vlog.FieldColumns, len(view.Columns),
		vlog.FieldComponent, vlog.ComponentRaw)
	s.renderPage(w, r, http.StatusOK, "dados.html", newRawPage(view, req.Filename, r.URL.Query()))
	logSlow(ctx, "raw data page", start)
}

// handleExportCSV streams the filtered table as a CSV attachment.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := ParseRawRequest(r.URL.Query())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	view, err := s.dashboard.Raw(ctx, req.Service)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	NewHTMXResponse().
		Header("Content-Type", "text/csv; charset=utf-8").
		Header("Content-Disposition", `attachment; filename="`+req.Filename+`"`).
		Header("X-Total-Rows", strconv.Itoa(len(view.Rows))).
		TriggerDownloadNotification().
		WriteHeader(w)

	if err := core.WriteCSV(w, view.Rows, view.Columns); err != nil {
		// Headers are gone already, the client sees a truncated file
		s.events.LogError(ctx, "CSV export interrupted", err, vlog.ComponentExport, vlog.OpExport,
			vlog.NewFields().WithRecords(len(view.Rows)))
		return
	}
	s.events.LogExport(ctx, req.Filename, len(view.Rows), len(view.Columns))
}
