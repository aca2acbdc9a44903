// Package http provides HTTP server and handler implementations.
//
// This file turns query strings into validated dashboard and raw data
// requests.

package http

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"vendas/internal/core"
	"vendas/internal/services"
	"vendas/internal/source"
)

// Query parameter names.
const (
	paramRegion     = "regiao"
	paramYear       = "ano"
	paramSellers    = "vendedores"
	paramTop        = "top"
	paramProducts   = "produtos"
	paramCategories = "categorias"
	paramLocations  = "locais"
	paramPayments   = "pagamentos"
	paramPriceMin   = "preco_min"
	paramPriceMax   = "preco_max"
	paramFreightMin = "frete_min"
	paramFreightMax = "frete_max"
	paramDateFrom   = "data_inicio"
	paramDateTo     = "data_fim"
	paramRatingMin  = "avaliacao_min"
	paramRatingMax  = "avaliacao_max"
	paramInstallMin = "parcelas_min"
	paramInstallMax = "parcelas_max"
	paramExpression = "expr"
	paramColumns    = "colunas"
	paramFilename   = "arquivo"
	inputDateLayout = "2006-01-02"
)

// ErrInvalidRequest wraps every malformed or out of range parameter.
var ErrInvalidRequest = errors.New("invalid request")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		_, ok := core.CanonicalRegion(fl.Field().String())
		return ok
	})
	return v
}

// dashboardParams mirrors the dashboard sidebar.
type dashboardParams struct {
	Region  string   `validate:"region"`
	Year    int      `validate:"omitempty,min=2020,max=2023"`
	Sellers []string `validate:"max=500,dive,max=200"`
	TopN    int      `validate:"min=2,max=10"`
}

// ParseDashboardRequest reads regiao, ano, vendedores and top. An empty or
// "todos" year selects the whole period; a missing top uses the default.
func ParseDashboardRequest(q url.Values) (services.DashboardRequest, error) {
	p := dashboardParams{
		Region:  strings.TrimSpace(q.Get(paramRegion)),
		Sellers: multi(q, paramSellers),
		TopN:    core.DefaultTopN,
	}

	switch v := strings.TrimSpace(q.Get(paramYear)); strings.ToLower(v) {
	case "", "todos", "all":
	default:
		y, err := strconv.Atoi(v)
		if err != nil {
			return services.DashboardRequest{}, errors.Wrapf(ErrInvalidRequest, "%s: %q is not a year", paramYear, v)
		}
		p.Year = y
	}

	if v := strings.TrimSpace(q.Get(paramTop)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return services.DashboardRequest{}, errors.Wrapf(ErrInvalidRequest, "%s: %q is not a number", paramTop, v)
		}
		p.TopN = n
	}

	if err := validateStruct(p); err != nil {
		return services.DashboardRequest{}, err
	}

	region, _ := core.CanonicalRegion(p.Region)
	return services.DashboardRequest{
		Query:   source.Query{Region: region, Year: p.Year},
		Sellers: p.Sellers,
		TopN:    p.TopN,
	}, nil
}

// rawParams mirrors the raw data sidebar. Nil bounds keep the defaults.
type rawParams struct {
	Products     []string `validate:"max=500,dive,max=200"`
	Categories   []string `validate:"max=500,dive,max=200"`
	Sellers      []string `validate:"max=500,dive,max=200"`
	Locations    []string `validate:"max=500,dive,max=200"`
	PaymentTypes []string `validate:"max=500,dive,max=200"`

	PriceMin, PriceMax               *float64 `validate:"omitnil,min=0"`
	FreightMin, FreightMax           *float64 `validate:"omitnil,min=0"`
	RatingMin, RatingMax             *float64 `validate:"omitnil,min=1,max=5"`
	InstallmentsMin, InstallmentsMax *float64 `validate:"omitnil,min=1,max=24"`

	From, To *time.Time

	Expression string   `validate:"max=1000"`
	Columns    []string `validate:"max=12"`
	Filename   string   `validate:"max=200"`
}

// RawPageRequest is the parsed raw data page request.
type RawPageRequest struct {
	Service  services.RawRequest
	Filename string
	// Filtered is false when no filter parameter was sent.
	Filtered bool
}

// ParseRawRequest reads the raw data page filters, the column selection and
// the export file name.
func ParseRawRequest(q url.Values) (RawPageRequest, error) {
	p := rawParams{
		Products:     multi(q, paramProducts),
		Categories:   multi(q, paramCategories),
		Sellers:      multi(q, paramSellers),
		Locations:    multi(q, paramLocations),
		PaymentTypes: multi(q, paramPayments),
		Expression:   strings.TrimSpace(q.Get(paramExpression)),
		Columns:      multi(q, paramColumns),
		Filename:     strings.TrimSpace(q.Get(paramFilename)),
	}

	var err error
	floats := []struct {
		name string
		dst  **float64
	}{
		{paramPriceMin, &p.PriceMin}, {paramPriceMax, &p.PriceMax},
		{paramFreightMin, &p.FreightMin}, {paramFreightMax, &p.FreightMax},
		{paramRatingMin, &p.RatingMin}, {paramRatingMax, &p.RatingMax},
		{paramInstallMin, &p.InstallmentsMin}, {paramInstallMax, &p.InstallmentsMax},
	}
	for _, f := range floats {
		if *f.dst, err = optionalFloat(q, f.name); err != nil {
			return RawPageRequest{}, err
		}
	}
	if p.From, err = optionalDate(q, paramDateFrom); err != nil {
		return RawPageRequest{}, err
	}
	if p.To, err = optionalDate(q, paramDateTo); err != nil {
		return RawPageRequest{}, err
	}

	if err := validateStruct(p); err != nil {
		return RawPageRequest{}, err
	}
	if p.Expression != "" {
		if _, err := core.Expression(p.Expression); err != nil {
			return RawPageRequest{}, errors.Mark(err, ErrInvalidRequest)
		}
	}
	if _, err := core.ParseColumns(p.Columns); err != nil {
		return RawPageRequest{}, errors.Mark(err, ErrInvalidRequest)
	}

	req := RawPageRequest{
		Service:  services.RawRequest{Columns: p.Columns},
		Filename: core.CSVFilename(p.Filename),
		Filtered: p.filtered(),
	}
	if req.Filtered {
		req.Service.Customize = p.apply
	}
	return req, nil
}

func (p rawParams) filtered() bool {
	return len(p.Products)+len(p.Categories)+len(p.Sellers)+len(p.Locations)+len(p.PaymentTypes) > 0 ||
		p.PriceMin != nil || p.PriceMax != nil || p.FreightMin != nil || p.FreightMax != nil ||
		p.RatingMin != nil || p.RatingMax != nil || p.InstallmentsMin != nil || p.InstallmentsMax != nil ||
		p.From != nil || p.To != nil || p.Expression != ""
}

// apply overrides the default selection with whatever was sent.
func (p rawParams) apply(sel *core.Selection) {
	sel.Products = p.Products
	sel.Categories = p.Categories
	sel.Sellers = p.Sellers
	sel.Locations = p.Locations
	sel.PaymentTypes = p.PaymentTypes
	sel.Expression = p.Expression

	setBound(&sel.Price.Low, p.PriceMin)
	setBound(&sel.Price.High, p.PriceMax)
	setBound(&sel.Freight.Low, p.FreightMin)
	setBound(&sel.Freight.High, p.FreightMax)
	setBound(&sel.Rating.Low, p.RatingMin)
	setBound(&sel.Rating.High, p.RatingMax)
	setBound(&sel.Installments.Low, p.InstallmentsMin)
	setBound(&sel.Installments.High, p.InstallmentsMax)
	if p.From != nil {
		sel.From = *p.From
	}
	if p.To != nil {
		sel.To = *p.To
	}
}

func setBound(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// multi returns the trimmed, non-empty values of a repeated parameter.
func multi(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		if v = sanitizeInput(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func optionalFloat(q url.Values, key string) (*float64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "%s: %q is not a number", key, v)
	}
	return &f, nil
}

func optionalDate(q url.Values, key string) (*time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(inputDateLayout, v)
	if err != nil {
		// Also accept the wire format of the products API
		if t, err = core.ParseDate(v); err != nil {
			return nil, errors.Wrapf(ErrInvalidRequest, "%s: %q is not a date", key, v)
		}
	}
	return &t, nil
}

// validateStruct runs the validator and folds its report into one
// ErrInvalidRequest.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+" fails "+fe.Tag())
	}
	return errors.Wrap(ErrInvalidRequest, strings.Join(msgs, ", "))
}
