package core

import (
	"time"

	"github.com/hashicorp/go-set/v2"
)

// Default bounds of the raw data page sliders.
const (
	DefaultPriceMax   = 5000
	DefaultFreightMax = 250
	MinRating         = 1
	MaxRating         = 5
	MinInstallments   = 1
	MaxInstallments   = 24
)

// Range is a closed numeric interval.
type Range struct {
	Low, High float64
}

// Selection holds the raw data page widgets. Nil slices mean "nothing
// selected", which places no constraint on that field.
type Selection struct {
	Products     []string
	Categories   []string
	Sellers      []string
	Locations    []string
	PaymentTypes []string

	Price        Range
	Freight      Range
	Rating       Range
	Installments Range

	From, To time.Time

	// Expression is an optional boolean expression over the record.
	Expression string
}

// DefaultSelection returns the widget defaults for a dataset: full slider
// ranges and the dataset's first and last purchase dates.
func DefaultSelection(sales []Sale) Selection {
	from, to := DateSpan(sales)
	return Selection{
		Price:        Range{0, DefaultPriceMax},
		Freight:      Range{0, DefaultFreightMax},
		Rating:       Range{MinRating, MaxRating},
		Installments: Range{MinInstallments, MaxInstallments},
		From:         from,
		To:           to,
	}
}

// Predicates builds the conjunction in widget order.
func (sel Selection) Predicates() (Predicates, error) {
	preds := Predicates{
		In(FieldProduct, sel.Products...),
		In(FieldCategory, sel.Categories...),
		Between(FieldPrice, sel.Price.Low, sel.Price.High),
		Between(FieldFreight, sel.Freight.Low, sel.Freight.High),
		DateBetween(sel.From, sel.To),
		In(FieldSeller, sel.Sellers...),
		In(FieldLocation, sel.Locations...),
		Between(FieldRating, sel.Rating.Low, sel.Rating.High),
		In(FieldPaymentType, sel.PaymentTypes...),
		Between(FieldInstallments, sel.Installments.Low, sel.Installments.High),
	}
	if sel.Expression != "" {
		expr, err := Expression(sel.Expression)
		if err != nil {
			return nil, err
		}
		preds = append(preds, expr)
	}
	return preds, nil
}

// DateSpan returns the earliest and latest purchase dates, zero when empty.
func DateSpan(sales []Sale) (first, last time.Time) {
	for i, s := range sales {
		if i == 0 || s.PurchaseDate.Before(first) {
			first = s.PurchaseDate
		}
		if i == 0 || s.PurchaseDate.After(last) {
			last = s.PurchaseDate
		}
	}
	return first, last
}

// Distinct lists the values of a field in order of first appearance.
func Distinct(sales []Sale, field TextField) []string {
	seen := set.New[string](0)
	out := make([]string, 0)
	for _, s := range sales {
		v := s.Text(field)
		if seen.Insert(v) {
			out = append(out, v)
		}
	}
	return out
}
