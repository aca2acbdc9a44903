package core

import (
	"time"

	"github.com/hashicorp/go-set/v2"
)

// TextField names a categorical attribute usable in set-membership tests.
type TextField string

const (
	FieldProduct     TextField = "product"
	FieldCategory    TextField = "category"
	FieldSeller      TextField = "seller"
	FieldPaymentType TextField = "payment_type"
	FieldLocation    TextField = "location"
)

// NumberField names a numeric attribute usable in range tests.
type NumberField string

const (
	FieldPrice        NumberField = "price"
	FieldFreight      NumberField = "freight"
	FieldRating       NumberField = "rating"
	FieldInstallments NumberField = "installments"
)

// Text returns the value of a categorical field.
func (s Sale) Text(f TextField) string {
	switch f {
	case FieldProduct:
		return s.Product
	case FieldCategory:
		return s.Category
	case FieldSeller:
		return s.Seller
	case FieldPaymentType:
		return s.PaymentType
	case FieldLocation:
		return s.Location
	}
	return ""
}

// Number returns the value of a numeric field.
func (s Sale) Number(f NumberField) float64 {
	switch f {
	case FieldPrice:
		return s.Price
	case FieldFreight:
		return s.Freight
	case FieldRating:
		return float64(s.Rating)
	case FieldInstallments:
		return float64(s.Installments)
	}
	return 0
}

// Predicate is a boolean test over one record.
type Predicate interface {
	Match(s Sale) bool
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(Sale) bool

func (f PredicateFunc) Match(s Sale) bool { return f(s) }

// Predicates is an ordered conjunction of predicates.
type Predicates []Predicate

// Match reports whether every predicate accepts s. An empty set accepts all.
func (ps Predicates) Match(s Sale) bool {
	for _, p := range ps {
		if !p.Match(s) {
			return false
		}
	}
	return true
}

// And returns a new set with extra predicates appended.
func (ps Predicates) And(more ...Predicate) Predicates {
	out := make(Predicates, 0, len(ps)+len(more))
	out = append(out, ps...)
	return append(out, more...)
}

// Filter returns the records accepted by all predicates, in input order.
// The input slice is never modified.
func Filter(sales []Sale, preds Predicates) []Sale {
	out := make([]Sale, 0, len(sales))
	for _, s := range sales {
		if preds.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

type membership struct {
	field  TextField
	values *set.Set[string]
}

func (m membership) Match(s Sale) bool {
	return m.values.Contains(s.Text(m.field))
}

// In tests field value membership. An empty selection places no constraint.
func In(field TextField, values ...string) Predicate {
	if len(values) == 0 {
		return PredicateFunc(func(Sale) bool { return true })
	}
	return membership{field: field, values: set.From(values)}
}

type numberRange struct {
	field     NumberField
	low, high float64
}

func (r numberRange) Match(s Sale) bool {
	v := s.Number(r.field)
	return r.low <= v && v <= r.high
}

// Between tests low <= field <= high.
func Between(field NumberField, low, high float64) Predicate {
	return numberRange{field: field, low: low, high: high}
}

type dateRange struct {
	low, high time.Time
}

func (r dateRange) Match(s Sale) bool {
	d := truncateDay(s.PurchaseDate)
	if !r.low.IsZero() && d.Before(r.low) {
		return false
	}
	if !r.high.IsZero() && d.After(r.high) {
		return false
	}
	return true
}

// DateBetween tests low <= purchase date <= high at day granularity.
// A zero bound leaves that side open.
func DateBetween(low, high time.Time) Predicate {
	return dateRange{low: truncateDay(low), high: truncateDay(high)}
}

// InRegion keeps sales made in a state of the region. AllRegions and the
// empty string place no constraint.
func InRegion(region string) Predicate {
	if region == "" || region == AllRegions {
		return PredicateFunc(func(Sale) bool { return true })
	}
	return PredicateFunc(func(s Sale) bool {
		return RegionOf(s.Location) == region
	})
}

// InYear keeps sales of a calendar year. Zero places no constraint.
func InYear(year int) Predicate {
	if year == 0 {
		return PredicateFunc(func(Sale) bool { return true })
	}
	return PredicateFunc(func(s Sale) bool {
		return s.PurchaseDate.Year() == year
	})
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
