package core

import (
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-bexpr"
)

var ErrInvalidExpression = errors.New("invalid filter expression")

type expression struct {
	eval *bexpr.Evaluator
}

// Expression compiles a boolean expression over the record fields, e.g.
//
//	Seller == "Ana Duarte" and Category != "livros"
//	Region == "Sul" or Product matches "^Celular"
//
// Ordering comparisons are not part of the grammar; numeric ranges are
// expressed with Between. Available selectors: Product, Category, Price,
// Freight, Date (YYYY-MM-DD), Year, Month, Rating, PaymentType,
// Installments, Seller, Location, Region.
func Expression(expr string) (Predicate, error) {
	eval, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidExpression, "%q: %v", expr, err)
	}
	return expression{eval: eval}, nil
}

// Match treats evaluation errors as a non-match.
func (e expression) Match(s Sale) bool {
	ok, err := e.eval.Evaluate(s.vars())
	return err == nil && ok
}

func (s Sale) vars() map[string]any {
	return map[string]any{
		"Product":      s.Product,
		"Category":     s.Category,
		"Price":        s.Price,
		"Freight":      s.Freight,
		"Date":         s.PurchaseDate.Format("2006-01-02"),
		"Year":         s.PurchaseDate.Year(),
		"Month":        int(s.PurchaseDate.Month()),
		"Rating":       s.Rating,
		"PaymentType":  s.PaymentType,
		"Installments": s.Installments,
		"Seller":       s.Seller,
		"Location":     s.Location,
		"Region":       RegionOf(s.Location),
	}
}
