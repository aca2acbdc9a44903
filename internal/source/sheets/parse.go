package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"vendas/internal/core"
)

var errMissingColumn = errors.New("missing column")

// normalizeHeader folds accents, case and surrounding blanks so that
// "Avaliação da compra" and "avaliacao da compra " name the same column.
func normalizeHeader(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, _ := transform.String(t, s)
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}

// parseSales converts a values matrix, header row first, into sales.
// Blank rows are skipped.
func parseSales(values [][]any) ([]core.Sale, error) {
	sales := make([]core.Sale, 0)
	if len(values) == 0 {
		return sales, nil
	}

	index := map[string]int{}
	for i, h := range values[0] {
		index[normalizeHeader(fmt.Sprint(h))] = i
	}
	cols := make(map[core.Column]int, len(core.Columns()))
	missing := make([]string, 0)
	for _, c := range core.Columns() {
		i, ok := index[normalizeHeader(string(c))]
		if !ok {
			missing = append(missing, string(c))
			continue
		}
		cols[c] = i
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(errMissingColumn, "%s", strings.Join(missing, ", "))
	}

	for n, raw := range values[1:] {
		row := toStrings(raw)
		if blank(row) {
			continue
		}
		s, err := parseRow(row, cols)
		if err != nil {
			// +2: one-based and header row
			return nil, errors.Wrapf(err, "row %d", n+2)
		}
		sales = append(sales, s)
	}
	return sales, nil
}

func parseRow(row []string, cols map[core.Column]int) (core.Sale, error) {
	get := func(c core.Column) string { return safeGet(row, cols[c]) }

	var (
		s   core.Sale
		err error
	)
	s.Product = get(core.ColProduct)
	s.Category = get(core.ColCategory)
	s.Seller = get(core.ColSeller)
	s.Location = get(core.ColLocation)
	s.PaymentType = get(core.ColPaymentType)

	if s.PurchaseDate, err = core.ParseDate(get(core.ColPurchaseDate)); err != nil {
		return s, err
	}
	floats := []struct {
		col core.Column
		dst *float64
	}{
		{core.ColPrice, &s.Price},
		{core.ColFreight, &s.Freight},
		{core.ColLat, &s.Lat},
		{core.ColLon, &s.Lon},
	}
	for _, f := range floats {
		if *f.dst, err = parseNumber(get(f.col)); err != nil {
			return s, errors.Wrapf(err, "%s", f.col)
		}
	}
	rating, err := parseNumber(get(core.ColRating))
	if err != nil {
		return s, errors.Wrapf(err, "%s", core.ColRating)
	}
	installments, err := parseNumber(get(core.ColInstallments))
	if err != nil {
		return s, errors.Wrapf(err, "%s", core.ColInstallments)
	}
	s.Rating, s.Installments = int(rating), int(installments)
	return s, nil
}

// parseNumber accepts both "1234.5" and the pt-BR "1.234,5".
func parseNumber(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.ReplaceAll(v, ",", ".")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid number %q", v)
	}
	return f, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
