package core

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Column is a header of the exported table.
type Column string

const (
	ColProduct      Column = "Produto"
	ColCategory     Column = "Categoria do Produto"
	ColPrice        Column = "Preço"
	ColFreight      Column = "Frete"
	ColPurchaseDate Column = "Data da Compra"
	ColSeller       Column = "Vendedor"
	ColLocation     Column = "Local da compra"
	ColRating       Column = "Avaliação da compra"
	ColPaymentType  Column = "Tipo de pagamento"
	ColInstallments Column = "Quantidade de parcelas"
	ColLat          Column = "lat"
	ColLon          Column = "lon"
)

// DefaultFilename is used when the user leaves the file name empty.
const DefaultFilename = "dados"

var ErrUnknownColumn = errors.New("unknown column")

// Columns lists every column in table order.
func Columns() []Column {
	return []Column{
		ColProduct, ColCategory, ColPrice, ColFreight, ColPurchaseDate, ColSeller,
		ColLocation, ColRating, ColPaymentType, ColInstallments, ColLat, ColLon,
	}
}

// ParseColumns validates header names and returns them in table order,
// without duplicates. No names selects every column.
func ParseColumns(names []string) ([]Column, error) {
	if len(names) == 0 {
		return Columns(), nil
	}
	wanted := make(map[Column]bool, len(names))
	for _, n := range names {
		c := Column(strings.TrimSpace(n))
		if !c.valid() {
			return nil, errors.Wrapf(ErrUnknownColumn, "%q", n)
		}
		wanted[c] = true
	}
	cols := make([]Column, 0, len(wanted))
	for _, c := range Columns() {
		if wanted[c] {
			cols = append(cols, c)
		}
	}
	return cols, nil
}

func (c Column) valid() bool {
	for _, k := range Columns() {
		if k == c {
			return true
		}
	}
	return false
}

// Value renders the column of s as it appears in tables and exports.
func (c Column) Value(s Sale) string {
	switch c {
	case ColProduct:
		return s.Product
	case ColCategory:
		return s.Category
	case ColPrice:
		return strconv.FormatFloat(s.Price, 'f', -1, 64)
	case ColFreight:
		return strconv.FormatFloat(s.Freight, 'f', -1, 64)
	case ColPurchaseDate:
		return FormatDate(s.PurchaseDate)
	case ColSeller:
		return s.Seller
	case ColLocation:
		return s.Location
	case ColRating:
		return strconv.Itoa(s.Rating)
	case ColPaymentType:
		return s.PaymentType
	case ColInstallments:
		return strconv.Itoa(s.Installments)
	case ColLat:
		return strconv.FormatFloat(s.Lat, 'f', -1, 64)
	case ColLon:
		return strconv.FormatFloat(s.Lon, 'f', -1, 64)
	}
	return ""
}

// WriteCSV writes a header row followed by one row per sale.
func WriteCSV(w io.Writer, sales []Sale, cols []Column) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = string(c)
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	row := make([]string, len(cols))
	for _, s := range sales {
		for i, c := range cols {
			row[i] = c.Value(s)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// CSVFilename turns a user supplied name into a safe download file name.
func CSVFilename(name string) string {
	name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), ".csv"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = DefaultFilename
	}
	return name + ".csv"
}
