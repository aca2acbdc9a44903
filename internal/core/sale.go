package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// DateLayout is the wire format of the purchase date.
const DateLayout = "02/01/2006"

var (
	ErrInvalidDate   = errors.New("invalid purchase date")
	ErrInvalidRecord = errors.New("invalid sale record")
)

type (
	// Sale is one transaction as returned by the products API.
	Sale struct {
		Product      string
		Category     string
		Price        float64
		Freight      float64
		PurchaseDate time.Time
		Rating       int
		PaymentType  string
		Installments int
		Seller       string
		Location     string
		Lat          float64
		Lon          float64
	}

	// wireSale mirrors the JSON document of the upstream API.
	wireSale struct {
		Product      string  `json:"Produto"`
		Category     string  `json:"Categoria do Produto"`
		Price        float64 `json:"Preço"`
		Freight      float64 `json:"Frete"`
		PurchaseDate string  `json:"Data da Compra"`
		Seller       string  `json:"Vendedor"`
		Location     string  `json:"Local da compra"`
		Rating       int     `json:"Avaliação da compra"`
		PaymentType  string  `json:"Tipo de pagamento"`
		Installments int     `json:"Quantidade de parcelas"`
		Lat          float64 `json:"lat"`
		Lon          float64 `json:"lon"`
	}
)

// ParseDate parses a DD/MM/YYYY purchase date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", s)
	}
	return t, nil
}

// FormatDate renders a purchase date back to the wire format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func (s *Sale) UnmarshalJSON(data []byte) error {
	var w wireSale
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(ErrInvalidRecord, err.Error())
	}
	date, err := ParseDate(w.PurchaseDate)
	if err != nil {
		return err
	}
	*s = Sale{
		Product:      w.Product,
		Category:     w.Category,
		Price:        w.Price,
		Freight:      w.Freight,
		PurchaseDate: date,
		Rating:       w.Rating,
		PaymentType:  w.PaymentType,
		Installments: w.Installments,
		Seller:       w.Seller,
		Location:     w.Location,
		Lat:          w.Lat,
		Lon:          w.Lon,
	}
	return nil
}

func (s Sale) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSale{
		Product:      s.Product,
		Category:     s.Category,
		Price:        s.Price,
		Freight:      s.Freight,
		PurchaseDate: FormatDate(s.PurchaseDate),
		Seller:       s.Seller,
		Location:     s.Location,
		Rating:       s.Rating,
		PaymentType:  s.PaymentType,
		Installments: s.Installments,
		Lat:          s.Lat,
		Lon:          s.Lon,
	})
}

// DecodeSales decodes a JSON array of sale documents.
func DecodeSales(data []byte) ([]Sale, error) {
	var sales []Sale
	if err := json.Unmarshal(data, &sales); err != nil {
		if errors.Is(err, ErrInvalidDate) || errors.Is(err, ErrInvalidRecord) {
			return nil, err
		}
		return nil, errors.Wrap(ErrInvalidRecord, err.Error())
	}
	if sales == nil {
		sales = []Sale{}
	}
	return sales, nil
}
