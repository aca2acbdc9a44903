package sheets

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"vendas/internal/core"
	"vendas/internal/source"
)

func header() []any {
	return []any{
		"Produto", "Categoria do Produto", "Preco", "Frete", "Data da Compra", "Vendedor",
		"Local da compra", "AVALIAÇÃO DA COMPRA", "Tipo de pagamento", "Quantidade de parcelas", "lat", "lon",
	}
}

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Preço":                   "preco",
		"  Avaliação   da compra": "avaliacao da compra",
		"lat":                     "lat",
	}
	for in, want := range cases {
		if got := normalizeHeader(in); got != want {
			t.Fatalf("normalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSales(t *testing.T) {
	values := [][]any{
		header(),
		{"Cadeira", "moveis", 250.5, "20,5", "10/10/2021", "Ana Duarte", "PR", 4.0, "boleto", 2.0, -24.89, -51.55},
		{},
		{"Celular", "eletronicos", "1.234,56", 30.0, "01/02/2022", "Thiago Silva", "SP", "5", "cartao_credito", "10", "-22.1", "-48.7"},
	}
	sales, err := parseSales(values)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(sales))
	}
	first := sales[0]
	if first.Product != "Cadeira" || first.Price != 250.5 || first.Freight != 20.5 || first.Rating != 4 || first.Installments != 2 {
		t.Fatalf("unexpected first sale %+v", first)
	}
	if !first.PurchaseDate.Equal(time.Date(2021, time.October, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", first.PurchaseDate)
	}
	if sales[1].Price != 1234.56 || sales[1].Lat != -22.1 {
		t.Fatalf("unexpected second sale %+v", sales[1])
	}
}

func TestParseSalesErrors(t *testing.T) {
	if _, err := parseSales([][]any{{"Produto", "Preço"}}); !errors.Is(err, errMissingColumn) {
		t.Fatalf("expected missing column error, got %v", err)
	}
	bad := [][]any{header(), {"x", "y", 1.0, 1.0, "2021-10-10", "s", "SP", 1.0, "boleto", 1.0, 0.0, 0.0}}
	if _, err := parseSales(bad); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected invalid date, got %v", err)
	}
	if sales, err := parseSales(nil); err != nil || len(sales) != 0 {
		t.Fatalf("expected empty result, got %v (err=%v)", sales, err)
	}
}

type fakeReader struct {
	rng    string
	values [][]any
	err    error
}

func (f *fakeReader) Values(_ context.Context, _, rng string) ([][]any, error) {
	f.rng = rng
	return f.values, f.err
}

func TestClientFetch(t *testing.T) {
	r := &fakeReader{values: [][]any{
		header(),
		{"Cadeira", "moveis", 250.5, 20.0, "10/10/2021", "Ana Duarte", "PR", 4.0, "boleto", 2.0, -24.89, -51.55},
		{"Mesa", "moveis", 500.0, 20.0, "10/10/2022", "Ana Duarte", "BA", 4.0, "boleto", 2.0, -13.0, -41.0},
	}}
	c := newClient(r, Config{SpreadsheetID: "id"})

	sales, err := c.Fetch(context.Background(), source.Query{Region: "Sul"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if r.rng != "Vendas!A:L" {
		t.Fatalf("unexpected range %q", r.rng)
	}
	if len(sales) != 1 || sales[0].Product != "Cadeira" {
		t.Fatalf("unexpected sales %+v", sales)
	}

	r.values = [][]any{{"Produto"}}
	if _, err := c.Fetch(context.Background(), source.Query{}); !errors.Is(err, source.ErrMalformedPayload) {
		t.Fatalf("expected malformed payload, got %v", err)
	}
}
