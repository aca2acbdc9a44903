package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"vendas/internal/core"
	"vendas/internal/source"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	// A file per test keeps tests independent of the shared in-memory name.
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "vendas.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sample() []core.Sale {
	mk := func(loc string, y int, price float64) core.Sale {
		return core.Sale{
			Product: "p " + loc, Category: "livros", Price: price, Freight: 1.5,
			PurchaseDate: time.Date(y, time.March, 3, 0, 0, 0, 0, time.UTC),
			Rating:       4, PaymentType: "boleto", Installments: 2,
			Seller: "Ana Duarte", Location: loc, Lat: -10.5, Lon: -40.25,
		}
	}
	return []core.Sale{mk("SP", 2020, 10), mk("RS", 2021, 20), mk("SC", 2021, 30), mk("BA", 2023, 40)}
}

func TestReplaceAllAndFetch(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceAll(ctx, sample()); err != nil {
		t.Fatalf("replace: %v", err)
	}

	all, err := repo.Fetch(ctx, source.Query{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
	}
	if all[0] != sample()[0] {
		t.Fatalf("record changed through storage:\n got %+v\nwant %+v", all[0], sample()[0])
	}

	cases := []struct {
		q    source.Query
		want int
	}{
		{source.Query{Region: "Sul"}, 2},
		{source.Query{Region: "sul", Year: 2021}, 2},
		{source.Query{Year: 2023}, 1},
		{source.Query{Region: "Norte"}, 0},
	}
	for _, tc := range cases {
		got, err := repo.Fetch(ctx, tc.q)
		if err != nil {
			t.Fatalf("%+v: %v", tc.q, err)
		}
		if len(got) != tc.want {
			t.Fatalf("%+v: expected %d, got %d", tc.q, tc.want, len(got))
		}
	}
}

func TestReplaceAllSwapsSnapshot(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceAll(ctx, sample()); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := repo.ReplaceAll(ctx, sample()[:1]); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ := repo.Fetch(ctx, source.Query{})
	if len(got) != 1 {
		t.Fatalf("expected 1 record after swap, got %d", len(got))
	}

	at, n, err := repo.LastRefresh(ctx)
	if err != nil || n != 1 || at.IsZero() {
		t.Fatalf("unexpected meta at=%v n=%d err=%v", at, n, err)
	}
}

func TestReplaceAllLargeBatch(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	big := make([]core.Sale, 0, 1234)
	for i := 0; i < cap(big); i++ {
		s := sample()[i%4]
		s.Product = fmt.Sprintf("p%d", i)
		big = append(big, s)
	}
	if err := repo.ReplaceAll(ctx, big); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ := repo.Fetch(ctx, source.Query{})
	if len(got) != len(big) || got[1233].Product != "p1233" {
		t.Fatalf("expected %d ordered records, got %d", len(big), len(got))
	}
}

func TestLastRefreshEmpty(t *testing.T) {
	repo := newRepo(t)
	at, n, err := repo.LastRefresh(context.Background())
	if err != nil || !at.IsZero() || n != 0 {
		t.Fatalf("expected no snapshot, got at=%v n=%d err=%v", at, n, err)
	}
}

func TestFetchInvalidQuery(t *testing.T) {
	repo := newRepo(t)
	if _, err := repo.Fetch(context.Background(), source.Query{Year: 1999}); err == nil {
		t.Fatalf("expected error")
	}
}
