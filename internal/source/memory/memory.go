package memory

import (
	"context"
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	"vendas/internal/core"
	"vendas/internal/source"
)

// Store keeps the dataset in process memory and evaluates queries with the
// core predicates.
type Store struct {
	mu    sync.RWMutex
	sales []core.Sale
}

var (
	_ source.RecordSource   = (*Store)(nil)
	_ source.SnapshotWriter = (*Store)(nil)
)

func New(sales []core.Sale) *Store {
	return &Store{sales: append([]core.Sale(nil), sales...)}
}

// NewFromFile seeds the store from a JSON array in the products API format.
// A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(nil), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	sales, err := core.DecodeSales(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return New(sales), nil
}

// Fetch returns a copy of the records matching q.
func (s *Store) Fetch(_ context.Context, q source.Query) ([]core.Sale, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Filter(s.sales, q.Predicates()), nil
}

// ReplaceAll swaps the dataset.
func (s *Store) ReplaceAll(_ context.Context, sales []core.Sale) error {
	cp := append([]core.Sale(nil), sales...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = cp
	return nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sales)
}
