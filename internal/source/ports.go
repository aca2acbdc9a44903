package source

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"

	"vendas/internal/core"
)

var (
	// ErrUpstreamStatus is returned when the products API answers non-2xx.
	ErrUpstreamStatus = errors.New("upstream returned an error status")
	// ErrMalformedPayload is returned when a source yields undecodable records.
	ErrMalformedPayload = errors.New("malformed sales payload")
	ErrInvalidQuery     = errors.New("invalid query")
)

// Query narrows a fetch to one region and one year. The zero value asks for
// everything.
type Query struct {
	Region string // canonical region name, "" or core.AllRegions for all
	Year   int    // 0 for every year
}

// Ports for record sources.
type (
	// RecordSource loads the full record collection matching a query.
	RecordSource interface {
		Fetch(ctx context.Context, q Query) ([]core.Sale, error)
	}

	// SnapshotWriter replaces a stored copy of the upstream dataset.
	SnapshotWriter interface {
		ReplaceAll(ctx context.Context, sales []core.Sale) error
	}
)

// Normalize resolves the region name and checks the year bounds.
func (q Query) Normalize() (Query, error) {
	region, ok := core.CanonicalRegion(q.Region)
	if !ok {
		return Query{}, errors.Wrapf(ErrInvalidQuery, "unknown region %q", q.Region)
	}
	if q.Year != 0 && (q.Year < core.FirstYear || q.Year > core.LastYear) {
		return Query{}, errors.Wrapf(ErrInvalidQuery, "year %d outside %d-%d", q.Year, core.FirstYear, core.LastYear)
	}
	if region == core.AllRegions {
		region = ""
	}
	return Query{Region: region, Year: q.Year}, nil
}

// Predicates evaluates the query client-side, for sources that cannot push
// it down.
func (q Query) Predicates() core.Predicates {
	return core.Predicates{core.InRegion(q.Region), core.InYear(q.Year)}
}

// Key identifies the query in caches and logs.
func (q Query) Key() string {
	region := q.Region
	if region == "" {
		region = core.AllRegions
	}
	if q.Year == 0 {
		return region + "/all"
	}
	return region + "/" + strconv.Itoa(q.Year)
}
