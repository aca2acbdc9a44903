package source

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestQueryNormalize(t *testing.T) {
	cases := []struct {
		in   Query
		want Query
		err  bool
	}{
		{Query{}, Query{}, false},
		{Query{Region: "Brasil"}, Query{}, false},
		{Query{Region: "sudeste", Year: 2022}, Query{Region: "Sudeste", Year: 2022}, false},
		{Query{Region: "Atlantida"}, Query{}, true},
		{Query{Year: 2019}, Query{}, true},
		{Query{Year: 2024}, Query{}, true},
	}
	for _, tc := range cases {
		got, err := tc.in.Normalize()
		if tc.err {
			if !errors.Is(err, ErrInvalidQuery) {
				t.Fatalf("%+v: expected ErrInvalidQuery, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%+v: expected %+v, got %+v (err=%v)", tc.in, tc.want, got, err)
		}
	}
}

func TestQueryKey(t *testing.T) {
	cases := map[Query]string{
		{}:                            "Brasil/all",
		{Region: "Sul"}:               "Sul/all",
		{Region: "Norte", Year: 2021}: "Norte/2021",
	}
	for q, want := range cases {
		if got := q.Key(); got != want {
			t.Fatalf("%+v: expected %q, got %q", q, want, got)
		}
	}
}
