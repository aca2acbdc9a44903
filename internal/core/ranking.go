package core

import "sort"

// Top-N bounds of the sellers tab.
const (
	MinTopN     = 2
	MaxTopN     = 10
	DefaultTopN = 5
)

// Ranking selects the measure used to order sellers.
type Ranking int

const (
	ByRevenue Ranking = iota
	BySales
)

// ClampTopN forces n into [MinTopN, MaxTopN].
func ClampTopN(n int) int {
	if n < MinTopN {
		return MinTopN
	}
	if n > MaxTopN {
		return MaxTopN
	}
	return n
}

// TopSellers returns the n best sellers by the given ranking. n is clamped.
// The input is not reordered.
func TopSellers(sellers []SellerSummary, n int, by Ranking) []SellerSummary {
	ranked := append([]SellerSummary(nil), sellers...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if by == BySales && a.Sales != b.Sales {
			return a.Sales > b.Sales
		}
		if by == ByRevenue && a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.Seller < b.Seller
	})
	n = ClampTopN(n)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
