package core

import (
	"sort"
	"time"
)

type (
	// LocationTotal is one row of a per-location table.
	LocationTotal struct {
		Location string  `json:"location"`
		Lat      float64 `json:"lat"`
		Lon      float64 `json:"lon"`
		Value    float64 `json:"value"`
	}

	// MonthTotal is one row of a per-month table. Bucket is the last day
	// of the calendar month.
	MonthTotal struct {
		Bucket    time.Time `json:"bucket"`
		Year      int       `json:"year"`
		MonthName string    `json:"month"`
		Value     float64   `json:"value"`
	}

	// CategoryTotal is one row of a per-category table.
	CategoryTotal struct {
		Category string  `json:"category"`
		Value    float64 `json:"value"`
	}

	// SellerSummary holds revenue and sales count of one seller.
	SellerSummary struct {
		Seller  string  `json:"seller"`
		Revenue float64 `json:"revenue"`
		Sales   int     `json:"sales"`
	}

	// Summary is the full set of tables derived from a filtered collection.
	Summary struct {
		TotalRevenue float64 `json:"total_revenue"`
		TotalSales   int     `json:"total_sales"`

		RevenueByLocation []LocationTotal `json:"revenue_by_location"`
		RevenueByMonth    []MonthTotal    `json:"revenue_by_month"`
		RevenueByCategory []CategoryTotal `json:"revenue_by_category"`

		SalesByLocation []LocationTotal `json:"sales_by_location"`
		SalesByMonth    []MonthTotal    `json:"sales_by_month"`
		SalesByCategory []CategoryTotal `json:"sales_by_category"`

		Sellers []SellerSummary `json:"sellers"`
	}
)

// measure extracts the value accumulated for one record.
type measure func(Sale) float64

func revenue(s Sale) float64 { return s.Price }
func count(Sale) float64     { return 1 }

// Aggregate computes every summary table from scratch.
func Aggregate(sales []Sale) Summary {
	sum := Summary{
		TotalSales:        len(sales),
		RevenueByLocation: ByLocation(sales, revenue),
		RevenueByMonth:    ByMonth(sales, revenue),
		RevenueByCategory: ByCategory(sales, revenue),
		SalesByLocation:   ByLocation(sales, count),
		SalesByMonth:      ByMonth(sales, count),
		SalesByCategory:   ByCategory(sales, count),
		Sellers:           BySeller(sales),
	}
	for _, s := range sales {
		sum.TotalRevenue += s.Price
	}
	return sum
}

// ByLocation groups by purchase location, keeping the coordinates of the
// first record seen for each location, sorted by value descending.
func ByLocation(sales []Sale, m measure) []LocationTotal {
	index := map[string]int{}
	rows := make([]LocationTotal, 0)
	for _, s := range sales {
		i, ok := index[s.Location]
		if !ok {
			i = len(rows)
			index[s.Location] = i
			rows = append(rows, LocationTotal{Location: s.Location, Lat: s.Lat, Lon: s.Lon})
		}
		rows[i].Value += m(s)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Location < rows[j].Location
	})
	return rows
}

// ByCategory groups by product category, sorted by value descending.
func ByCategory(sales []Sale, m measure) []CategoryTotal {
	totals := map[string]float64{}
	for _, s := range sales {
		totals[s.Category] += m(s)
	}
	rows := make([]CategoryTotal, 0, len(totals))
	for c, v := range totals {
		rows = append(rows, CategoryTotal{Category: c, Value: v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// ByMonth buckets by calendar month in chronological order. Every month
// between the first and the last purchase is present, empty ones at zero.
func ByMonth(sales []Sale, m measure) []MonthTotal {
	if len(sales) == 0 {
		return []MonthTotal{}
	}
	first, last := DateSpan(sales)
	start, end := monthStart(first), monthStart(last)

	totals := map[time.Time]float64{}
	for _, s := range sales {
		totals[monthStart(s.PurchaseDate)] += m(s)
	}

	rows := make([]MonthTotal, 0)
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		rows = append(rows, MonthTotal{
			Bucket:    MonthEnd(cur),
			Year:      cur.Year(),
			MonthName: cur.Month().String(),
			Value:     totals[cur],
		})
	}
	return rows
}

// BySeller sums revenue and counts sales per seller, ordered by seller name.
func BySeller(sales []Sale) []SellerSummary {
	index := map[string]int{}
	rows := make([]SellerSummary, 0)
	for _, s := range sales {
		i, ok := index[s.Seller]
		if !ok {
			i = len(rows)
			index[s.Seller] = i
			rows = append(rows, SellerSummary{Seller: s.Seller})
		}
		rows[i].Revenue += s.Price
		rows[i].Sales++
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seller < rows[j].Seller })
	return rows
}

// MonthEnd returns the last day of t's calendar month.
func MonthEnd(t time.Time) time.Time {
	return monthStart(t).AddDate(0, 1, -1)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
