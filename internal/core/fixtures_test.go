package core

import (
	"fmt"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// tenSales returns 10 records over three locations priced 10, 20, ..., 100.
func tenSales() []Sale {
	locations := []string{"SP", "RJ", "BA"}
	sellers := []string{"Ana Duarte", "Bruno Rodrigues", "Juliana Costa"}
	categories := []string{"livros", "eletronicos"}
	out := make([]Sale, 0, 10)
	for i := 0; i < 10; i++ {
		out = append(out, Sale{
			Product:      fmt.Sprintf("Produto %d", i),
			Category:     categories[i%len(categories)],
			Price:        float64((i + 1) * 10),
			Freight:      float64(i),
			PurchaseDate: day(2022, time.Month(1+i%4), 1+i),
			Rating:       1 + i%5,
			PaymentType:  "cartao_credito",
			Installments: 1 + i,
			Seller:       sellers[i%len(sellers)],
			Location:     locations[i%len(locations)],
			Lat:          float64(-10 - i%3),
			Lon:          float64(-40 - i%3),
		})
	}
	return out
}
