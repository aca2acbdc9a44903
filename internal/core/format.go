package core

import "fmt"

var magnitudes = []string{"", "mil"}

// FormatNumber scales value by thousands and labels the magnitude:
//
//	FormatNumber(500, "")        -> "500.00 "
//	FormatNumber(1500, "")       -> "1.50 mil"
//	FormatNumber(2500000, "R$")  -> "R$ 2.50 milhões"
//
// Anything past the thousands stays in millions.
func FormatNumber(value float64, prefix string) string {
	if prefix != "" {
		prefix += " "
	}
	for _, unit := range magnitudes {
		if value < 1000 {
			return fmt.Sprintf("%s%.2f %s", prefix, value, unit)
		}
		value /= 1000
	}
	return fmt.Sprintf("%s%.2f milhões", prefix, value)
}

// FormatCurrency is FormatNumber with the Real prefix.
func FormatCurrency(value float64) string {
	return FormatNumber(value, "R$")
}
