package view

import "fmt"

// MoneyFromCents renders integer minor units as a 2-decimal string, the only
// place amounts leave minor-unit representation.
func MoneyFromCents(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}

// AmountFromCents is MoneyFromCents without the currency suffix.
func AmountFromCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
