package orders

// Pricing policy. All amounts are integer minor currency units; the tax
// line is rounded half-up. grand = items + shipping + tax holds exactly
// because the sum happens after the single rounding step.
const (
	freeShippingOverCents = 100_00
	shippingFlatCents     = 10_00
	taxRateBasisPoints    = 1500 // 15%
)

type PriceLine struct {
	UnitPriceCents int64
	Quantity       int
}

type Totals struct {
	ItemsCents    int64
	ShippingCents int64
	TaxCents      int64
	TotalCents    int64
}

// ComputeTotals is pure: given catalog-resolved unit prices, it derives the
// stored totals for an order. Shipping is free strictly above the threshold.
func ComputeTotals(lines []PriceLine) Totals {
	var items int64
	for _, ln := range lines {
		items += ln.UnitPriceCents * int64(ln.Quantity)
	}

	var shipping int64
	if items <= freeShippingOverCents {
		shipping = shippingFlatCents
	}

	tax := roundHalfUpBasisPoints(items, taxRateBasisPoints)

	return Totals{
		ItemsCents:    items,
		ShippingCents: shipping,
		TaxCents:      tax,
		TotalCents:    items + shipping + tax,
	}
}

// roundHalfUpBasisPoints computes amount*bp/10000 rounded half-up, in
// integer arithmetic so repeated computation can never drift.
func roundHalfUpBasisPoints(amount, bp int64) int64 {
	return (amount*bp + 5000) / 10000
}
