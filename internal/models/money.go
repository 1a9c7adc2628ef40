package models

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineTotal computes quantity × unit price, minus the discount. A fixed discount
// is taken once from the line, not per unit. The result never goes below zero.
func LineTotal(quantity int, unitPriceInclTax, discount decimal.Decimal, kind DiscountType) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	total := unitPriceInclTax.Mul(decimal.NewFromInt(int64(quantity)))
	switch kind {
	case DiscountFixed:
		total = total.Sub(discount)
	default:
		total = total.Sub(total.Mul(discount).Div(hundred))
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ExclTax removes a percentage rate from a tax-inclusive amount. A rate at or
// below -100 has no pre-tax amount and yields zero.
func ExclTax(inclTax, ratePercent decimal.Decimal) decimal.Decimal {
	divisor := decimal.NewFromInt(1).Add(ratePercent.Div(hundred))
	if !divisor.IsPositive() {
		return decimal.Zero
	}
	return inclTax.Div(divisor)
}

// FormatAmount renders an amount for display, rounded to cents.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2) + " €"
}
