package services

import (
	"strings"

	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/diewo77/invoice-relay/validation"
	"github.com/shopspring/decimal"
)

// ValidationResult is the verdict of the gate. Violations keep rule order.
type ValidationResult struct {
	Valid      bool
	Violations validation.Violations
}

// Reasons renders every violation in lang.
func (r ValidationResult) Reasons(lang string) []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, i18n.Tf(lang, v.Code, v.Args...))
	}
	return out
}

var hundred = decimal.NewFromInt(100)

// Validate evaluates every rule, in a fixed order, without stopping at the first failure.
func Validate(inv models.Invoice) ValidationResult {
	var v validation.Violations

	if strings.TrimSpace(inv.InvoiceDate) == "" {
		v.Add("invoiceDate", "required_date")
	} else if _, ok := inv.IssueDate(); !ok {
		v.Add("invoiceDate", "invalid_date")
	}
	validation.Required("eventLocation", inv.EventLocation, "required_event_location", &v)

	c := inv.Client
	validation.Required("client.name", c.Name, "required_client_name", &v)
	validation.Required("client.address", c.Address, "required_client_address", &v)
	validation.Required("client.postalCode", c.PostalCode, "required_client_postal", &v)
	validation.Required("client.city", c.City, "required_client_city", &v)
	validation.Required("client.housingType", c.HousingType, "required_client_housing", &v)
	validation.Required("client.doorCode", c.DoorCode, "required_client_door_code", &v)
	validation.Required("client.phone", c.Phone, "required_client_phone", &v)
	validation.Required("client.email", c.Email, "required_client_email", &v)
	validation.Email("client.email", c.Email, "invalid_client_email", &v)

	if len(inv.Products) == 0 {
		v.Add("products", "required_products")
	}

	// numeric rules come after the fixed sequence above
	for i, p := range inv.Products {
		n := i + 1
		if p.Quantity < 0 {
			v.Add("products.quantity", "negative_quantity", n)
		}
		validation.NonNegative("products.discount", p.Discount, "negative_discount", &v, n)
		if p.DiscountType != models.DiscountFixed && !p.Discount.IsNegative() {
			validation.RangeDecimal("products.discount", p.Discount, decimal.Zero, hundred, "percent_discount_range", &v, n)
		}
	}
	validation.NonNegative("payment.depositAmount", inv.Payment.Deposit, "negative_deposit", &v)
	if inv.Payment.Deposit.GreaterThan(inv.TotalInclTax()) {
		v.Add("payment.depositAmount", "deposit_exceeds_total")
	}
	checkTaxRate(inv.TaxRate, &v)

	return ValidationResult{Valid: v.Empty(), Violations: v}
}

func checkTaxRate(rate decimal.Decimal, v *validation.Violations) {
	validation.RangeDecimal("taxRate", rate, decimal.Zero, hundred, "tax_rate_range", v)
}
