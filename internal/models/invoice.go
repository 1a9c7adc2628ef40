package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how Product.Discount applies to the line.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// DateLayout is the calendar date format of Invoice.InvoiceDate.
const DateLayout = "2006-01-02"

// DefaultTaxRate is the VAT percentage applied to a fresh invoice.
var DefaultTaxRate = decimal.NewFromInt(20)

// Invoice is the document being edited. InvoiceNumber is assigned at creation and never changes.
type Invoice struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	InvoiceDate   string          `json:"invoiceDate"`
	EventLocation string          `json:"eventLocation"`
	AdvisorName   string          `json:"advisorName"`
	Notes         string          `json:"notes"`
	TermsAccepted bool            `json:"termsAccepted"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	Client        Client          `json:"client"`
	Delivery      Delivery        `json:"delivery"`
	Payment       Payment         `json:"payment"`
	Products      []Product       `json:"products"`
	// Signature is an image data URL; presence means the invoice is signed.
	Signature string `json:"signature,omitempty"`
}

// Client is copied by value into an invoice; the address book keeps its own copy.
type Client struct {
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	PostalCode  string     `json:"postalCode"`
	City        string     `json:"city"`
	HousingType string     `json:"housingType"`
	DoorCode    string     `json:"doorCode"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	ID          string     `json:"id,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// Product is an invoice line.
type Product struct {
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Quantity        int             `json:"quantity"`
	PriceHT         decimal.Decimal `json:"priceHT"`
	PriceTTC        decimal.Decimal `json:"priceTTC"`
	Discount        decimal.Decimal `json:"discount"`
	DiscountType    DiscountType    `json:"discountType"`
	AutoCalculateHT bool            `json:"autoCalculateHT"`
}

type Delivery struct {
	Method string `json:"method"`
	Notes  string `json:"notes"`
}

type Payment struct {
	Method  string          `json:"method"`
	Deposit decimal.Decimal `json:"depositAmount"`
}

// New returns an empty invoice carrying number, dated today.
func New(number string, today time.Time) Invoice {
	return Invoice{
		InvoiceNumber: number,
		InvoiceDate:   today.Format(DateLayout),
		TaxRate:       DefaultTaxRate,
		Products:      []Product{},
	}
}

// Clone returns a copy that shares no slices or pointers with inv.
func (inv Invoice) Clone() Invoice {
	out := inv
	if inv.Products != nil {
		out.Products = make([]Product, len(inv.Products))
		copy(out.Products, inv.Products)
	}
	if inv.Client.CreatedAt != nil {
		t := *inv.Client.CreatedAt
		out.Client.CreatedAt = &t
	}
	return out
}

// Signed reports whether a signature is attached.
func (inv Invoice) Signed() bool { return strings.TrimSpace(inv.Signature) != "" }

// IssueDate parses InvoiceDate.
func (inv Invoice) IssueDate() (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(inv.InvoiceDate))
	return t, err == nil
}

// TotalInclTax sums every line total.
func (inv Invoice) TotalInclTax() decimal.Decimal {
	total := decimal.Zero
	for _, p := range inv.Products {
		total = total.Add(p.LineTotal())
	}
	return total
}

// SubtotalExclTax derives the pre-tax amount from the tax-inclusive total.
func (inv Invoice) SubtotalExclTax() decimal.Decimal {
	return ExclTax(inv.TotalInclTax(), inv.TaxRate)
}

// Tax is the VAT part of the total.
func (inv Invoice) Tax() decimal.Decimal {
	return inv.TotalInclTax().Sub(inv.SubtotalExclTax())
}

// BalanceDue is what remains after the deposit.
func (inv Invoice) BalanceDue() decimal.Decimal {
	return inv.TotalInclTax().Sub(inv.Payment.Deposit)
}

// LineTotal is the tax-inclusive amount of the line after discount.
func (p Product) LineTotal() decimal.Decimal {
	return LineTotal(p.Quantity, p.PriceTTC, p.Discount, p.DiscountType)
}

// UnitPriceExclTax returns PriceHT, or derives it from PriceTTC when AutoCalculateHT is set.
func (p Product) UnitPriceExclTax(rate decimal.Decimal) decimal.Decimal {
	if p.AutoCalculateHT {
		return ExclTax(p.PriceTTC, rate)
	}
	return p.PriceHT
}

// Key is the address book identity: normalized email and name.
func (c Client) Key() string {
	return ClientKey(c.Email, c.Name)
}

// ClientKey builds the address book key from an email and a name.
func ClientKey(email, name string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + strings.ToLower(strings.TrimSpace(name))
}

// Bookable reports whether the client has enough identity to enter the address book.
func (c Client) Bookable() bool {
	return strings.TrimSpace(c.Name) != "" && strings.TrimSpace(c.Email) != ""
}
