package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// ErrBadSignature is returned when the signature data URL cannot be decoded.
var ErrBadSignature = errors.New("invalid signature image")

// PDF renders A4 invoices with gofpdf.
type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

var columns = []struct {
	label string
	width float64
	align string
}{
	{"pdf_col_name", 52, "L"},
	{"pdf_col_category", 28, "L"},
	{"pdf_col_qty", 12, "C"},
	{"pdf_col_unit_ht", 22, "R"},
	{"pdf_col_unit_ttc", 22, "R"},
	{"pdf_col_discount", 18, "R"},
	{"pdf_col_total", 26, "R"},
}

type totalRow struct {
	label string
	value decimal.Decimal
	bold  bool
}

func (r *PDF) Render(ctx context.Context, s Surface, inv models.Invoice) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lang := s.Lang
	t := func(code string, args ...any) string { return i18n.Tf(lang, code, args...) }

	pdf := gofpdf.New("P", "mm", "A4", "")
	if !s.GeneratedAt.IsZero() {
		pdf.SetCreationDate(s.GeneratedAt)
	}
	pdf.SetTitle(t("pdf_number", inv.InvoiceNumber), true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// seller block, title on the right
	pdf.SetFont("Arial", "B", 12)
	top := pdf.GetY()
	for i, line := range s.Company.HeaderLines() {
		if i == 1 {
			pdf.SetFont("Arial", "", 9)
		}
		pdf.CellFormat(100, 5, tr(line), "", 1, "L", false, 0, "")
	}
	bottom := pdf.GetY()
	pdf.SetXY(115, top)
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(80, 9, tr(t("pdf_title")), "", 2, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(80, 5, tr(t("pdf_number", inv.InvoiceNumber)), "", 2, "R", false, 0, "")
	pdf.CellFormat(80, 5, tr(t("pdf_date", displayDate(inv))), "", 2, "R", false, 0, "")
	if pdf.GetY() > bottom {
		bottom = pdf.GetY()
	}
	pdf.SetXY(15, bottom+6)

	// client block
	c := inv.Client
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, tr(t("pdf_client")), "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range []string{
		c.Name,
		c.Address,
		strings.TrimSpace(c.PostalCode + " " + c.City),
		optional(t, "pdf_housing", c.HousingType),
		optional(t, "pdf_door_code", c.DoorCode),
		c.Phone,
		c.Email,
	} {
		if strings.TrimSpace(line) != "" {
			pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(2)
	for _, line := range []string{
		optional(t, "pdf_event_location", inv.EventLocation),
		optional(t, "pdf_advisor", inv.AdvisorName),
	} {
		if line != "" {
			pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)

	// line items
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for _, col := range columns {
		pdf.CellFormat(col.width, 7, tr(t(col.label)), "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, p := range inv.Products {
		cells := []string{
			p.Name,
			p.Category,
			strconv.Itoa(p.Quantity),
			models.FormatAmount(p.UnitPriceExclTax(inv.TaxRate)),
			models.FormatAmount(p.PriceTTC),
			discountLabel(p),
			models.FormatAmount(p.LineTotal()),
		}
		for i, col := range columns {
			pdf.CellFormat(col.width, 6, tr(cells[i]), "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)

	// totals
	totals := []totalRow{
		{t("pdf_subtotal"), inv.SubtotalExclTax(), false},
		{t("pdf_tax", inv.TaxRate.String()), inv.Tax(), false},
		{t("pdf_total"), inv.TotalInclTax(), true},
	}
	if !inv.Payment.Deposit.IsZero() {
		totals = append(totals,
			totalRow{t("pdf_deposit"), inv.Payment.Deposit, false},
			totalRow{t("pdf_balance"), inv.BalanceDue(), true},
		)
	}
	for _, row := range totals {
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.SetX(115)
		pdf.CellFormat(50, 6, tr(row.label), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(models.FormatAmount(row.value)), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// payment, delivery, notes
	pdf.SetFont("Arial", "", 9)
	for _, line := range []string{
		optional(t, "pdf_payment", inv.Payment.Method),
		optional(t, "pdf_delivery", joinNonEmpty(" - ", inv.Delivery.Method, inv.Delivery.Notes)),
	} {
		if line != "" {
			pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	if strings.TrimSpace(inv.Notes) != "" {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 5, tr(t("pdf_notes")), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
	}
	if inv.TermsAccepted {
		pdf.Ln(2)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 5, tr(t("pdf_terms")), "", 1, "L", false, 0, "")
	}

	if inv.Signed() {
		if err := drawSignature(pdf, inv.Signature, tr(t("pdf_signature"))); err != nil {
			return nil, err
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSignature(pdf *gofpdf.Fpdf, dataURL, label string) error {
	imgType, raw, err := decodeDataURL(dataURL)
	if err != nil {
		return err
	}
	opts := gofpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(raw))
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(0, 5, label, "", 1, "L", false, 0, "")
	pdf.ImageOptions("signature", 15, pdf.GetY()+1, 50, 0, true, opts, 0, "")
	return nil
}

// decodeDataURL accepts data:image/png;base64,... and data:image/jpeg;base64,...
func decodeDataURL(s string) (string, []byte, error) {
	s = strings.TrimSpace(s)
	meta, data, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return "", nil, ErrBadSignature
	}
	var imgType string
	switch strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64") {
	case "image/png":
		imgType = "PNG"
	case "image/jpeg", "image/jpg":
		imgType = "JPG"
	default:
		return "", nil, ErrBadSignature
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil || len(raw) == 0 {
		return "", nil, ErrBadSignature
	}
	return imgType, raw, nil
}

func discountLabel(p models.Product) string {
	if p.Discount.IsZero() {
		return ""
	}
	if p.DiscountType == models.DiscountFixed {
		return models.FormatAmount(p.Discount)
	}
	return p.Discount.String() + " %"
}

func displayDate(inv models.Invoice) string {
	if d, ok := inv.IssueDate(); ok {
		return d.Format("02/01/2006")
	}
	return inv.InvoiceDate
}

func optional(t func(string, ...any) string, code, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return t(code, value)
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
