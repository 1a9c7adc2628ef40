// Package export writes the register of saved invoices as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the register.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var columns = []string{
	"register_col_number",
	"register_col_date",
	"register_col_client",
	"register_col_email",
	"register_col_city",
	"register_col_total",
	"register_col_deposit",
	"register_col_balance",
	"register_col_payment",
}

// Filename names a register produced on date (YYYY-MM-DD).
func Filename(date string) string {
	return fmt.Sprintf("registre_factures_%s.xlsx", date)
}

// WriteRegister writes one row per invoice plus a totals row, labelled in lang.
func WriteRegister(w io.Writer, invoices []models.Invoice, lang string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := i18n.T(lang, "register_sheet")
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	for i, code := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, i18n.T(lang, code)); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return err
	}

	var total, deposits, balance decimal.Decimal
	for i, inv := range invoices {
		row := i + 2
		values := []any{
			inv.InvoiceNumber,
			inv.InvoiceDate,
			inv.Client.Name,
			inv.Client.Email,
			inv.Client.City,
			inv.TotalInclTax().InexactFloat64(),
			inv.Payment.Deposit.InexactFloat64(),
			inv.BalanceDue().InexactFloat64(),
			inv.Payment.Method,
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		total = total.Add(inv.TotalInclTax())
		deposits = deposits.Add(inv.Payment.Deposit)
		balance = balance.Add(inv.BalanceDue())
	}

	sumRow := len(invoices) + 2
	sums := []any{i18n.T(lang, "register_total"), "", "", "", "",
		total.InexactFloat64(), deposits.InexactFloat64(), balance.InexactFloat64()}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", sumRow), &sums); err != nil {
		return fmt.Errorf("totals row: %w", err)
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", sumRow), fmt.Sprintf("I%d", sumRow), bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "F2", fmt.Sprintf("H%d", sumRow), money); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "I", 18); err != nil {
		return err
	}

	return f.Write(w)
}
