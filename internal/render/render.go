// Package render turns an invoice into PDF bytes.
package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/diewo77/invoice-relay/internal/models"
)

// Surface is the page context an invoice is drawn on: who sells, in which language, when.
type Surface struct {
	Company     models.Company
	Lang        string
	GeneratedAt time.Time
}

// NewSurface composes the surface used for both preview and delivery.
func NewSurface(company models.Company, lang string, now time.Time) Surface {
	return Surface{Company: company, Lang: lang, GeneratedAt: now}
}

// Renderer produces the PDF artifact. Implementations must not keep partial output on error.
type Renderer interface {
	Render(ctx context.Context, s Surface, inv models.Invoice) ([]byte, error)
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Filename derives the artifact name from the invoice number and client name,
// collapsing every run of non-alphanumeric characters to one underscore.
func Filename(inv models.Invoice) string {
	number := strings.Trim(nonAlnum.ReplaceAllString(inv.InvoiceNumber, "_"), "_")
	client := strings.Trim(nonAlnum.ReplaceAllString(inv.Client.Name, "_"), "_")
	if client == "" {
		return fmt.Sprintf("facture_%s.pdf", number)
	}
	return fmt.Sprintf("facture_%s_%s.pdf", number, client)
}
