package delivery

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/models"
	"go.uber.org/zap"
)

// EmailConfig holds the mail provider ids (EmailJS style).
type EmailConfig struct {
	ServiceID  string `json:"serviceId"`
	TemplateID string `json:"templateId"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey,omitempty"`
	Origin     string `json:"origin,omitempty"`
	// TestRecipient receives connectivity test messages.
	TestRecipient string `json:"testRecipient,omitempty"`
}

func (c EmailConfig) complete() bool {
	return strings.TrimSpace(c.ServiceID) != "" &&
		strings.TrimSpace(c.TemplateID) != "" &&
		strings.TrimSpace(c.PublicKey) != ""
}

// EmailParams are the template-bound parameters.
type EmailParams struct {
	ToEmail       string `json:"to_email"`
	ToName        string `json:"to_name"`
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	TotalAmount   string `json:"total_amount"`
	Message       string `json:"message"`
	PDFAttachment string `json:"pdf_attachment"`
	PDFFilename   string `json:"pdf_filename"`
}

type emailRequest struct {
	ServiceID      string      `json:"service_id"`
	TemplateID     string      `json:"template_id"`
	UserID         string      `json:"user_id"`
	AccessToken    string      `json:"accessToken,omitempty"`
	TemplateParams EmailParams `json:"template_params"`
}

// Email sends the invoice through a mail provider API.
type Email struct {
	*relay[EmailConfig]
	apiURL string
	now    func() time.Time
}

var _ Relay[EmailConfig] = (*Email)(nil)

func NewEmail(apiURL string, settings SettingsStore, client *http.Client, timeout time.Duration, lg *zap.Logger) *Email {
	return &Email{relay: newRelay[EmailConfig](ChannelEmail, settings, client, timeout, lg), apiURL: apiURL, now: time.Now}
}

func (e *Email) Deliver(ctx context.Context, a Artifact, inv models.Invoice) Outcome {
	lang := i18n.LangFrom(ctx)
	cfg := e.Config()
	if strings.TrimSpace(inv.Client.Email) == "" {
		return *e.misconfigured(lang, "missing_recipient")
	}
	return e.send(ctx, lang, cfg, a, inv, i18n.Tf(lang, "email_sent", inv.Client.Email))
}

// Test sends the same request shape with a synthetic invoice to the test recipient.
func (e *Email) Test(ctx context.Context) Outcome {
	lang := i18n.LangFrom(ctx)
	cfg := e.Config()
	inv, a := syntheticInvoice(e.now())
	if cfg.TestRecipient != "" {
		inv.Client.Email = cfg.TestRecipient
	}
	return e.send(ctx, lang, cfg, a, inv, i18n.T(lang, "email_test_ok"))
}

func (e *Email) send(ctx context.Context, lang string, cfg EmailConfig, a Artifact, inv models.Invoice, okMsg string) Outcome {
	if !cfg.complete() {
		return *e.misconfigured(lang, "not_configured")
	}
	total := models.FormatAmount(inv.TotalInclTax())
	req := emailRequest{
		ServiceID:   cfg.ServiceID,
		TemplateID:  cfg.TemplateID,
		UserID:      cfg.PublicKey,
		AccessToken: cfg.PrivateKey,
		TemplateParams: EmailParams{
			ToEmail:       inv.Client.Email,
			ToName:        inv.Client.Name,
			InvoiceNumber: inv.InvoiceNumber,
			InvoiceDate:   inv.InvoiceDate,
			TotalAmount:   total,
			Message:       i18n.Tf(lang, "email_message", inv.Client.Name, inv.InvoiceNumber, total),
			PDFAttachment: base64.StdEncoding.EncodeToString(a.PDF),
			PDFFilename:   a.Filename,
		},
	}
	if f := e.post(ctx, lang, e.apiURL, cfg.Origin, req); f != nil {
		return *f
	}
	return Success{Message: okMsg}
}
