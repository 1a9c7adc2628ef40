package delivery

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/models"
	"go.uber.org/zap"
)

// WebhookConfig points at the document storage relay.
type WebhookConfig struct {
	URL      string `json:"url"`
	FolderID string `json:"folderId"`
	// Origin is sent as the Origin header; the response must allow it.
	Origin string `json:"origin,omitempty"`
}

// WebhookPayload is the JSON body posted to the relay.
type WebhookPayload struct {
	InvoiceNumber    string `json:"invoiceNumber"`
	InvoiceDate      string `json:"invoiceDate"`
	ClientName       string `json:"clientName"`
	ClientEmail      string `json:"clientEmail"`
	ClientPhone      string `json:"clientPhone"`
	ClientAddress    string `json:"clientAddress"`
	ClientCity       string `json:"clientCity"`
	ClientPostalCode string `json:"clientPostalCode"`
	AdvisorName      string `json:"advisorName"`
	EventLocation    string `json:"eventLocation"`
	TotalAmount      string `json:"totalAmount"`
	DepositAmount    string `json:"depositAmount"`
	RemainingAmount  string `json:"remainingAmount"`
	PaymentMethod    string `json:"paymentMethod"`
	DeliveryMethod   string `json:"deliveryMethod"`
	ProductsCount    int    `json:"productsCount"`
	File             string `json:"fichier_facture"`
	Filename         string `json:"nom_fichier"`
	FolderID         string `json:"dossier_id"`
	Timestamp        string `json:"timestamp"`
	Test             bool   `json:"test,omitempty"`
}

// Webhook posts the invoice and its PDF to a storage relay.
type Webhook struct {
	*relay[WebhookConfig]
	now func() time.Time
}

var _ Relay[WebhookConfig] = (*Webhook)(nil)

func NewWebhook(settings SettingsStore, client *http.Client, timeout time.Duration, lg *zap.Logger) *Webhook {
	return &Webhook{relay: newRelay[WebhookConfig](ChannelWebhook, settings, client, timeout, lg), now: time.Now}
}

func (w *Webhook) Deliver(ctx context.Context, a Artifact, inv models.Invoice) Outcome {
	lang := i18n.LangFrom(ctx)
	cfg := w.Config()
	if f := w.post(ctx, lang, cfg.URL, cfg.Origin, w.payload(cfg, a, inv)); f != nil {
		return *f
	}
	return Success{Message: i18n.Tf(lang, "webhook_sent", inv.InvoiceNumber)}
}

// Test sends the same request shape with a synthetic invoice and a tiny document.
func (w *Webhook) Test(ctx context.Context) Outcome {
	lang := i18n.LangFrom(ctx)
	cfg := w.Config()
	inv, a := syntheticInvoice(w.now())
	p := w.payload(cfg, a, inv)
	p.Test = true
	if f := w.post(ctx, lang, cfg.URL, cfg.Origin, p); f != nil {
		return *f
	}
	return Success{Message: i18n.T(lang, "webhook_test_ok")}
}

func (w *Webhook) payload(cfg WebhookConfig, a Artifact, inv models.Invoice) WebhookPayload {
	return WebhookPayload{
		InvoiceNumber:    inv.InvoiceNumber,
		InvoiceDate:      inv.InvoiceDate,
		ClientName:       inv.Client.Name,
		ClientEmail:      inv.Client.Email,
		ClientPhone:      inv.Client.Phone,
		ClientAddress:    inv.Client.Address,
		ClientCity:       inv.Client.City,
		ClientPostalCode: inv.Client.PostalCode,
		AdvisorName:      inv.AdvisorName,
		EventLocation:    inv.EventLocation,
		TotalAmount:      inv.TotalInclTax().StringFixed(2),
		DepositAmount:    inv.Payment.Deposit.StringFixed(2),
		RemainingAmount:  inv.BalanceDue().StringFixed(2),
		PaymentMethod:    inv.Payment.Method,
		DeliveryMethod:   inv.Delivery.Method,
		ProductsCount:    len(inv.Products),
		File:             base64.StdEncoding.EncodeToString(a.PDF),
		Filename:         a.Filename,
		FolderID:         cfg.FolderID,
		Timestamp:        w.now().UTC().Format(time.RFC3339),
	}
}

// syntheticInvoice is the minimal payload used by connectivity tests.
func syntheticInvoice(now time.Time) (models.Invoice, Artifact) {
	inv := models.New("TEST", now)
	inv.Client = models.Client{Name: "Test", Email: "test@example.com"}
	return inv, Artifact{Filename: "facture_TEST.pdf", PDF: []byte("%PDF-1.4\n%test\n%%EOF\n")}
}
