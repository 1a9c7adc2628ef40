package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/invoice-relay/internal/delivery"
	"github.com/diewo77/invoice-relay/internal/middleware"
	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/diewo77/invoice-relay/internal/render"
	"github.com/diewo77/invoice-relay/internal/services"
	"github.com/diewo77/invoice-relay/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testApp struct {
	handler http.Handler
	svc     *services.InvoiceService
	webhook *delivery.Webhook
	email   *delivery.Email
	dir     string
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := store.NewGorm(db)
	lg := zap.NewNop()
	app := &testApp{
		dir:     t.TempDir(),
		webhook: delivery.NewWebhook(st, nil, 2*time.Second, lg),
		email:   delivery.NewEmail("", st, nil, 2*time.Second, lg),
	}
	app.svc = services.NewInvoiceService(services.Deps{
		Drafts: st, Invoices: st, Clients: st,
		Renderer: render.NewPDF(),
		Channels: []delivery.Channel{delivery.NewLocal(app.dir, lg), app.webhook, app.email},
		Company:  models.Company{Name: "Literie Dupont"},
		Log:      lg,
	})
	if err := app.svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	mux := http.NewServeMux()
	NewInvoiceHandler(app.svc, lg).Register(mux)
	NewSavedHandler(app.svc, lg).Register(mux)
	NewWebhookSettings(app.webhook, lg).Register(mux)
	NewEmailSettings(app.email, lg).Register(mux)
	app.handler = middleware.Prefs(mux)
	return app
}

func (a *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en")
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return m
}

func completeInvoice() models.Invoice {
	inv := models.New("", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	inv.EventLocation = "Salon de Lyon"
	inv.Client = models.Client{
		Name: "Jane Doe", Address: "1 rue de la Paix", PostalCode: "69001", City: "Lyon",
		HousingType: "Appartement", DoorCode: "B12", Phone: "0600000000", Email: "jane@example.com",
	}
	inv.Products = []models.Product{{
		Name: "Matelas", Quantity: 2, PriceTTC: decimal.NewFromInt(50),
		Discount: decimal.NewFromInt(10), DiscountType: models.DiscountPercent,
	}}
	inv.Payment.Deposit = decimal.NewFromInt(40)
	return inv
}

func TestPutAndGetInvoice(t *testing.T) {
	app := setupApp(t)
	if w := app.do(t, http.MethodPut, "/api/invoice", completeInvoice()); w.Code != http.StatusOK {
		t.Fatalf("put: %d %s", w.Code, w.Body.String())
	}
	w := app.do(t, http.MethodGet, "/api/invoice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["invoiceNumber"] != "000001" {
		t.Fatalf("number %v", body["invoiceNumber"])
	}
	tot := body["totals"].(map[string]any)
	if tot["totalInclTax"] != "90.00" || tot["balanceDue"] != "50.00" || tot["tax"] != "15.00" {
		t.Fatalf("totals %v", tot)
	}
}

func TestPutRejectsBadJSON(t *testing.T) {
	app := setupApp(t)
	req := httptest.NewRequest(http.MethodPut, "/api/invoice", strings.NewReader("{"))
	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestDownloadIncompleteInvoice(t *testing.T) {
	app := setupApp(t)
	inv := completeInvoice()
	inv.Products = nil
	app.do(t, http.MethodPut, "/api/invoice", inv)

	w := app.do(t, http.MethodPost, "/api/invoice/download", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["error"] != "validation_failed" || !strings.Contains(body["message"].(string), "At least one product") {
		t.Fatalf("body %v", body)
	}
}

func TestDownloadReturnsPDF(t *testing.T) {
	app := setupApp(t)
	app.do(t, http.MethodPut, "/api/invoice", completeInvoice())
	w := app.do(t, http.MethodPost, "/api/invoice/download", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download: %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="facture_000001_Jane_Doe.pdf"` {
		t.Fatalf("disposition %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("not a pdf")
	}

	list := decodeBody(t, app.do(t, http.MethodGet, "/api/invoices", nil))
	if list["total"].(float64) != 1 {
		t.Fatalf("saved list %v", list)
	}
}

func TestPreviewIsInline(t *testing.T) {
	app := setupApp(t)
	app.do(t, http.MethodPut, "/api/invoice", completeInvoice())
	w := app.do(t, http.MethodPost, "/api/invoice/preview", nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Disposition"), "inline;") {
		t.Fatalf("preview: %d %q", w.Code, w.Header().Get("Content-Disposition"))
	}
}

func TestSendWebhook(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	app := setupApp(t)
	if w := app.do(t, http.MethodPut, "/api/settings/webhook", delivery.WebhookConfig{URL: srv.URL, FolderID: "f1"}); w.Code != http.StatusOK {
		t.Fatalf("settings: %d %s", w.Code, w.Body.String())
	}
	app.do(t, http.MethodPut, "/api/invoice", completeInvoice())

	w := app.do(t, http.MethodPost, "/api/invoice/send", map[string]string{"channel": "webhook"})
	if w.Code != http.StatusOK {
		t.Fatalf("send: %d %s", w.Code, w.Body.String())
	}
	if msg := decodeBody(t, w)["message"]; msg != "Invoice 000001 sent to document storage" {
		t.Fatalf("message %v", msg)
	}

	status = http.StatusNotFound
	w = app.do(t, http.MethodPost, "/api/invoice/send", map[string]string{"channel": "webhook"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "http_status" || body["details"].(map[string]any)["status"].(float64) != 404 {
		t.Fatalf("body %v", body)
	}
}

func TestSendUnknownChannel(t *testing.T) {
	app := setupApp(t)
	app.do(t, http.MethodPut, "/api/invoice", completeInvoice())
	w := app.do(t, http.MethodPost, "/api/invoice/send", map[string]string{"channel": "fax"})
	if w.Code != http.StatusBadRequest || decodeBody(t, w)["message"] != "Unknown delivery channel: fax" {
		t.Fatalf("unexpected %d %s", w.Code, w.Body.String())
	}
}

func TestSendRefusesLocalChannel(t *testing.T) {
	app := setupApp(t)
	app.do(t, http.MethodPut, "/api/invoice", completeInvoice())
	w := app.do(t, http.MethodPost, "/api/invoice/send", map[string]string{"channel": "local"})
	if w.Code != http.StatusBadRequest || decodeBody(t, w)["message"] != "Unknown delivery channel: local" {
		t.Fatalf("unexpected %d %s", w.Code, w.Body.String())
	}
}

func TestPutRejectsTaxRateOutOfRange(t *testing.T) {
	app := setupApp(t)
	inv := completeInvoice()
	inv.TaxRate = decimal.NewFromInt(-100)
	w := app.do(t, http.MethodPut, "/api/invoice", inv)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("put: %d %s", w.Code, w.Body.String())
	}
	fields, _ := decodeBody(t, w)["fields"].([]any)
	if len(fields) != 1 || fields[0] != "taxRate" {
		t.Fatalf("fields %v", fields)
	}

	w = app.do(t, http.MethodGet, "/api/invoice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get after rejected put: %d", w.Code)
	}
	if got := decodeBody(t, w)["taxRate"]; got != "20" {
		t.Fatalf("tax rate changed to %v", got)
	}
	if w := app.do(t, http.MethodPost, "/api/invoice/download", nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("download of untouched draft: %d", w.Code)
	}
}

func TestNewInvoiceRequiresConfirmation(t *testing.T) {
	app := setupApp(t)
	if w := app.do(t, http.MethodPost, "/api/invoice/new", nil); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", w.Code)
	}
	w := app.do(t, http.MethodPost, "/api/invoice/new", map[string]bool{"confirm": true})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d %s", w.Code, w.Body.String())
	}
	if inv := decodeBody(t, w)["invoice"].(map[string]any); inv["invoiceNumber"] != "000002" {
		t.Fatalf("number %v", inv["invoiceNumber"])
	}
}

func TestOpenMissingInvoice(t *testing.T) {
	app := setupApp(t)
	if w := app.do(t, http.MethodPost, "/api/invoice/open/000404", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestClientsEndpoints(t *testing.T) {
	app := setupApp(t)
	if w := app.do(t, http.MethodPost, "/api/clients", models.Client{Name: "Bob"}); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", w.Code)
	}
	w := app.do(t, http.MethodPost, "/api/clients", models.Client{Name: "Bob", Email: "bob@example.com", City: "Paris"})
	if w.Code != http.StatusOK || decodeBody(t, w)["id"] == "" {
		t.Fatalf("save: %d %s", w.Code, w.Body.String())
	}
	list := decodeBody(t, app.do(t, http.MethodGet, "/api/clients?q=paris", nil))
	if list["total"].(float64) != 1 {
		t.Fatalf("search %v", list)
	}
	if w := app.do(t, http.MethodDelete, "/api/clients?email=BOB@example.com&name=bob", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if w := app.do(t, http.MethodDelete, "/api/clients?email=bob@example.com&name=Bob", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
}

func TestEmailSettingsHidePrivateKey(t *testing.T) {
	app := setupApp(t)
	cfg := delivery.EmailConfig{ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub", PrivateKey: "secret"}
	if w := app.do(t, http.MethodPut, "/api/settings/email", cfg); w.Code != http.StatusOK {
		t.Fatalf("put: %d", w.Code)
	}
	if got := decodeBody(t, app.do(t, http.MethodGet, "/api/settings/email", nil)); got["privateKey"] != nil || got["serviceId"] != "svc" {
		t.Fatalf("get %v", got)
	}
	cfg.PrivateKey = ""
	cfg.TemplateID = "tpl2"
	app.do(t, http.MethodPut, "/api/settings/email", cfg)
	if c := app.email.Config(); c.PrivateKey != "secret" || c.TemplateID != "tpl2" {
		t.Fatalf("private key lost: %+v", c)
	}
}

func TestWebhookSettingsTest(t *testing.T) {
	app := setupApp(t)
	w := app.do(t, http.MethodPost, "/api/settings/webhook/test", nil)
	if w.Code != http.StatusBadGateway || decodeBody(t, w)["error"] != "misconfigured" {
		t.Fatalf("unconfigured test: %d %s", w.Code, w.Body.String())
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	app.do(t, http.MethodPut, "/api/settings/webhook", delivery.WebhookConfig{URL: srv.URL})
	w = app.do(t, http.MethodPost, "/api/settings/webhook/test", nil)
	if w.Code != http.StatusOK || decodeBody(t, w)["message"] != "Webhook connection succeeded" {
		t.Fatalf("test: %d %s", w.Code, w.Body.String())
	}
}

func TestExportRegister(t *testing.T) {
	app := setupApp(t)
	app.do(t, http.MethodPut, "/api/invoice", completeInvoice())
	app.do(t, http.MethodPost, "/api/invoice/save", nil)
	w := app.do(t, http.MethodGet, "/api/invoices/register.xlsx", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("export: %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("not a zip container")
	}
}
