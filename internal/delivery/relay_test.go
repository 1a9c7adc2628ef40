package delivery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type memSettings struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemSettings() *memSettings { return &memSettings{data: map[string][]byte{}} }

func (m *memSettings) LoadSetting(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m *memSettings) SaveSetting(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = b
	m.mu.Unlock()
	return nil
}

func enCtx() context.Context { return i18n.WithLang(context.Background(), "en") }

func testInvoice() (models.Invoice, Artifact) {
	inv := models.New("000042", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	inv.Client = models.Client{Name: "Jane Doe", Email: "jane@example.com", City: "Lyon"}
	inv.Products = []models.Product{{Name: "Matelas", Quantity: 2, PriceTTC: decimal.NewFromInt(50), Discount: decimal.NewFromInt(10), DiscountType: models.DiscountPercent}}
	inv.Payment.Deposit = decimal.NewFromInt(40)
	return inv, Artifact{Filename: "facture_000042_Jane_Doe.pdf", PDF: []byte("%PDF-1.4 body")}
}

func newTestWebhook(t *testing.T, url string, timeout time.Duration) *Webhook {
	t.Helper()
	w := NewWebhook(newMemSettings(), nil, timeout, zap.NewNop())
	if err := w.UpdateConfig(context.Background(), WebhookConfig{URL: url, FolderID: "folder-1"}); err != nil {
		t.Fatalf("update config: %v", err)
	}
	return w
}

func TestWebhookDeliverSuccess(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("payload is not JSON: %v", err)
		}
		// success bodies may be plain text
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	wh := newTestWebhook(t, srv.URL, time.Second)
	inv, a := testInvoice()
	out := wh.Deliver(enCtx(), a, inv)
	s, ok := out.(Success)
	if !ok {
		t.Fatalf("expected success, got %#v", out)
	}
	if s.Message != "Invoice 000042 sent to document storage" {
		t.Fatalf("message %q", s.Message)
	}
	if got["invoiceNumber"] != "000042" || got["dossier_id"] != "folder-1" || got["nom_fichier"] != a.Filename {
		t.Fatalf("unexpected payload %v", got)
	}
	if got["totalAmount"] != "90.00" || got["remainingAmount"] != "50.00" {
		t.Fatalf("unexpected amounts %v / %v", got["totalAmount"], got["remainingAmount"])
	}
	raw, err := base64.StdEncoding.DecodeString(got["fichier_facture"].(string))
	if err != nil || string(raw) != string(a.PDF) {
		t.Fatalf("artifact not carried: %q err=%v", raw, err)
	}
	if _, isTest := got["test"]; isTest {
		t.Fatalf("real delivery must not carry the test flag")
	}
}

func TestWebhookStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{http.StatusBadRequest, KindHTTPStatus},
		{http.StatusUnauthorized, KindUnauthenticated},
		{http.StatusForbidden, KindHTTPStatus},
		{http.StatusNotFound, KindHTTPStatus},
		{http.StatusInternalServerError, KindHTTPStatus},
		{http.StatusTeapot, KindHTTPStatus},
	}
	seen := map[string]int{}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		wh := newTestWebhook(t, srv.URL, time.Second)
		inv, a := testInvoice()
		f, ok := AsFailure(wh.Deliver(enCtx(), a, inv))
		srv.Close()
		if !ok {
			t.Fatalf("status %d: expected failure", tt.status)
		}
		if f.Kind != tt.kind || f.Status != tt.status {
			t.Errorf("status %d: got kind %s status %d", tt.status, f.Kind, f.Status)
		}
		if prev, dup := seen[f.Message]; dup {
			t.Errorf("status %d shares its message with %d", tt.status, prev)
		}
		seen[f.Message] = tt.status
	}
}

func TestWebhookTimeoutDiffersFrom404(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()

	inv, a := testInvoice()
	timeout, ok := AsFailure(newTestWebhook(t, slow.URL, 50*time.Millisecond).Deliver(enCtx(), a, inv))
	if !ok || timeout.Kind != KindTimeout {
		t.Fatalf("expected timeout failure, got %#v", timeout)
	}
	notFound, ok := AsFailure(newTestWebhook(t, missing.URL, time.Second).Deliver(enCtx(), a, inv))
	if !ok || notFound.Status != http.StatusNotFound {
		t.Fatalf("expected 404 failure, got %#v", notFound)
	}
	if timeout.Message == notFound.Message {
		t.Fatalf("timeout and 404 share message %q", timeout.Message)
	}
}

func TestWebhookNetworkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	inv, a := testInvoice()
	f, ok := AsFailure(newTestWebhook(t, url, time.Second).Deliver(enCtx(), a, inv))
	if !ok || f.Kind != KindNetworkUnreachable {
		t.Fatalf("expected network failure, got %#v", f)
	}
}

func TestWebhookCORS(t *testing.T) {
	allow := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Origin") != "https://app.example" {
			t.Errorf("origin header %q", r.Header.Get("Origin"))
		}
		if allow != "" {
			w.Header().Set("Access-Control-Allow-Origin", allow)
		}
	}))
	defer srv.Close()

	wh := NewWebhook(newMemSettings(), nil, time.Second, zap.NewNop())
	_ = wh.UpdateConfig(context.Background(), WebhookConfig{URL: srv.URL, Origin: "https://app.example"})
	inv, a := testInvoice()

	f, ok := AsFailure(wh.Deliver(enCtx(), a, inv))
	if !ok || f.Kind != KindCORSRejected {
		t.Fatalf("expected CORS rejection, got %#v", f)
	}
	for _, allow = range []string{"https://app.example", "*"} {
		if _, ok := wh.Deliver(enCtx(), a, inv).(Success); !ok {
			t.Fatalf("allow=%q: expected success", allow)
		}
	}
}

func TestWebhookMisconfigured(t *testing.T) {
	inv, a := testInvoice()
	for _, url := range []string{"", "ftp://example.com/hook", "not a url"} {
		f, ok := AsFailure(newTestWebhook(t, url, time.Second).Deliver(enCtx(), a, inv))
		if !ok || f.Kind != KindMisconfigured {
			t.Errorf("url %q: expected misconfigured, got %#v", url, f)
		}
	}
}

func TestWebhookTestUsesSameShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	out := newTestWebhook(t, srv.URL, time.Second).Test(enCtx())
	if out.Summary() != "Webhook connection succeeded" {
		t.Fatalf("unexpected outcome %#v", out)
	}
	for _, k := range []string{"invoiceNumber", "clientName", "clientEmail", "totalAmount", "fichier_facture", "dossier_id"} {
		if _, ok := got[k]; !ok {
			t.Errorf("test payload misses %q", k)
		}
	}
	if got["test"] != true {
		t.Fatalf("test payload must carry the test flag")
	}
}

func TestRelayConfigPersistence(t *testing.T) {
	settings := newMemSettings()
	ctx := context.Background()
	first := NewWebhook(settings, nil, 0, zap.NewNop())
	if err := first.UpdateConfig(ctx, WebhookConfig{URL: "https://relay.example/exec", FolderID: "abc"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	second := NewWebhook(settings, nil, 0, zap.NewNop())
	if err := second.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := second.Config(); got.URL != "https://relay.example/exec" || got.FolderID != "abc" {
		t.Fatalf("config not restored: %+v", got)
	}
	if second.timeout != DefaultTimeout {
		t.Fatalf("default timeout = %s", second.timeout)
	}
}

func TestEmailDeliver(t *testing.T) {
	var got emailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	e := NewEmail(srv.URL, newMemSettings(), nil, time.Second, zap.NewNop())
	_ = e.UpdateConfig(context.Background(), EmailConfig{ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub", PrivateKey: "priv"})
	inv, a := testInvoice()

	out := e.Deliver(enCtx(), a, inv)
	if out.Summary() != "Invoice emailed to jane@example.com" {
		t.Fatalf("unexpected outcome %#v", out)
	}
	if got.ServiceID != "svc" || got.TemplateID != "tpl" || got.UserID != "pub" || got.AccessToken != "priv" {
		t.Fatalf("unexpected ids %+v", got)
	}
	p := got.TemplateParams
	if p.ToEmail != "jane@example.com" || p.ToName != "Jane Doe" || p.InvoiceNumber != "000042" || p.TotalAmount != "90.00 €" {
		t.Fatalf("unexpected params %+v", p)
	}
	if p.PDFFilename != a.Filename || p.PDFAttachment != base64.StdEncoding.EncodeToString(a.PDF) {
		t.Fatalf("attachment not carried")
	}
}

func TestEmailMisconfiguredNeverCalls(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls.Add(1) }))
	defer srv.Close()

	e := NewEmail(srv.URL, newMemSettings(), nil, time.Second, zap.NewNop())
	inv, a := testInvoice()
	if f, ok := AsFailure(e.Deliver(enCtx(), a, inv)); !ok || f.Kind != KindMisconfigured {
		t.Fatalf("expected misconfigured, got %#v", f)
	}
	_ = e.UpdateConfig(context.Background(), EmailConfig{ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub"})
	inv.Client.Email = ""
	if f, ok := AsFailure(e.Deliver(enCtx(), a, inv)); !ok || f.Message != "No recipient: fill in the client email" {
		t.Fatalf("expected missing recipient, got %#v", f)
	}
	if calls.Load() != 0 {
		t.Fatalf("provider called %d times", calls.Load())
	}
}

func TestEmailForbiddenMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	e := NewEmail(srv.URL, newMemSettings(), nil, time.Second, zap.NewNop())
	_ = e.UpdateConfig(context.Background(), EmailConfig{ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub", TestRecipient: "me@example.com"})
	f, ok := AsFailure(e.Test(enCtx()))
	if !ok || f.Kind != KindHTTPStatus || f.Status != http.StatusForbidden {
		t.Fatalf("expected 403 failure, got %#v", f)
	}
	if f.Message != i18n.T("en", "email_http_403") {
		t.Fatalf("message %q", f.Message)
	}
}
