package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/diewo77/invoice-relay/internal/config"
	"github.com/diewo77/invoice-relay/internal/delivery"
	"github.com/diewo77/invoice-relay/internal/models"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(dir, "invoices.db")},
		Redis:    config.RedisConfig{Addr: "127.0.0.1:1"},
		App: config.AppConfig{
			OutputDir:      filepath.Join(dir, "factures"),
			PrintCommand:   "lp",
			DefaultTaxRate: models.DefaultTaxRate,
		},
		Relay: config.RelayConfig{Timeout: time.Second, EmailAPIURL: config.DefaultEmailAPIURL},
	}
}

func TestNewWiresEverything(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	app, err := New(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer app.Close()

	if app.Redis != nil {
		t.Fatalf("unreachable redis should fall back to the database")
	}
	if got := app.Service.Current().InvoiceNumber; got != "000001" {
		t.Fatalf("first number %q", got)
	}
	for _, name := range []string{delivery.ChannelLocal, delivery.ChannelPrint, delivery.ChannelWebhook, delivery.ChannelEmail} {
		if _, ok := app.Service.Channel(name); !ok {
			t.Fatalf("channel %s not registered", name)
		}
	}

	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz %d", w.Code)
	}
}

func TestRelaySettingsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	app, err := New(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := app.Webhook.UpdateConfig(ctx, delivery.WebhookConfig{URL: "https://hooks.example.com/x", FolderID: "f"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	_ = app.Close()

	again, err := New(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if got := again.Webhook.Config().URL; got != "https://hooks.example.com/x" {
		t.Fatalf("webhook url not restored: %q", got)
	}
}
