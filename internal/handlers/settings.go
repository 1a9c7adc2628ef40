package handlers

import (
	"net/http"

	"github.com/diewo77/invoice-relay/httpx"
	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/delivery"
	"github.com/diewo77/invoice-relay/internal/middleware"
	"go.uber.org/zap"
)

// SettingsHandler reads, replaces and tests the configuration of one relay.
type SettingsHandler[C any] struct {
	relay delivery.Relay[C]
	log   *zap.Logger
	// redact hides secrets before a configuration leaves the server.
	redact func(C) C
	// merge keeps secrets the caller did not send back.
	merge func(prev, next C) C
}

func NewWebhookSettings(r delivery.Relay[delivery.WebhookConfig], lg *zap.Logger) *SettingsHandler[delivery.WebhookConfig] {
	return &SettingsHandler[delivery.WebhookConfig]{relay: r, log: lg}
}

func NewEmailSettings(r delivery.Relay[delivery.EmailConfig], lg *zap.Logger) *SettingsHandler[delivery.EmailConfig] {
	return &SettingsHandler[delivery.EmailConfig]{
		relay: r,
		log:   lg,
		redact: func(c delivery.EmailConfig) delivery.EmailConfig {
			c.PrivateKey = ""
			return c
		},
		merge: func(prev, next delivery.EmailConfig) delivery.EmailConfig {
			if next.PrivateKey == "" {
				next.PrivateKey = prev.PrivateKey
			}
			return next
		},
	}
}

func (h *SettingsHandler[C]) Register(mux *http.ServeMux) {
	base := "/api/settings/" + h.relay.Name()
	mux.HandleFunc("GET "+base, h.Get)
	mux.HandleFunc("PUT "+base, h.Put)
	mux.HandleFunc("POST "+base+"/test", h.Test)
}

func (h *SettingsHandler[C]) view(c C) C {
	if h.redact != nil {
		return h.redact(c)
	}
	return c
}

func (h *SettingsHandler[C]) Get(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.view(h.relay.Config()))
}

func (h *SettingsHandler[C]) Put(w http.ResponseWriter, r *http.Request) {
	var next C
	if !decodeJSON(w, r, &next) {
		return
	}
	if h.merge != nil {
		next = h.merge(h.relay.Config(), next)
	}
	if err := h.relay.UpdateConfig(r.Context(), next); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": i18n.T(middleware.LangFrom(r), "settings_saved"),
		"config":  h.view(next),
	})
}

// Test sends a synthetic request through the relay with the saved configuration.
func (h *SettingsHandler[C]) Test(w http.ResponseWriter, r *http.Request) {
	out := h.relay.Test(r.Context())
	if f, failed := delivery.AsFailure(out); failed {
		h.log.Info("connection test failed", zap.String("channel", h.relay.Name()), zap.String("kind", string(f.Kind)))
		httpx.JSONMessage(w, http.StatusBadGateway, string(f.Kind), f.Message,
			map[string]any{"channel": h.relay.Name(), "status": f.Status})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "message": out.Summary()})
}
