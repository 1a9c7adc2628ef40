package server

import (
	"net/http"
	"time"

	"github.com/diewo77/invoice-relay/httpx"
	"github.com/diewo77/invoice-relay/internal/delivery"
	"github.com/diewo77/invoice-relay/internal/handlers"
	"github.com/diewo77/invoice-relay/internal/middleware"
	"github.com/diewo77/invoice-relay/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are what the router needs from the application.
type Deps struct {
	DB      *gorm.DB
	Service *services.InvoiceService
	Webhook delivery.Relay[delivery.WebhookConfig]
	Email   delivery.Relay[delivery.EmailConfig]
	Log     *zap.Logger
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(d Deps) http.Handler {
	lg := d.Log
	if lg == nil {
		lg = zap.NewNop()
	}
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if d.DB == nil || d.DB.Exec("SELECT 1").Error != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handlers.NewInvoiceHandler(d.Service, lg).Register(mux)
	handlers.NewSavedHandler(d.Service, lg).Register(mux)
	if d.Webhook != nil {
		handlers.NewWebhookSettings(d.Webhook, lg).Register(mux)
	}
	if d.Email != nil {
		handlers.NewEmailSettings(d.Email, lg).Register(mux)
	}

	return middleware.Prefs(withRecover(lg, withLogging(lg, mux)))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withLogging(lg *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		lg.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func withRecover(lg *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				lg.Error("panic", zap.Any("recover", rec), zap.String("path", r.URL.Path), zap.Stack("stack"))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
