package handlers

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/invoice-relay/httpx"
	"github.com/diewo77/invoice-relay/internal/export"
	"github.com/diewo77/invoice-relay/internal/middleware"
	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/diewo77/invoice-relay/internal/services"
	"go.uber.org/zap"
)

// SavedHandler serves the saved invoice list and the client address book.
type SavedHandler struct {
	svc *services.InvoiceService
	log *zap.Logger
	now func() time.Time
}

func NewSavedHandler(svc *services.InvoiceService, lg *zap.Logger) *SavedHandler {
	return &SavedHandler{svc: svc, log: lg, now: time.Now}
}

func (h *SavedHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/invoices", h.ListInvoices)
	mux.HandleFunc("GET /api/invoices/register.xlsx", h.ExportRegister)
	mux.HandleFunc("DELETE /api/invoices/{number}", h.DeleteInvoice)
	mux.HandleFunc("GET /api/clients", h.ListClients)
	mux.HandleFunc("POST /api/clients", h.SaveClient)
	mux.HandleFunc("DELETE /api/clients", h.DeleteClient)
}

type savedInvoice struct {
	InvoiceNumber string `json:"invoiceNumber"`
	InvoiceDate   string `json:"invoiceDate"`
	ClientName    string `json:"clientName"`
	ClientEmail   string `json:"clientEmail"`
	TotalInclTax  string `json:"totalAmount"`
}

// ListInvoices: GET /api/invoices[?q=]
func (h *SavedHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invs, err := h.svc.ListInvoices(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	items := make([]savedInvoice, 0, len(invs))
	for _, inv := range invs {
		if q != "" && !matches(q, inv.InvoiceNumber, inv.Client.Name, inv.Client.Email) {
			continue
		}
		items = append(items, savedInvoice{
			InvoiceNumber: inv.InvoiceNumber,
			InvoiceDate:   inv.InvoiceDate,
			ClientName:    inv.Client.Name,
			ClientEmail:   inv.Client.Email,
			TotalInclTax:  inv.TotalInclTax().StringFixed(2),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// ExportRegister: GET /api/invoices/register.xlsx
func (h *SavedHandler) ExportRegister(w http.ResponseWriter, r *http.Request) {
	invs, err := h.svc.ListInvoices(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteRegister(&buf, invs, middleware.LangFrom(r)); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(h.now().Format(models.DateLayout))+`"`)
	_, _ = w.Write(buf.Bytes())
}

// DeleteInvoice: DELETE /api/invoices/{number}
func (h *SavedHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteInvoice(r.Context(), r.PathValue("number")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListClients: GET /api/clients[?q=]
func (h *SavedHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.ListClients(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	items := make([]models.Client, 0, len(clients))
	for _, c := range clients {
		if q == "" || matches(q, c.Name, c.Email, c.City) {
			items = append(items, c)
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// SaveClient: POST /api/clients
func (h *SavedHandler) SaveClient(w http.ResponseWriter, r *http.Request) {
	var c models.Client
	if !decodeJSON(w, r, &c) {
		return
	}
	saved, err := h.svc.SaveClient(r.Context(), c)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

// DeleteClient: DELETE /api/clients?email=&name=
func (h *SavedHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := h.svc.DeleteClient(r.Context(), q.Get("email"), q.Get("name")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
