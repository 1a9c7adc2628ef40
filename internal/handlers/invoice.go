package handlers

import (
	"net/http"

	"github.com/diewo77/invoice-relay/httpx"
	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/middleware"
	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/diewo77/invoice-relay/internal/services"
	"go.uber.org/zap"
)

// InvoiceHandler exposes the invoice being edited and the user actions on it.
type InvoiceHandler struct {
	svc *services.InvoiceService
	log *zap.Logger
}

func NewInvoiceHandler(svc *services.InvoiceService, lg *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, log: lg}
}

func (h *InvoiceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/invoice", h.Get)
	mux.HandleFunc("PUT /api/invoice", h.Put)
	mux.HandleFunc("POST /api/invoice/new", h.New)
	mux.HandleFunc("POST /api/invoice/save", h.Save)
	mux.HandleFunc("POST /api/invoice/download", h.Download)
	mux.HandleFunc("POST /api/invoice/preview", h.Preview)
	mux.HandleFunc("POST /api/invoice/print", h.Print)
	mux.HandleFunc("POST /api/invoice/send", h.Send)
	mux.HandleFunc("POST /api/invoice/open/{number}", h.Open)
}

// invoiceView is the editor state with its derived totals.
type invoiceView struct {
	models.Invoice
	Totals totals `json:"totals"`
}

type totals struct {
	Subtotal string `json:"subtotalExclTax"`
	Tax      string `json:"tax"`
	Total    string `json:"totalInclTax"`
	Balance  string `json:"balanceDue"`
}

func viewOf(inv models.Invoice) invoiceView {
	return invoiceView{Invoice: inv, Totals: totals{
		Subtotal: inv.SubtotalExclTax().StringFixed(2),
		Tax:      inv.Tax().StringFixed(2),
		Total:    inv.TotalInclTax().StringFixed(2),
		Balance:  inv.BalanceDue().StringFixed(2),
	}}
}

// Get: GET /api/invoice
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, viewOf(h.svc.Current()))
}

// Put: PUT /api/invoice replaces the editor content. The number cannot change.
func (h *InvoiceHandler) Put(w http.ResponseWriter, r *http.Request) {
	var inv models.Invoice
	if !decodeJSON(w, r, &inv) {
		return
	}
	cur, err := h.svc.Update(r.Context(), inv)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(cur))
}

// New: POST /api/invoice/new {"confirm":true}
func (h *InvoiceHandler) New(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &body) {
		return
	}
	inv, err := h.svc.NewInvoice(r.Context(), body.Confirm)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": i18n.Tf(middleware.LangFrom(r), "new_invoice_created", inv.InvoiceNumber),
		"invoice": viewOf(inv),
	})
}

// Open: POST /api/invoice/open/{number}
func (h *InvoiceHandler) Open(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Open(r.Context(), r.PathValue("number"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": i18n.Tf(middleware.LangFrom(r), "invoice_opened", inv.InvoiceNumber),
		"invoice": viewOf(inv),
	})
}

// Save: POST /api/invoice/save
func (h *InvoiceHandler) Save(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Save(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// Download: POST /api/invoice/download returns the PDF as an attachment.
func (h *InvoiceHandler) Download(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Download(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	for _, warn := range res.Warnings {
		h.log.Warn("download completed with warning", zap.String("warning", warn))
	}
	httpx.PDF(w, res.Filename, res.PDF, false)
}

// Preview: POST /api/invoice/preview returns the PDF inline.
func (h *InvoiceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Preview(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	httpx.PDF(w, res.Filename, res.PDF, true)
}

// Print: POST /api/invoice/print
func (h *InvoiceHandler) Print(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Print(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// Send: POST /api/invoice/send {"channel":"webhook"|"email"}
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Channel string `json:"channel"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.Send(r.Context(), body.Channel)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
