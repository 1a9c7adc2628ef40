// Package services holds the invoice orchestrator: it owns the invoice being
// edited and runs validate, persist, render and dispatch for every user action.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/delivery"
	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/diewo77/invoice-relay/internal/render"
	"github.com/diewo77/invoice-relay/internal/store"
	"github.com/diewo77/invoice-relay/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Deps are the collaborators of InvoiceService, built once at start-up.
type Deps struct {
	Drafts   store.Drafts
	Invoices store.Invoices
	Clients  store.Clients
	Renderer render.Renderer
	Channels []delivery.Channel
	Company  models.Company
	TaxRate  decimal.Decimal
	Log      *zap.Logger
	Now      func() time.Time
}

// InvoiceService owns the current invoice. Actions work on a snapshot so the
// lock is never held across rendering, storage or network calls.
type InvoiceService struct {
	drafts   store.Drafts
	invoices store.Invoices
	clients  store.Clients
	renderer render.Renderer
	channels map[string]delivery.Channel
	company  models.Company
	taxRate  decimal.Decimal
	log      *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	current   models.Invoice
	lastDraft []byte
	stop      func()

	// slotMu orders autosave writes against NewInvoice clearing the slot.
	slotMu sync.Mutex
}

func NewInvoiceService(d Deps) *InvoiceService {
	s := &InvoiceService{
		drafts:   d.Drafts,
		invoices: d.Invoices,
		clients:  d.Clients,
		renderer: d.Renderer,
		channels: map[string]delivery.Channel{},
		company:  d.Company,
		taxRate:  d.TaxRate,
		log:      d.Log,
		now:      d.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.taxRate.IsZero() {
		s.taxRate = models.DefaultTaxRate
	}
	for _, ch := range d.Channels {
		s.channels[ch.Name()] = ch
	}
	return s
}

// Start restores the draft slot, or begins a fresh invoice when it is empty.
func (s *InvoiceService) Start(ctx context.Context) error {
	draft, ok, err := s.drafts.LoadDraft(ctx)
	if err != nil {
		s.log.Warn("draft restore failed, starting fresh", zap.Error(err))
	}
	if ok && draft.InvoiceNumber != "" {
		s.mu.Lock()
		s.current = draft
		s.mu.Unlock()
		s.log.Info("draft restored", zap.String("invoice", draft.InvoiceNumber))
		return nil
	}
	number, err := s.nextNumber(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = s.fresh(number)
	s.mu.Unlock()
	return nil
}

// Current returns a copy of the invoice being edited.
func (s *InvoiceService) Current() models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Update replaces the editable content of the current invoice. The number is
// kept. A tax rate outside 0..100 is refused and the editor is left unchanged.
func (s *InvoiceService) Update(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	var v validation.Violations
	checkTaxRate(inv.TaxRate, &v)
	if !v.Empty() {
		return models.Invoice{}, newValidationError(i18n.LangFrom(ctx), ValidationResult{Violations: v})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv = inv.Clone()
	inv.InvoiceNumber = s.current.InvoiceNumber
	if inv.Products == nil {
		inv.Products = []models.Product{}
	}
	s.current = inv
	return s.current.Clone(), nil
}

// NewInvoice discards the current invoice for a fresh one and clears the draft slot.
func (s *InvoiceService) NewInvoice(ctx context.Context, confirmed bool) (models.Invoice, error) {
	if !confirmed {
		return models.Invoice{}, ErrConfirmationRequired
	}
	number, err := s.nextNumber(ctx)
	if err != nil {
		return models.Invoice{}, err
	}
	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	s.mu.Lock()
	s.current = s.fresh(number)
	s.lastDraft = nil
	inv := s.current.Clone()
	s.mu.Unlock()

	if err := s.drafts.ClearDraft(ctx); err != nil {
		s.log.Error("clear draft failed", zap.Error(err))
		return inv, &PersistenceError{Op: "clear draft", Err: err}
	}
	s.log.Info("new invoice", zap.String("invoice", number))
	return inv, nil
}

// Open loads a saved invoice into the editor.
func (s *InvoiceService) Open(ctx context.Context, number string) (models.Invoice, error) {
	inv, err := s.invoices.GetInvoice(ctx, number)
	if err != nil {
		return models.Invoice{}, err
	}
	s.mu.Lock()
	s.current = inv.Clone()
	s.mu.Unlock()
	return inv, nil
}

func (s *InvoiceService) fresh(number string) models.Invoice {
	inv := models.New(number, s.now())
	inv.TaxRate = s.taxRate
	return inv
}

// nextNumber is one past the highest numeric number in the invoice list, the
// draft slot and the editor, zero-padded to six digits.
func (s *InvoiceService) nextNumber(ctx context.Context) (string, error) {
	numbers, err := s.invoices.InvoiceNumbers(ctx)
	if err != nil {
		return "", fmt.Errorf("list invoice numbers: %w", err)
	}
	if draft, ok, err := s.drafts.LoadDraft(ctx); err == nil && ok {
		numbers = append(numbers, draft.InvoiceNumber)
	}
	s.mu.Lock()
	numbers = append(numbers, s.current.InvoiceNumber)
	s.mu.Unlock()

	highest := 0
	for _, n := range numbers {
		if v, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && v > highest {
			highest = v
		}
	}
	return fmt.Sprintf("%06d", highest+1), nil
}

// --- saved data ---

func (s *InvoiceService) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	return s.invoices.ListInvoices(ctx)
}

func (s *InvoiceService) DeleteInvoice(ctx context.Context, number string) error {
	return s.invoices.DeleteInvoice(ctx, number)
}

func (s *InvoiceService) ListClients(ctx context.Context) ([]models.Client, error) {
	return s.clients.ListClients(ctx)
}

// SaveClient adds or replaces an address book entry. Name and email are required.
func (s *InvoiceService) SaveClient(ctx context.Context, c models.Client) (models.Client, error) {
	var v validation.Violations
	validation.Required("name", c.Name, "required_client_name", &v)
	validation.Required("email", c.Email, "required_client_email", &v)
	validation.Email("email", c.Email, "invalid_client_email", &v)
	if !v.Empty() {
		return c, newValidationError(i18n.LangFrom(ctx), ValidationResult{Violations: v})
	}
	return s.clients.UpsertClient(ctx, c)
}

func (s *InvoiceService) DeleteClient(ctx context.Context, email, name string) error {
	return s.clients.DeleteClient(ctx, email, name)
}

// Channel returns a registered channel by name.
func (s *InvoiceService) Channel(name string) (delivery.Channel, bool) {
	ch, ok := s.channels[name]
	return ch, ok
}

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
