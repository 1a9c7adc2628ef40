// Package store persists drafts, saved invoices, the client address book and
// channel settings. Each bucket is independent and last write wins.
package store

import (
	"context"
	"errors"

	"github.com/diewo77/invoice-relay/internal/models"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("not found")

// DraftSlot names the single auto-save slot.
const DraftSlot = "current"

// Drafts is the single-slot checkpoint of the invoice being edited.
type Drafts interface {
	SaveDraft(ctx context.Context, inv models.Invoice) error
	// LoadDraft reports false when the slot is empty.
	LoadDraft(ctx context.Context) (models.Invoice, bool, error)
	ClearDraft(ctx context.Context) error
}

// Invoices is the saved invoice list keyed by invoice number.
type Invoices interface {
	UpsertInvoice(ctx context.Context, inv models.Invoice) error
	ListInvoices(ctx context.Context) ([]models.Invoice, error)
	GetInvoice(ctx context.Context, number string) (models.Invoice, error)
	DeleteInvoice(ctx context.Context, number string) error
	InvoiceNumbers(ctx context.Context) ([]string, error)
}

// Clients is the address book keyed by models.ClientKey.
type Clients interface {
	UpsertClient(ctx context.Context, c models.Client) (models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
	DeleteClient(ctx context.Context, email, name string) error
}

// Settings stores channel configurations as JSON documents.
type Settings interface {
	// LoadSetting decodes the stored value into dst and reports false when key is unset.
	LoadSetting(ctx context.Context, key string, dst any) (bool, error)
	SaveSetting(ctx context.Context, key string, v any) error
}
