package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm implements every bucket on one gorm connection.
type Gorm struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db, now: time.Now}
}

var (
	_ Drafts   = (*Gorm)(nil)
	_ Invoices = (*Gorm)(nil)
	_ Clients  = (*Gorm)(nil)
	_ Settings = (*Gorm)(nil)
)

// --- drafts ---

func (s *Gorm) SaveDraft(ctx context.Context, inv models.Invoice) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	rec := models.DraftRecord{Slot: DraftSlot, Payload: datatypes.JSON(payload), UpdatedAt: s.now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&rec).Error
}

func (s *Gorm) LoadDraft(ctx context.Context) (models.Invoice, bool, error) {
	var rec models.DraftRecord
	err := s.db.WithContext(ctx).Where("slot = ?", DraftSlot).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Invoice{}, false, nil
	}
	if err != nil {
		return models.Invoice{}, false, err
	}
	var inv models.Invoice
	if err := json.Unmarshal(rec.Payload, &inv); err != nil {
		return models.Invoice{}, false, fmt.Errorf("decode draft: %w", err)
	}
	return inv, true, nil
}

func (s *Gorm) ClearDraft(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("slot = ?", DraftSlot).Delete(&models.DraftRecord{}).Error
}

// --- invoices ---

func (s *Gorm) UpsertInvoice(ctx context.Context, inv models.Invoice) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode invoice: %w", err)
	}
	now := s.now()
	rec := models.InvoiceRecord{
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.InvoiceDate,
		ClientName:    inv.Client.Name,
		ClientEmail:   inv.Client.Email,
		TotalInclTax:  inv.TotalInclTax().Round(2),
		Payload:       datatypes.JSON(payload),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "invoice_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"issue_date", "client_name", "client_email", "total_incl_tax", "payload", "updated_at",
		}),
	}).Create(&rec).Error
}

func (s *Gorm) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	var recs []models.InvoiceRecord
	if err := s.db.WithContext(ctx).Order("created_at, invoice_number").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]models.Invoice, 0, len(recs))
	for _, rec := range recs {
		var inv models.Invoice
		if err := json.Unmarshal(rec.Payload, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice %s: %w", rec.InvoiceNumber, err)
		}
		out = append(out, inv)
	}
	return out, nil
}

func (s *Gorm) GetInvoice(ctx context.Context, number string) (models.Invoice, error) {
	var rec models.InvoiceRecord
	err := s.db.WithContext(ctx).Where("invoice_number = ?", number).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Invoice{}, ErrNotFound
	}
	if err != nil {
		return models.Invoice{}, err
	}
	var inv models.Invoice
	if err := json.Unmarshal(rec.Payload, &inv); err != nil {
		return models.Invoice{}, fmt.Errorf("decode invoice %s: %w", number, err)
	}
	return inv, nil
}

func (s *Gorm) DeleteInvoice(ctx context.Context, number string) error {
	res := s.db.WithContext(ctx).Where("invoice_number = ?", number).Delete(&models.InvoiceRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) InvoiceNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	err := s.db.WithContext(ctx).Model(&models.InvoiceRecord{}).Pluck("invoice_number", &numbers).Error
	return numbers, err
}

// --- clients ---

// UpsertClient inserts or replaces the entry with the same key. The id and
// creation time of an existing entry are kept.
func (s *Gorm) UpsertClient(ctx context.Context, c models.Client) (models.Client, error) {
	key := c.Key()
	var existing models.ClientRecord
	err := s.db.WithContext(ctx).Where("client_key = ?", key).Take(&existing).Error
	switch {
	case err == nil:
		c.ID = existing.ID
		created := existing.CreatedAt
		c.CreatedAt = &created
	case errors.Is(err, gorm.ErrRecordNotFound):
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		now := s.now()
		c.CreatedAt = &now
	default:
		return c, err
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return c, fmt.Errorf("encode client: %w", err)
	}
	rec := models.ClientRecord{
		Key:       key,
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Payload:   datatypes.JSON(payload),
		CreatedAt: *c.CreatedAt,
		UpdatedAt: s.now(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "payload", "updated_at"}),
	}).Create(&rec).Error
	return c, err
}

func (s *Gorm) ListClients(ctx context.Context) ([]models.Client, error) {
	var recs []models.ClientRecord
	if err := s.db.WithContext(ctx).Order("created_at, client_key").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]models.Client, 0, len(recs))
	for _, rec := range recs {
		var c models.Client
		if err := json.Unmarshal(rec.Payload, &c); err != nil {
			return nil, fmt.Errorf("decode client %s: %w", rec.Key, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Gorm) DeleteClient(ctx context.Context, email, name string) error {
	res := s.db.WithContext(ctx).Where("client_key = ?", models.ClientKey(email, name)).Delete(&models.ClientRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- settings ---

func (s *Gorm) LoadSetting(ctx context.Context, key string, dst any) (bool, error) {
	var rec models.SettingRecord
	err := s.db.WithContext(ctx).Where("setting_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(rec.Value, dst); err != nil {
		return false, fmt.Errorf("decode setting %s: %w", key, err)
	}
	return true, nil
}

func (s *Gorm) SaveSetting(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	rec := models.SettingRecord{Key: key, Value: datatypes.JSON(value), UpdatedAt: s.now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}
