package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DraftRecord is the single auto-save slot.
type DraftRecord struct {
	Slot      string         `gorm:"primaryKey;size:32"`
	Payload   datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (DraftRecord) TableName() string { return "drafts" }

// InvoiceRecord is a saved invoice, keyed by its number. Payload holds the full snapshot.
type InvoiceRecord struct {
	InvoiceNumber string          `gorm:"primaryKey;size:32"`
	IssueDate     string          `gorm:"size:10"`
	ClientName    string          `gorm:"size:255;index"`
	ClientEmail   string          `gorm:"size:255"`
	TotalInclTax  decimal.Decimal `gorm:"type:decimal(12,2)"`
	Payload       datatypes.JSON  `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"index"`
	UpdatedAt     time.Time
}

func (InvoiceRecord) TableName() string { return "invoices" }

// ClientRecord is an address book entry keyed by ClientKey.
type ClientRecord struct {
	Key       string         `gorm:"column:client_key;primaryKey;size:512"`
	ID        string         `gorm:"size:36;index"`
	Name      string         `gorm:"size:255"`
	Email     string         `gorm:"size:255"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time
}

func (ClientRecord) TableName() string { return "clients" }

// SettingRecord stores one channel configuration as JSON.
type SettingRecord struct {
	Key       string         `gorm:"column:setting_key;primaryKey;size:64"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (SettingRecord) TableName() string { return "settings" }

// All lists every persisted model, in migration order.
func All() []any {
	return []any{&DraftRecord{}, &InvoiceRecord{}, &ClientRecord{}, &SettingRecord{}}
}
