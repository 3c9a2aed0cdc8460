package models

import (
	"time"

	"helpinvest/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is an immutable signed ledger entry: positive for a deposit,
// negative for a withdrawal. No Base embed, entries are never soft deleted.
type Transaction struct {
	ID            string          `gorm:"size:36;primaryKey" json:"id"`
	UserID        string          `gorm:"size:36;not null;index:idx_transactions_user_created,priority:1" json:"user_id"`
	CategoryID    string          `gorm:"size:36;not null" json:"category_id"`
	EncodedAmount string          `gorm:"column:amount;not null" json:"-"`
	Amount        decimal.Decimal `gorm:"-" json:"amount"`
	CreatedAt     time.Time       `gorm:"not null;index:idx_transactions_user_created,priority:2" json:"created_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New()
	}
	return nil
}

// IsDeposit reports whether the entry added funds.
func (t *Transaction) IsDeposit() bool {
	return t.Amount.IsPositive()
}
