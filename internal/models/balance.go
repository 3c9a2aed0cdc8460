package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the running total of a user's transactions in one category.
// EncodedAmount holds the codec output; Amount is filled in by services after decoding.
type Balance struct {
	UserID        string          `gorm:"size:36;primaryKey" json:"user_id"`
	CategoryID    string          `gorm:"size:36;primaryKey" json:"category_id"`
	EncodedAmount string          `gorm:"column:amount;not null" json:"-"`
	Amount        decimal.Decimal `gorm:"-" json:"amount"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
