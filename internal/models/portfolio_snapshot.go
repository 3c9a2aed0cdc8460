package models

import (
	"time"

	"helpinvest/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PortfolioSnapshot is a point-in-time copy of a user's per-category totals.
// This is immutable time-series data: no Base embed, no soft deletes.
type PortfolioSnapshot struct {
	ID         string    `gorm:"size:36;primaryKey" json:"id"`
	UserID     string    `gorm:"size:36;not null;uniqueIndex:idx_snapshots_user_recorded" json:"user_id"`
	RecordedAt time.Time `gorm:"not null;uniqueIndex:idx_snapshots_user_recorded" json:"recorded_at"`

	EncodedTotalEstate string `gorm:"column:total_estate;not null" json:"-"`
	EncodedSavings     string `gorm:"column:savings;not null" json:"-"`
	EncodedRealEstate  string `gorm:"column:real_estate;not null" json:"-"`
	EncodedStocks      string `gorm:"column:stocks;not null" json:"-"`
	EncodedOther       string `gorm:"column:other;not null" json:"-"`

	TotalEstate decimal.Decimal `gorm:"-" json:"total_estate"`
	Savings     decimal.Decimal `gorm:"-" json:"savings"`
	RealEstate  decimal.Decimal `gorm:"-" json:"real_estate"`
	Stocks      decimal.Decimal `gorm:"-" json:"stocks"`
	Other       decimal.Decimal `gorm:"-" json:"other"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *PortfolioSnapshot) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
