package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategorySummary aggregates one top-level category.
type CategorySummary struct {
	Total         decimal.Decimal            `json:"total"`
	SubCategories map[string]decimal.Decimal `json:"sub_categories"`
}

// PortfolioSummary groups a user's non-zero balances by top-level category.
type PortfolioSummary struct {
	Categories  map[string]CategorySummary `json:"categories"`
	TotalEstate decimal.Decimal            `json:"total_estate"`
}

// CategoryDetail lists the sub-category balances of a single top-level category.
type CategoryDetail struct {
	Category      string                     `json:"category"`
	SubCategories map[string]decimal.Decimal `json:"sub_categories"`
	Total         decimal.Decimal            `json:"total"`
}

// TransactionEntry is the history view of a Transaction.
type TransactionEntry struct {
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	SubCategory string          `json:"sub_category"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WithdrawableBalance is a positive balance a user can withdraw from.
type WithdrawableBalance struct {
	Category    string          `json:"category"`
	SubCategory string          `json:"sub_category"`
	Balance     decimal.Decimal `json:"balance"`
}
