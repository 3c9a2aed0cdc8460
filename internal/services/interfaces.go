package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"helpinvest/internal/advisor"
	"helpinvest/internal/models"
	"helpinvest/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	UpdateRiskProfile(userID, profile string) (*models.User, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// CategoryServicer defines the contract for the global category taxonomy.
type CategoryServicer interface {
	Seed(ctx context.Context) (int, error)
	List(ctx context.Context) ([]models.Category, error)
	Grouped(ctx context.Context) (map[string][]string, error)
	Lookup(ctx context.Context, topLevel, sub string) (*models.Category, error)
	ResolveTopLevel(ctx context.Context, name string) (string, error)
}

// LedgerServicer defines the contract for the per-user portfolio ledger.
// Mutations keep each (user, category) balance equal to the sum of its transactions.
type LedgerServicer interface {
	Deposit(ctx context.Context, userID, topLevel, sub string, amount decimal.Decimal, at time.Time) (*models.Transaction, *models.Balance, error)
	Withdraw(ctx context.Context, userID, topLevel, sub string, amount decimal.Decimal, at time.Time) (*models.Transaction, *models.Balance, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
	GetTransaction(ctx context.Context, userID, transactionID string) (*models.TransactionEntry, error)
	Summarize(ctx context.Context, userID string) (*models.PortfolioSummary, error)
	History(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.TransactionEntry], error)
	CategoryDetail(ctx context.Context, userID, topLevel string) (*models.CategoryDetail, error)
	WithdrawableBalances(ctx context.Context, userID string) ([]models.WithdrawableBalance, error)
}

// Dashboard is the combined summary and allocation view of a user's portfolio.
type Dashboard struct {
	RiskProfile        models.RiskProfile      `json:"risk_profile"`
	Summary            models.PortfolioSummary `json:"summary"`
	TotalEstate        decimal.Decimal         `json:"total_estate"`
	TotalEstateDisplay string                  `json:"total_estate_display"`
	Allocations        []advisor.Allocation    `json:"allocations"`
}

// AdvisorServicer defines the contract for allocation recommendations.
type AdvisorServicer interface {
	Analyze(ctx context.Context, userID string) ([]advisor.Allocation, error)
	Dashboard(ctx context.Context, userID string) (*Dashboard, error)
}

// PortfolioSnapshotServicer defines the contract for portfolio snapshot operations.
type PortfolioSnapshotServicer interface {
	RecordSnapshots(ctx context.Context, recordedAt time.Time) (int, error)
	RecordUserSnapshot(ctx context.Context, userID string, recordedAt time.Time) (*models.PortfolioSnapshot, error)
	GetSnapshots(ctx context.Context, userID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
