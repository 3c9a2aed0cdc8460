package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"helpinvest/internal/cache"
	"helpinvest/internal/codec"
	apperrors "helpinvest/internal/errors"
	"helpinvest/internal/events"
	"helpinvest/internal/logger"
	"helpinvest/internal/models"
	"helpinvest/internal/pagination"
)

// ledgerService keeps per (user, category) balances in step with the
// transaction history. Amounts cross the storage boundary through the codec.
type ledgerService struct {
	db         *gorm.DB
	amounts    codec.AmountCodec
	categories CategoryServicer
	cache      cache.Cache
	cacheTTL   time.Duration
	publisher  events.Publisher
}

// LedgerOption configures optional ledger collaborators.
type LedgerOption func(*ledgerService)

// WithSummaryCache serves Summarize through c, invalidating after every mutation.
func WithSummaryCache(c cache.Cache, ttl time.Duration) LedgerOption {
	return func(s *ledgerService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithPublisher emits a LedgerEvent after every committed mutation.
func WithPublisher(p events.Publisher) LedgerOption {
	return func(s *ledgerService) {
		s.publisher = p
	}
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB, amounts codec.AmountCodec, categories CategoryServicer, opts ...LedgerOption) LedgerServicer {
	s := &ledgerService{
		db:         db,
		amounts:    amounts,
		categories: categories,
		cache:      cache.Nop{},
		publisher:  events.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const (
	maxAmountDigits = 15
	// maxAmountScale bounds trailing zeros such as "10.5000".
	maxAmountScale = 12
)

// MaxAmount is the largest amount a single deposit or withdrawal may carry.
var MaxAmount = decimal.New(1, maxAmountDigits)

// ValidateAmount accepts strictly positive amounts up to MaxAmount with at
// most two decimals. The exponent is checked first so that inputs like
// "1e999999" are refused before any rescaling.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	exp := amount.Exponent()
	if exp > maxAmountDigits || exp < -maxAmountScale || amount.GreaterThan(MaxAmount) {
		return apperrors.ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return apperrors.ErrInvalidAmount
	}
	return nil
}

// Deposit records +amount and creates or increments the balance.
func (s *ledgerService) Deposit(ctx context.Context, userID, topLevel, sub string, amount decimal.Decimal, at time.Time) (*models.Transaction, *models.Balance, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, nil, err
	}
	category, err := s.categories.Lookup(ctx, topLevel, sub)
	if err != nil {
		return nil, nil, err
	}

	var entry *models.Transaction
	var balance *models.Balance
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureBalance(tx, userID, category.ID); err != nil {
			return err
		}
		current, err := s.lockBalance(tx, userID, category.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperrors.ErrBalanceMissing
		}

		entry, err = s.appendEntry(tx, userID, category, amount, at)
		if err != nil {
			return err
		}
		balance, err = s.storeBalance(tx, current, current.Amount.Add(amount))
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	balance.Category = category
	s.afterCommit(ctx, events.TypeDeposit, entry)
	logger.Get().Infow("deposit recorded",
		"user_id", userID,
		"transaction_id", entry.ID,
		"category", category.TopLevelName,
		"sub_category", category.SubCategoryName,
	)
	return entry, balance, nil
}

// Withdraw records -amount. It fails without side effects when the balance
// row is missing or smaller than amount.
func (s *ledgerService) Withdraw(ctx context.Context, userID, topLevel, sub string, amount decimal.Decimal, at time.Time) (*models.Transaction, *models.Balance, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, nil, err
	}
	category, err := s.categories.Lookup(ctx, topLevel, sub)
	if err != nil {
		return nil, nil, err
	}

	var entry *models.Transaction
	var balance *models.Balance
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.lockBalance(tx, userID, category.ID)
		if err != nil {
			return err
		}
		if current == nil || current.Amount.LessThan(amount) {
			return apperrors.ErrInsufficientBalance
		}

		entry, err = s.appendEntry(tx, userID, category, amount.Neg(), at)
		if err != nil {
			return err
		}
		balance, err = s.storeBalance(tx, current, current.Amount.Sub(amount))
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	balance.Category = category
	s.afterCommit(ctx, events.TypeWithdrawal, entry)
	logger.Get().Infow("withdrawal recorded",
		"user_id", userID,
		"transaction_id", entry.ID,
		"category", category.TopLevelName,
		"sub_category", category.SubCategoryName,
	)
	return entry, balance, nil
}

// DeleteTransaction removes an entry and reverses its effect on the balance.
// The reversal may leave a negative balance when later withdrawals consumed the deposit.
func (s *ledgerService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	var entry models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", transactionID, userID).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		signed, err := s.decode(entry.EncodedAmount)
		if err != nil {
			return err
		}
		entry.Amount = signed

		current, err := s.lockBalance(tx, userID, entry.CategoryID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperrors.ErrBalanceMissing
		}

		if err := tx.Delete(&models.Transaction{}, "id = ?", entry.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_, err = s.storeBalance(tx, current, current.Amount.Sub(signed))
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrBalanceMissing) {
			logger.Get().Errorw("balance row missing for existing transaction",
				"user_id", userID,
				"transaction_id", transactionID,
			)
		}
		return err
	}

	s.afterCommit(ctx, events.TypeTransactionDeleted, &entry)
	logger.Get().Infow("transaction deleted", "user_id", userID, "transaction_id", transactionID)
	return nil
}

// GetTransaction returns a single entry owned by userID.
func (s *ledgerService) GetTransaction(ctx context.Context, userID, transactionID string) (*models.TransactionEntry, error) {
	var entry models.Transaction
	err := s.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	view, err := s.toEntry(&entry)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Summarize groups non-zero balances by top-level category. Categories whose
// total is not positive are left out, as is their contribution to the estate,
// so TotalEstate always equals the sum of the listed category totals.
func (s *ledgerService) Summarize(ctx context.Context, userID string) (*models.PortfolioSummary, error) {
	key := cache.SummaryKey(userID)
	var cached models.PortfolioSummary
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Get().Warnw("summary cache read failed", "error", err, "user_id", userID)
	} else if found {
		return &cached, nil
	}

	balances, err := s.loadBalances(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	summary := &models.PortfolioSummary{
		Categories:  make(map[string]models.CategorySummary),
		TotalEstate: decimal.Zero,
	}
	for _, b := range balances {
		if b.Amount.IsZero() {
			continue
		}
		top := b.Category.TopLevelName
		cs, ok := summary.Categories[top]
		if !ok {
			cs = models.CategorySummary{Total: decimal.Zero, SubCategories: make(map[string]decimal.Decimal)}
		}
		cs.SubCategories[b.Category.SubCategoryName] = b.Amount
		cs.Total = cs.Total.Add(b.Amount)
		summary.Categories[top] = cs
	}
	for top, cs := range summary.Categories {
		if !cs.Total.IsPositive() {
			delete(summary.Categories, top)
			continue
		}
		summary.TotalEstate = summary.TotalEstate.Add(cs.Total)
	}

	if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
		logger.Get().Warnw("summary cache write failed", "error", err, "user_id", userID)
	}
	return summary, nil
}

// History pages through a user's entries, newest first.
func (s *ledgerService) History(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.TransactionEntry], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []models.Transaction
	if err := s.db.WithContext(ctx).Preload("Category").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entries := make([]models.TransactionEntry, 0, len(rows))
	for i := range rows {
		view, err := s.toEntry(&rows[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, view)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// CategoryDetail lists the non-zero sub-category balances under one top level.
func (s *ledgerService) CategoryDetail(ctx context.Context, userID, topLevel string) (*models.CategoryDetail, error) {
	canonical, err := s.categories.ResolveTopLevel(ctx, topLevel)
	if err != nil {
		return nil, err
	}

	balances, err := s.loadBalances(ctx, userID, canonical)
	if err != nil {
		return nil, err
	}

	detail := &models.CategoryDetail{
		Category:      canonical,
		SubCategories: make(map[string]decimal.Decimal),
		Total:         decimal.Zero,
	}
	for _, b := range balances {
		if b.Amount.IsZero() {
			continue
		}
		detail.SubCategories[b.Category.SubCategoryName] = b.Amount
		detail.Total = detail.Total.Add(b.Amount)
	}
	return detail, nil
}

// WithdrawableBalances lists the positive balances, sorted by category then sub-category.
func (s *ledgerService) WithdrawableBalances(ctx context.Context, userID string) ([]models.WithdrawableBalance, error) {
	balances, err := s.loadBalances(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	out := make([]models.WithdrawableBalance, 0, len(balances))
	for _, b := range balances {
		if !b.Amount.IsPositive() {
			continue
		}
		out = append(out, models.WithdrawableBalance{
			Category:    b.Category.TopLevelName,
			SubCategory: b.Category.SubCategoryName,
			Balance:     b.Amount,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].SubCategory < out[j].SubCategory
	})
	return out, nil
}

// ensureBalance inserts a zero row for the key unless one already exists.
func (s *ledgerService) ensureBalance(tx *gorm.DB, userID, categoryID string) error {
	zero, err := s.amounts.Encode(decimal.Zero)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	row := models.Balance{UserID: userID, CategoryID: categoryID, EncodedAmount: zero}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// lockBalance reads the balance row with SELECT ... FOR UPDATE. A missing row
// yields (nil, nil).
func (s *ledgerService) lockBalance(tx *gorm.DB, userID, categoryID string) (*models.Balance, error) {
	var rows []models.Balance
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	b := &rows[0]
	amount, err := s.decode(b.EncodedAmount)
	if err != nil {
		return nil, err
	}
	b.Amount = amount
	return b, nil
}

func (s *ledgerService) storeBalance(tx *gorm.DB, b *models.Balance, amount decimal.Decimal) (*models.Balance, error) {
	encoded, err := s.amounts.Encode(amount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	now := time.Now().UTC()
	if err := tx.Model(&models.Balance{}).
		Where("user_id = ? AND category_id = ?", b.UserID, b.CategoryID).
		Updates(map[string]interface{}{"amount": encoded, "updated_at": now}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	b.EncodedAmount = encoded
	b.Amount = amount
	b.UpdatedAt = now
	return b, nil
}

func (s *ledgerService) appendEntry(tx *gorm.DB, userID string, category *models.Category, signed decimal.Decimal, at time.Time) (*models.Transaction, error) {
	encoded, err := s.amounts.Encode(signed)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if at.IsZero() {
		at = time.Now()
	}
	entry := &models.Transaction{
		UserID:        userID,
		CategoryID:    category.ID,
		EncodedAmount: encoded,
		Amount:        signed,
		CreatedAt:     at.UTC(),
	}
	if err := tx.Omit(clause.Associations).Create(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	entry.Category = category
	return entry, nil
}

// loadBalances decodes a user's balances with their categories, optionally
// restricted to one top level.
func (s *ledgerService) loadBalances(ctx context.Context, userID, topLevel string) ([]models.Balance, error) {
	var rows []models.Balance
	if err := s.db.WithContext(ctx).Preload("Category").
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balances := rows[:0]
	for _, b := range rows {
		if b.Category == nil || (topLevel != "" && b.Category.TopLevelName != topLevel) {
			continue
		}
		amount, err := s.decode(b.EncodedAmount)
		if err != nil {
			return nil, err
		}
		b.Amount = amount
		balances = append(balances, b)
	}
	return balances, nil
}

func (s *ledgerService) toEntry(t *models.Transaction) (models.TransactionEntry, error) {
	amount, err := s.decode(t.EncodedAmount)
	if err != nil {
		return models.TransactionEntry{}, err
	}
	view := models.TransactionEntry{
		ID:        t.ID,
		Amount:    amount,
		CreatedAt: t.CreatedAt,
	}
	if t.Category != nil {
		view.Category = t.Category.TopLevelName
		view.SubCategory = t.Category.SubCategoryName
	}
	return view, nil
}

func (s *ledgerService) decode(stored string) (decimal.Decimal, error) {
	amount, err := s.amounts.Decode(stored)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return amount, nil
}

// afterCommit invalidates the cached summary and publishes the event. Failures
// are logged only; the mutation is already durable.
func (s *ledgerService) afterCommit(ctx context.Context, eventType string, entry *models.Transaction) {
	log := logger.Get()
	if err := s.cache.Delete(ctx, cache.SummaryKey(entry.UserID)); err != nil {
		log.Warnw("summary cache invalidation failed", "error", err, "user_id", entry.UserID)
	}

	event := events.LedgerEvent{
		Type:          eventType,
		UserID:        entry.UserID,
		TransactionID: entry.ID,
		CategoryID:    entry.CategoryID,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warnw("ledger event publish failed", "error", err, "type", eventType, "user_id", entry.UserID)
	}
}
