package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"helpinvest/internal/codec"
	apperrors "helpinvest/internal/errors"
	"helpinvest/internal/logger"
	"helpinvest/internal/models"
	"helpinvest/internal/pagination"
)

// DefaultSnapshotConcurrency bounds the per-user fan-out of RecordSnapshots.
const DefaultSnapshotConcurrency = 4

// portfolioSnapshotService handles portfolio snapshot operations.
type portfolioSnapshotService struct {
	db          *gorm.DB
	ledger      LedgerServicer
	amounts     codec.AmountCodec
	concurrency int
}

// NewPortfolioSnapshotService creates a new PortfolioSnapshotServicer.
func NewPortfolioSnapshotService(db *gorm.DB, ledger LedgerServicer, amounts codec.AmountCodec, concurrency int) PortfolioSnapshotServicer {
	if concurrency < 1 {
		concurrency = DefaultSnapshotConcurrency
	}
	return &portfolioSnapshotService{
		db:          db,
		ledger:      ledger,
		amounts:     amounts,
		concurrency: concurrency,
	}
}

// RecordSnapshots stores a snapshot for every active user at recordedAt.
// Re-running for the same instant overwrites the earlier values.
func (s *portfolioSnapshotService) RecordSnapshots(ctx context.Context, recordedAt time.Time) (int, error) {
	var userIDs []string
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("is_active = ?", true).
		Order("id").
		Pluck("id", &userIDs).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, userID := range userIDs {
		g.Go(func() error {
			_, err := s.RecordUserSnapshot(gctx, userID, recordedAt)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	logger.Get().Infow("portfolio snapshots recorded", "count", len(userIDs), "recorded_at", recordedAt)
	return len(userIDs), nil
}

// RecordUserSnapshot upserts one user's snapshot on (user_id, recorded_at).
func (s *portfolioSnapshotService) RecordUserSnapshot(ctx context.Context, userID string, recordedAt time.Time) (*models.PortfolioSnapshot, error) {
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	recordedAt = recordedAt.UTC().Truncate(time.Second)

	summary, err := s.ledger.Summarize(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &models.PortfolioSnapshot{
		UserID:      userID,
		RecordedAt:  recordedAt,
		TotalEstate: summary.TotalEstate,
		Savings:     summary.Categories[models.CategorySavings].Total,
		RealEstate:  summary.Categories[models.CategoryRealEstate].Total,
		Stocks:      summary.Categories[models.CategoryStocks].Total,
		Other:       summary.Categories[models.CategoryOther].Total,
	}
	if err := s.encode(snapshot); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "recorded_at"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_estate", "savings", "real_estate", "stocks", "other"}),
	}).Create(snapshot).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var stored models.PortfolioSnapshot
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND recorded_at = ?", userID, recordedAt).
		First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.decode(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetSnapshots returns paginated snapshots for a user, newest first. A zero
// from or to leaves that side of the range open.
func (s *portfolioSnapshotService) GetSnapshots(
	ctx context.Context,
	userID string,
	from, to time.Time,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
	page.Defaults()

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if !from.IsZero() {
			db = db.Where("recorded_at >= ?", from.UTC())
		}
		if !to.IsZero() {
			db = db.Where("recorded_at <= ?", to.UTC())
		}
		return db
	}

	var totalItems int64
	if err := s.db.WithContext(ctx).Model(&models.PortfolioSnapshot{}).Scopes(scope).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.PortfolioSnapshot
	if err := s.db.WithContext(ctx).Scopes(scope).
		Order("recorded_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range snapshots {
		if err := s.decode(&snapshots[i]); err != nil {
			return nil, err
		}
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *portfolioSnapshotService) encode(p *models.PortfolioSnapshot) error {
	fields := []struct {
		dst   *string
		value decimal.Decimal
	}{
		{&p.EncodedTotalEstate, p.TotalEstate},
		{&p.EncodedSavings, p.Savings},
		{&p.EncodedRealEstate, p.RealEstate},
		{&p.EncodedStocks, p.Stocks},
		{&p.EncodedOther, p.Other},
	}
	for _, f := range fields {
		encoded, err := s.amounts.Encode(f.value)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		*f.dst = encoded
	}
	return nil
}

func (s *portfolioSnapshotService) decode(p *models.PortfolioSnapshot) error {
	fields := []struct {
		src string
		dst *decimal.Decimal
	}{
		{p.EncodedTotalEstate, &p.TotalEstate},
		{p.EncodedSavings, &p.Savings},
		{p.EncodedRealEstate, &p.RealEstate},
		{p.EncodedStocks, &p.Stocks},
		{p.EncodedOther, &p.Other},
	}
	for _, f := range fields {
		amount, err := s.amounts.Decode(f.src)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		*f.dst = amount
	}
	return nil
}
