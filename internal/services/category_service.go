package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "helpinvest/internal/errors"
	"helpinvest/internal/logger"
	"helpinvest/internal/models"
)

// categoryService serves the global, read-only category taxonomy.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// Seed inserts the default taxonomy when the table is empty and returns the
// number of rows created.
func (s *categoryService) Seed(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return 0, nil
	}

	categories := models.DefaultCategories()
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories)
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}

	logger.Get().Infow("category taxonomy seeded", "count", result.RowsAffected)
	return int(result.RowsAffected), nil
}

// List returns every category ordered by top level then sub-category.
func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).
		Order("top_level_name ASC, sub_category_name ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// Grouped returns the sub-category names of each top level.
func (s *categoryService) Grouped(ctx context.Context) (map[string][]string, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]string)
	for _, c := range categories {
		grouped[c.TopLevelName] = append(grouped[c.TopLevelName], c.SubCategoryName)
	}
	return grouped, nil
}

// Lookup resolves an exact (top level, sub-category) pair.
func (s *categoryService) Lookup(ctx context.Context, topLevel, sub string) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).
		Where("top_level_name = ? AND sub_category_name = ?", topLevel, sub).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrUnknownCategory,
				"Unknown category "+topLevel+" / "+sub)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// ResolveTopLevel maps a loosely written top-level name ("real-estate",
// "SAVINGS") to its canonical form.
func (s *categoryService) ResolveTopLevel(ctx context.Context, name string) (string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Distinct("top_level_name").
		Pluck("top_level_name", &names).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	want := normalizeName(name)
	for _, n := range names {
		if normalizeName(n) == want {
			return n, nil
		}
	}
	return "", apperrors.WithMessage(apperrors.ErrUnknownCategory, "Unknown category "+name)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", " ", "_", " ").Replace(s)
}
