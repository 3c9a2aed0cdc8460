// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"helpinvest/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("risk_profile", validateRiskProfile)
		_ = v.RegisterValidation("top_level_category", validateTopLevelCategory)
	}
}

// validateRiskProfile accepts the canonical profiles and their legacy labels.
func validateRiskProfile(fl validator.FieldLevel) bool {
	_, ok := models.ParseRiskProfile(fl.Field().String())
	return ok
}

func validateTopLevelCategory(fl validator.FieldLevel) bool {
	switch strings.TrimSpace(fl.Field().String()) {
	case models.CategorySavings, models.CategoryRealEstate, models.CategoryStocks, models.CategoryOther:
		return true
	}
	return false
}
