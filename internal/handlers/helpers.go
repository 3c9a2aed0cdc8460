package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "helpinvest/internal/errors"
	"helpinvest/internal/middleware"
	"helpinvest/internal/services"
	"helpinvest/internal/uuid"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString("userID")
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter. Malformed ids are reported as
// notFound so that probing for foreign ids and typos look the same.
func parsePathID(c *gin.Context, param string, notFound *apperrors.AppError) (string, error) {
	id := c.Param(param)
	if !uuid.IsValid(id) {
		return "", notFound
	}
	return id, nil
}

// parseAmount accepts a JSON number or a numeric string and applies the
// ledger's amount rules before the request reaches a service.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount is required")
	}
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, apperrors.ErrInvalidAmount
		}
	} else {
		text = string(raw)
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, apperrors.ErrInvalidAmount
	}
	if err := services.ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseFlexibleTime accepts RFC3339 timestamps or plain dates (UTC midnight).
func parseFlexibleTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC3339 or YYYY-MM-DD", s)
}

// bindingError maps a gin binding failure to an AppError. A failed
// top_level_category rule is an unknown category rather than bad input.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "top_level_category" {
				return apperrors.WithMessage(apperrors.ErrUnknownCategory, fmt.Sprintf("Unknown category %q", fe.Value()))
			}
			if fe.Tag() == "risk_profile" {
				return apperrors.ErrInvalidRiskProfile
			}
		}
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
