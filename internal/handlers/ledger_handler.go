package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"helpinvest/internal/currency"
	apperrors "helpinvest/internal/errors"
	"helpinvest/internal/models"
	"helpinvest/internal/pagination"
	"helpinvest/internal/services"
)

// LedgerHandler handles deposits, withdrawals and portfolio reads.
type LedgerHandler struct {
	ledgerService services.LedgerServicer
	auditService  services.AuditServicer
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerService services.LedgerServicer, auditService services.AuditServicer) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService, auditService: auditService}
}

// LedgerEntryRequest is the payload of a deposit or withdrawal. Amount is a
// positive number with at most two decimals, sent as a JSON number or string.
type LedgerEntryRequest struct {
	Category    string          `json:"category" binding:"required,top_level_category" example:"Savings"`
	SubCategory string          `json:"sub_category" binding:"required,max=100" example:"Cash"`
	Amount      json.RawMessage `json:"amount" swaggertype:"string" example:"1000.00"`
	Date        *string         `json:"date" example:"2026-01-31"`
}

// BalanceResponse is the balance of one (category, sub-category) pair.
type BalanceResponse struct {
	Category    string          `json:"category"`
	SubCategory string          `json:"sub_category"`
	Balance     decimal.Decimal `json:"balance" swaggertype:"string"`
}

// LedgerEntryResponse is returned by deposits and withdrawals.
type LedgerEntryResponse struct {
	Transaction models.TransactionEntry `json:"transaction"`
	Balance     BalanceResponse         `json:"balance"`
}

// SummaryResponse is the grouped portfolio with its total estate.
type SummaryResponse struct {
	Categories         map[string]models.CategorySummary `json:"categories"`
	TotalEstate        decimal.Decimal                   `json:"total_estate" swaggertype:"string"`
	TotalEstateDisplay string                            `json:"total_estate_display"`
}

type ledgerMutation func(ctx context.Context, userID, topLevel, sub string, amount decimal.Decimal, at time.Time) (*models.Transaction, *models.Balance, error)

// Deposit records money added to a sub-category.
// @Summary     Deposit
// @Description Add a positive amount to a (category, sub-category) balance, creating it on first use
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body LedgerEntryRequest true "Deposit details"
// @Success     201 {object} LedgerEntryResponse "Deposit recorded"
// @Failure     400 {object} ErrorResponse "Invalid amount or unknown category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ledger/deposits [post]
func (h *LedgerHandler) Deposit(c *gin.Context) {
	h.record(c, h.ledgerService.Deposit, services.AuditActionDeposit)
}

// Withdraw records money taken out of a sub-category.
// @Summary     Withdraw
// @Description Subtract an amount from a balance; fails when the balance is too low
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body LedgerEntryRequest true "Withdrawal details"
// @Success     201 {object} LedgerEntryResponse "Withdrawal recorded"
// @Failure     400 {object} ErrorResponse "Invalid amount, unknown category or insufficient balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ledger/withdrawals [post]
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	h.record(c, h.ledgerService.Withdraw, services.AuditActionWithdraw)
}

func (h *LedgerHandler) record(c *gin.Context, mutate ledgerMutation, action string) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req LedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var at time.Time
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		at = parsed
	}

	entry, balance, err := mutate(c.Request.Context(), userID, req.Category, req.SubCategory, amount, at)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "transaction", entry.ID, c.ClientIP(), map[string]any{
		"category":     req.Category,
		"sub_category": req.SubCategory,
		"amount":       amount.String(),
	})

	c.JSON(http.StatusCreated, LedgerEntryResponse{
		Transaction: models.TransactionEntry{
			ID:          entry.ID,
			Category:    req.Category,
			SubCategory: req.SubCategory,
			Amount:      entry.Amount,
			CreatedAt:   entry.CreatedAt,
		},
		Balance: BalanceResponse{
			Category:    req.Category,
			SubCategory: req.SubCategory,
			Balance:     balance.Amount,
		},
	})
}

// GetWithdrawable lists the balances that can be withdrawn from.
// @Summary     Withdrawable balances
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.WithdrawableBalance "Positive balances"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /ledger/withdrawable [get]
func (h *LedgerHandler) GetWithdrawable(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.ledgerService.WithdrawableBalances(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

// ListTransactions pages through the transaction history, newest first.
// @Summary     Transaction history
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 10, max 100)"
// @Success     200 {object} pagination.PageResponse[models.TransactionEntry] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /ledger/transactions [get]
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.ledgerService.History(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction returns one transaction.
// @Summary     Get transaction
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.TransactionEntry "Transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /ledger/transactions/{id} [get]
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id", apperrors.ErrTransactionNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.ledgerService.GetTransaction(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": entry})
}

// DeleteTransaction removes a transaction and reverses its effect.
// @Summary     Delete transaction
// @Description Hard-delete a transaction and apply the opposite amount to its balance
// @Tags        ledger
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Transaction deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Balance row missing"
// @Router      /ledger/transactions/{id} [delete]
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id", apperrors.ErrTransactionNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledgerService.DeleteTransaction(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDeleteTransaction, "transaction", id, c.ClientIP(), nil)
	c.Status(http.StatusNoContent)
}

// GetSummary returns balances grouped by top-level category.
// @Summary     Portfolio summary
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SummaryResponse "Summary with total estate"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /ledger/summary [get]
func (h *LedgerHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.ledgerService.Summarize(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		Categories:         summary.Categories,
		TotalEstate:        summary.TotalEstate,
		TotalEstateDisplay: currency.EUR(summary.TotalEstate),
	})
}

// GetCategoryDetail lists the sub-category balances of one top-level category.
// @Summary     Category detail
// @Description Name matching ignores case; hyphens and underscores count as spaces (real-estate)
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       name path string true "Top-level category"
// @Success     200 {object} models.CategoryDetail "Sub-category balances"
// @Failure     400 {object} ErrorResponse "Unknown category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /ledger/categories/{name} [get]
func (h *LedgerHandler) GetCategoryDetail(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	detail, err := h.ledgerService.CategoryDetail(c.Request.Context(), userID, c.Param("name"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}
