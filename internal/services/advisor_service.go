package services

import (
	"context"

	"helpinvest/internal/advisor"
	"helpinvest/internal/currency"
	"helpinvest/internal/models"
)

// advisorService combines ledger summaries with the user's risk profile.
type advisorService struct {
	ledger LedgerServicer
	users  UserServicer
}

// NewAdvisorService creates a new AdvisorServicer.
func NewAdvisorService(ledger LedgerServicer, users UserServicer) AdvisorServicer {
	return &advisorService{ledger: ledger, users: users}
}

// Analyze returns the allocation rows for the user's current portfolio.
func (s *advisorService) Analyze(ctx context.Context, userID string) ([]advisor.Allocation, error) {
	profile, summary, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return advisor.Analyze(*summary, summary.TotalEstate, profile), nil
}

// Dashboard bundles the summary, allocations and risk profile.
func (s *advisorService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	profile, summary, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		RiskProfile:        profile,
		Summary:            *summary,
		TotalEstate:        summary.TotalEstate,
		TotalEstateDisplay: currency.EUR(summary.TotalEstate),
		Allocations:        advisor.Analyze(*summary, summary.TotalEstate, profile),
	}, nil
}

func (s *advisorService) load(ctx context.Context, userID string) (models.RiskProfile, *models.PortfolioSummary, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return "", nil, err
	}
	summary, err := s.ledger.Summarize(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	profile := user.RiskProfile
	if !profile.Valid() {
		profile = models.RiskProfileBalanced
	}
	return profile, summary, nil
}
