package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"helpinvest/internal/advisor"
	apperrors "helpinvest/internal/errors"
	"helpinvest/internal/models"
	"helpinvest/internal/services"
)

func setupAdvisorRouter(handler *AdvisorHandler) *gin.Engine {
	r := gin.New()
	r.GET("/advisor/analysis", injectUserID(testUserID), handler.GetAnalysis)
	r.GET("/dashboard", injectUserID(testUserID), handler.GetDashboard)
	return r
}

func TestAdvisorHandler_GetAnalysis(t *testing.T) {
	t.Run("returns allocations", func(t *testing.T) {
		svc := &mockAdvisorService{
			analyzeFn: func(_ context.Context, userID string) ([]advisor.Allocation, error) {
				if userID != testUserID {
					t.Errorf("expected %s, got %s", testUserID, userID)
				}
				return []advisor.Allocation{{
					Category:              "Savings",
					CurrentBalance:        decimal.NewFromInt(1000),
					CurrentPercentage:     1,
					RecommendedBalance:    decimal.NewFromInt(250),
					RecommendedPercentage: 0.25,
					Gap:                   decimal.NewFromInt(-750),
				}}, nil
			},
		}
		r := setupAdvisorRouter(NewAdvisorHandler(svc))

		rec := doRequest(r, "GET", "/advisor/analysis", "")

		assertStatus(t, rec, http.StatusOK)
		rows := parseJSON(t, rec)["allocations"].([]interface{})
		if len(rows) != 1 {
			t.Fatalf("expected 1 allocation, got %d", len(rows))
		}
		row := rows[0].(map[string]interface{})
		if row["gap"] != "-750" || row["recommended_percentage"] != 0.25 {
			t.Errorf("unexpected allocation %v", row)
		}
	})

	t.Run("returns 404 for unknown user", func(t *testing.T) {
		svc := &mockAdvisorService{
			analyzeFn: func(context.Context, string) ([]advisor.Allocation, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		r := setupAdvisorRouter(NewAdvisorHandler(svc))

		rec := doRequest(r, "GET", "/advisor/analysis", "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "USER_NOT_FOUND")
	})

	t.Run("returns 401 without user", func(t *testing.T) {
		r := gin.New()
		r.GET("/advisor/analysis", NewAdvisorHandler(&mockAdvisorService{}).GetAnalysis)

		rec := doRequest(r, "GET", "/advisor/analysis", "")

		assertStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestAdvisorHandler_GetDashboard(t *testing.T) {
	svc := &mockAdvisorService{
		dashboardFn: func(context.Context, string) (*services.Dashboard, error) {
			return &services.Dashboard{
				RiskProfile:        models.RiskProfileDynamic,
				Summary:            models.PortfolioSummary{Categories: map[string]models.CategorySummary{}},
				TotalEstate:        decimal.RequireFromString("1234.56"),
				TotalEstateDisplay: "€1,234.56",
				Allocations:        []advisor.Allocation{},
			}, nil
		},
	}
	r := setupAdvisorRouter(NewAdvisorHandler(svc))

	rec := doRequest(r, "GET", "/dashboard", "")

	assertStatus(t, rec, http.StatusOK)
	result := parseJSON(t, rec)
	if result["risk_profile"] != "dynamic" {
		t.Errorf("expected dynamic, got %v", result["risk_profile"])
	}
	if result["total_estate_display"] != "€1,234.56" {
		t.Errorf("unexpected display %v", result["total_estate_display"])
	}
}
