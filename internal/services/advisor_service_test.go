package services

import (
	"context"
	"testing"
	"time"

	"helpinvest/internal/models"
	"helpinvest/internal/testutil"
)

func TestAdvisorAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("balanced_single_savings_deposit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := newTestLedger(db)
		svc := NewAdvisorService(ledger, NewUserService(db, nil))
		user := testutil.CreateTestUser(t, db)

		_, _, err := ledger.Deposit(ctx, user.ID, models.CategorySavings, "Cash", dec("1000"), time.Now())
		testutil.AssertNoError(t, err)

		rows, err := svc.Analyze(ctx, user.ID)
		testutil.AssertNoError(t, err)

		if len(rows) != 1 {
			t.Fatalf("expected 1 allocation, got %d", len(rows))
		}
		row := rows[0]
		if row.Category != models.CategorySavings {
			t.Errorf("expected Savings, got %s", row.Category)
		}
		if row.CurrentPercentage != 1.0 || row.RecommendedPercentage != 0.25 {
			t.Errorf("expected 100%% current and 25%% target, got %v and %v", row.CurrentPercentage, row.RecommendedPercentage)
		}
		testutil.AssertDecimal(t, row.RecommendedBalance, "250")
		testutil.AssertDecimal(t, row.Gap, "-750")
	})

	t.Run("follows_user_profile", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := newTestLedger(db)
		users := NewUserService(db, nil)
		svc := NewAdvisorService(ledger, users)
		user := testutil.CreateTestUser(t, db)

		_, err := users.UpdateRiskProfile(user.ID, "prudent")
		testutil.AssertNoError(t, err)
		_, _, err = ledger.Deposit(ctx, user.ID, models.CategoryStocks, "Equities", dec("400"), time.Now())
		testutil.AssertNoError(t, err)

		rows, err := svc.Analyze(ctx, user.ID)
		testutil.AssertNoError(t, err)
		if rows[0].RecommendedPercentage != 0.2 {
			t.Errorf("expected prudent Stocks target 20%%, got %v", rows[0].RecommendedPercentage)
		}
		testutil.AssertDecimal(t, rows[0].RecommendedBalance, "80")
	})

	t.Run("empty_portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAdvisorService(newTestLedger(db), NewUserService(db, nil))
		user := testutil.CreateTestUser(t, db)

		rows, err := svc.Analyze(ctx, user.ID)
		testutil.AssertNoError(t, err)
		if len(rows) != 0 {
			t.Errorf("expected no allocations, got %d", len(rows))
		}
	})

	t.Run("unknown_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAdvisorService(newTestLedger(db), NewUserService(db, nil))

		_, err := svc.Analyze(ctx, "0190a3c4-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestAdvisorDashboard(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ledger := newTestLedger(db)
	svc := NewAdvisorService(ledger, NewUserService(db, nil))
	user := testutil.CreateTestUser(t, db)

	_, _, err := ledger.Deposit(ctx, user.ID, models.CategorySavings, "Cash", dec("1000"), time.Now())
	testutil.AssertNoError(t, err)
	_, _, err = ledger.Deposit(ctx, user.ID, models.CategoryRealEstate, "SCPI", dec("234.56"), time.Now())
	testutil.AssertNoError(t, err)

	dash, err := svc.Dashboard(ctx, user.ID)
	testutil.AssertNoError(t, err)

	if dash.RiskProfile != models.RiskProfileBalanced {
		t.Errorf("expected balanced profile, got %s", dash.RiskProfile)
	}
	testutil.AssertDecimal(t, dash.TotalEstate, "1234.56")
	if dash.TotalEstateDisplay != "€1,234.56" {
		t.Errorf("expected €1,234.56, got %s", dash.TotalEstateDisplay)
	}
	if len(dash.Allocations) != 2 || dash.Allocations[0].Category != models.CategorySavings {
		t.Errorf("expected Savings then Real Estate, got %+v", dash.Allocations)
	}
	if len(dash.Summary.Categories) != 2 {
		t.Errorf("expected 2 summary categories, got %d", len(dash.Summary.Categories))
	}
}
