package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"helpinvest/internal/advisor"
	"helpinvest/internal/logger"
	"helpinvest/internal/models"
	"helpinvest/internal/pagination"
	"helpinvest/internal/services"
	"helpinvest/internal/validator"
)

const (
	testUserID = "0190a3c4-aaaa-7000-8000-000000000001"
	testTxID   = "0190a3c4-bbbb-7000-8000-000000000002"
)

// --- mock services ---

type mockUserService struct {
	createUserFn            func(email, password, username string) (*models.User, error)
	getUserByEmailFn        func(email string) (*models.User, error)
	getUserByIDFn           func(id string) (*models.User, error)
	verifyPasswordFn        func(user *models.User, password string) bool
	attemptLoginFn          func(email, password string) (*models.User, error)
	storeRefreshTokenHashFn func(userID, tokenHash string) error
	getRefreshTokenHashFn   func(userID string) (string, error)
	updateRiskProfileFn     func(userID, profile string) (*models.User, error)
	deleteAccountFn         func(ctx context.Context, userID string) error
}

func (m *mockUserService) CreateUser(email, password, username string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, username)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

func (m *mockUserService) AttemptLogin(email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) StoreRefreshTokenHash(userID, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) GetRefreshTokenHash(userID string) (string, error) {
	if m.getRefreshTokenHashFn != nil {
		return m.getRefreshTokenHashFn(userID)
	}
	return "", nil
}

func (m *mockUserService) UpdateRiskProfile(userID, profile string) (*models.User, error) {
	if m.updateRiskProfileFn != nil {
		return m.updateRiskProfileFn(userID, profile)
	}
	p, _ := models.ParseRiskProfile(profile)
	return &models.User{Base: models.Base{ID: userID}, RiskProfile: p}, nil
}

func (m *mockUserService) DeleteAccount(ctx context.Context, userID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, userID)
	}
	return nil
}

type mockLedgerService struct {
	depositFn              func(ctx context.Context, userID, topLevel, sub string, amount decimal.Decimal, at time.Time) (*models.Transaction, *models.Balance, error)
	withdrawFn             func(ctx context.Context, userID, topLevel, sub string, amount decimal.Decimal, at time.Time) (*models.Transaction, *models.Balance, error)
	deleteTransactionFn    func(ctx context.Context, userID, transactionID string) error
	getTransactionFn       func(ctx context.Context, userID, transactionID string) (*models.TransactionEntry, error)
	summarizeFn            func(ctx context.Context, userID string) (*models.PortfolioSummary, error)
	historyFn              func(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.TransactionEntry], error)
	categoryDetailFn       func(ctx context.Context, userID, topLevel string) (*models.CategoryDetail, error)
	withdrawableBalancesFn func(ctx context.Context, userID string) ([]models.WithdrawableBalance, error)
}

func (m *mockLedgerService) Deposit(ctx context.Context, userID, topLevel, sub string, amount decimal.Decimal, at time.Time) (*models.Transaction, *models.Balance, error) {
	if m.depositFn != nil {
		return m.depositFn(ctx, userID, topLevel, sub, amount, at)
	}
	return &models.Transaction{ID: testTxID, Amount: amount}, &models.Balance{Amount: amount}, nil
}

func (m *mockLedgerService) Withdraw(ctx context.Context, userID, topLevel, sub string, amount decimal.Decimal, at time.Time) (*models.Transaction, *models.Balance, error) {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID, topLevel, sub, amount, at)
	}
	return &models.Transaction{ID: testTxID, Amount: amount.Neg()}, &models.Balance{}, nil
}

func (m *mockLedgerService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(ctx, userID, transactionID)
	}
	return nil
}

func (m *mockLedgerService) GetTransaction(ctx context.Context, userID, transactionID string) (*models.TransactionEntry, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(ctx, userID, transactionID)
	}
	return &models.TransactionEntry{ID: transactionID}, nil
}

func (m *mockLedgerService) Summarize(ctx context.Context, userID string) (*models.PortfolioSummary, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, userID)
	}
	return &models.PortfolioSummary{Categories: map[string]models.CategorySummary{}}, nil
}

func (m *mockLedgerService) History(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.TransactionEntry], error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, userID, page)
	}
	page.Defaults()
	resp := pagination.NewPageResponse[models.TransactionEntry](nil, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockLedgerService) CategoryDetail(ctx context.Context, userID, topLevel string) (*models.CategoryDetail, error) {
	if m.categoryDetailFn != nil {
		return m.categoryDetailFn(ctx, userID, topLevel)
	}
	return &models.CategoryDetail{Category: topLevel, SubCategories: map[string]decimal.Decimal{}}, nil
}

func (m *mockLedgerService) WithdrawableBalances(ctx context.Context, userID string) ([]models.WithdrawableBalance, error) {
	if m.withdrawableBalancesFn != nil {
		return m.withdrawableBalancesFn(ctx, userID)
	}
	return []models.WithdrawableBalance{}, nil
}

type mockCategoryService struct {
	groupedFn func(ctx context.Context) (map[string][]string, error)
}

func (m *mockCategoryService) Seed(context.Context) (int, error) { return 0, nil }

func (m *mockCategoryService) List(context.Context) ([]models.Category, error) {
	return models.DefaultCategories(), nil
}

func (m *mockCategoryService) Grouped(ctx context.Context) (map[string][]string, error) {
	if m.groupedFn != nil {
		return m.groupedFn(ctx)
	}
	return map[string][]string{}, nil
}

func (m *mockCategoryService) Lookup(_ context.Context, topLevel, sub string) (*models.Category, error) {
	return &models.Category{TopLevelName: topLevel, SubCategoryName: sub}, nil
}

func (m *mockCategoryService) ResolveTopLevel(_ context.Context, name string) (string, error) {
	return name, nil
}

type mockAdvisorService struct {
	analyzeFn   func(ctx context.Context, userID string) ([]advisor.Allocation, error)
	dashboardFn func(ctx context.Context, userID string) (*services.Dashboard, error)
}

func (m *mockAdvisorService) Analyze(ctx context.Context, userID string) ([]advisor.Allocation, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, userID)
	}
	return []advisor.Allocation{}, nil
}

func (m *mockAdvisorService) Dashboard(ctx context.Context, userID string) (*services.Dashboard, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx, userID)
	}
	return &services.Dashboard{}, nil
}

type mockSnapshotService struct {
	recordSnapshotsFn func(ctx context.Context, recordedAt time.Time) (int, error)
	getSnapshotsFn    func(ctx context.Context, userID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error)
}

func (m *mockSnapshotService) RecordSnapshots(ctx context.Context, recordedAt time.Time) (int, error) {
	if m.recordSnapshotsFn != nil {
		return m.recordSnapshotsFn(ctx, recordedAt)
	}
	return 0, nil
}

func (m *mockSnapshotService) RecordUserSnapshot(_ context.Context, userID string, recordedAt time.Time) (*models.PortfolioSnapshot, error) {
	return &models.PortfolioSnapshot{UserID: userID, RecordedAt: recordedAt}, nil
}

func (m *mockSnapshotService) GetSnapshots(ctx context.Context, userID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
	if m.getSnapshotsFn != nil {
		return m.getSnapshotsFn(ctx, userID, from, to, page)
	}
	page.Defaults()
	resp := pagination.NewPageResponse[models.PortfolioSnapshot](nil, page.Page, page.PageSize, 0)
	return &resp, nil
}

type auditEntry struct {
	UserID     string
	Action     string
	ResourceID string
	Changes    map[string]any
}

type mockAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, _, resourceID, _ string, changes map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{UserID: userID, Action: action, ResourceID: resourceID, Changes: changes})
}

func (m *mockAuditService) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
