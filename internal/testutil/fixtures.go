package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"helpinvest/internal/codec"
	"helpinvest/internal/models"
	"helpinvest/internal/uuid"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a balanced-profile user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		AuthSubject: "local:" + uuid.New(),
		Email:       email,
		Password:    string(hash),
		RiskProfile: models.RiskProfileBalanced,
		IsActive:    true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// GetCategory loads a seeded category.
func GetCategory(t *testing.T, db *gorm.DB, topLevel, sub string) *models.Category {
	t.Helper()

	var cat models.Category
	if err := db.Where("top_level_name = ? AND sub_category_name = ?", topLevel, sub).First(&cat).Error; err != nil {
		t.Fatalf("failed to load category %s/%s: %v", topLevel, sub, err)
	}
	return &cat
}

// CreateTestEntry writes a transaction and moves the matching balance by the
// same signed amount, bypassing ledger validation.
func CreateTestEntry(t *testing.T, db *gorm.DB, amounts codec.AmountCodec, userID, topLevel, sub, amount string) *models.Transaction {
	t.Helper()

	cat := GetCategory(t, db, topLevel, sub)
	signed := decimal.RequireFromString(amount)

	encoded, err := amounts.Encode(signed)
	if err != nil {
		t.Fatalf("failed to encode amount: %v", err)
	}
	entry := &models.Transaction{
		UserID:        userID,
		CategoryID:    cat.ID,
		EncodedAmount: encoded,
		Amount:        signed,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}

	current := GetBalance(t, db, amounts, userID, cat.ID)
	SetBalance(t, db, amounts, userID, cat.ID, current.Add(signed))
	return entry
}

// GetBalance decodes the stored balance, returning zero when no row exists.
func GetBalance(t *testing.T, db *gorm.DB, amounts codec.AmountCodec, userID, categoryID string) decimal.Decimal {
	t.Helper()

	var row models.Balance
	err := db.Where("user_id = ? AND category_id = ?", userID, categoryID).Limit(1).Find(&row).Error
	if err != nil {
		t.Fatalf("failed to load balance: %v", err)
	}
	if row.UserID == "" {
		return decimal.Zero
	}
	amount, err := amounts.Decode(row.EncodedAmount)
	if err != nil {
		t.Fatalf("failed to decode balance: %v", err)
	}
	return amount
}

// SetBalance overwrites (or creates) a balance row.
func SetBalance(t *testing.T, db *gorm.DB, amounts codec.AmountCodec, userID, categoryID string, amount decimal.Decimal) {
	t.Helper()

	encoded, err := amounts.Encode(amount)
	if err != nil {
		t.Fatalf("failed to encode balance: %v", err)
	}
	row := models.Balance{UserID: userID, CategoryID: categoryID, EncodedAmount: encoded}
	if err := db.Save(&row).Error; err != nil {
		t.Fatalf("failed to save balance: %v", err)
	}
}

// CountRows returns the number of rows of model matching the user.
func CountRows(t *testing.T, db *gorm.DB, model interface{}, userID string) int64 {
	t.Helper()

	var n int64
	if err := db.Model(model).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
