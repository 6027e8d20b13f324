package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"quizplatform/internal/database"
	"quizplatform/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", name), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, PasswordHash: "hash", Role: domain.RoleUser, IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

func newToken(userID int64, tokenID string, typ domain.TokenType, family string, ttl time.Duration) *domain.Token {
	return &domain.Token{
		UserID:    userID,
		TokenID:   tokenID,
		TokenHash: "hash-" + tokenID,
		TokenType: typ,
		FamilyID:  family,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
}
