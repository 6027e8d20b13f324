package repository

import (
	"context"
	"testing"
	"time"

	"quizplatform/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &domain.User{Email: "  Mixed@Example.COM ", PasswordHash: "h", Role: domain.RoleUser, IsActive: true}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "mixed@example.com", u.Email)

	got, err := repo.GetByEmail(ctx, "MIXED@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.TouchLastLogin(ctx, u.ID, at))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(at))

	got.Name = "Aigerim"
	got.IsBlocked = true
	require.NoError(t, repo.Save(ctx, got))
	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aigerim", again.Name)
	assert.True(t, again.IsBlocked)
}
