package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"quizplatform/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(fmt.Sprintf("file:database_%s?mode=memory&cache=shared", t.Name()), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	db := openTestDB(t)

	first := &domain.User{Email: "dup@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(first).Error)

	err := db.Create(&domain.User{Email: "dup@example.com", PasswordHash: "y"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestIsUniqueViolation_Postgres(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestInTransaction_RollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := InTransaction(ctx, db, func(ctx context.Context) error {
		if err := Conn(ctx, db).Create(&domain.User{Email: "tx@example.com", PasswordHash: "x"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&domain.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInTransaction_CommitsOnSuccess(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := InTransaction(ctx, db, func(ctx context.Context) error {
		return Conn(ctx, db).Create(&domain.User{Email: "ok@example.com", PasswordHash: "x"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
