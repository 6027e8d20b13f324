package repository

import (
	"context"
	"time"

	"quizplatform/internal/database"
	"quizplatform/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository provides DB access for API tokens. Methods called with a ctx
// obtained from WithinTransaction run inside that transaction.
type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.InTransaction(ctx, r.db, fn)
}

// CreatePair inserts an access and a refresh token atomically.
func (r *TokenRepository) CreatePair(ctx context.Context, access, refresh *domain.Token) error {
	return database.InTransaction(ctx, r.db, func(ctx context.Context) error {
		tx := database.Conn(ctx, r.db)
		if err := tx.Create(access).Error; err != nil {
			return err
		}
		return tx.Create(refresh).Error
	})
}

// GetByTokenID returns gorm.ErrRecordNotFound when the public id is unknown.
func (r *TokenRepository) GetByTokenID(ctx context.Context, tokenID string) (*domain.Token, error) {
	var t domain.Token
	err := database.Conn(ctx, r.db).Where("token_id = ?", tokenID).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LockByTokenID reads the row with SELECT ... FOR UPDATE. SQLite ignores the
// locking clause; its single writer connection serializes the transaction instead.
func (r *TokenRepository) LockByTokenID(ctx context.Context, tokenID string) (*domain.Token, error) {
	var t domain.Token
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token_id = ?", tokenID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RotateRefreshToken marks old as rotated and inserts the new pair, all or nothing.
// The old row is only updated while still unrevoked; when another caller got there
// first it returns domain.ErrTokenAlreadyRevoked and nothing is written.
func (r *TokenRepository) RotateRefreshToken(ctx context.Context, oldID int64, access, refresh *domain.Token, now time.Time) error {
	return database.InTransaction(ctx, r.db, func(ctx context.Context) error {
		tx := database.Conn(ctx, r.db)

		reason := domain.RevokeReasonRotated
		res := tx.Model(&domain.Token{}).
			Where("id = ? AND revoked_at IS NULL", oldID).
			Updates(map[string]any{
				"used_at":        now,
				"revoked_at":     now,
				"revoked_reason": reason,
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return domain.ErrTokenAlreadyRevoked
		}

		refresh.ParentTokenID = &oldID
		if err := tx.Create(access).Error; err != nil {
			return err
		}
		if err := tx.Create(refresh).Error; err != nil {
			return err
		}

		return tx.Model(&domain.Token{}).
			Where("id = ?", oldID).
			Update("replaced_by_token_id", refresh.ID).Error
	})
}

// RevokeFamily revokes every still-active token sharing familyID.
func (r *TokenRepository) RevokeFamily(ctx context.Context, familyID string, reason domain.RevokeReason, now time.Time) (int64, error) {
	return r.revokeWhere(ctx, reason, now, "family_id = ?", familyID)
}

// RevokeSessions revokes every active token in the families of the given rows.
// Rows not owned by userID are ignored.
func (r *TokenRepository) RevokeSessions(ctx context.Context, userID int64, ids []int64, reason domain.RevokeReason, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var families []string
	err := database.Conn(ctx, r.db).Model(&domain.Token{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Distinct().
		Pluck("family_id", &families).Error
	if err != nil {
		return 0, err
	}
	if len(families) == 0 {
		return 0, nil
	}
	return r.revokeWhere(ctx, reason, now, "user_id = ? AND family_id IN ?", userID, families)
}

// RevokeByUser revokes every active token of the user across all families.
func (r *TokenRepository) RevokeByUser(ctx context.Context, userID int64, reason domain.RevokeReason, now time.Time) (int64, error) {
	return r.revokeWhere(ctx, reason, now, "user_id = ?", userID)
}

// RevokeExpired marks expired but unrevoked tokens so audits can tell them apart.
// Rows are kept.
func (r *TokenRepository) RevokeExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.revokeWhere(ctx, domain.RevokeReasonExpired, now, "expires_at <= ?", now)
}

// ListByFamily returns a family ordered by issue time, oldest first.
func (r *TokenRepository) ListByFamily(ctx context.Context, familyID string) ([]domain.Token, error) {
	var out []domain.Token
	err := database.Conn(ctx, r.db).
		Where("family_id = ?", familyID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *TokenRepository) revokeWhere(ctx context.Context, reason domain.RevokeReason, now time.Time, query string, args ...any) (int64, error) {
	res := database.Conn(ctx, r.db).Model(&domain.Token{}).
		Where(query, args...).
		Where("revoked_at IS NULL").
		Updates(map[string]any{
			"revoked_at":     now,
			"revoked_reason": reason,
			"updated_at":     now,
		})
	return res.RowsAffected, res.Error
}
