package token

import (
	"context"
	"time"

	"quizplatform/internal/domain"
)

// Repository is the token storage the service needs.
type Repository interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	CreatePair(ctx context.Context, access, refresh *domain.Token) error
	GetByTokenID(ctx context.Context, tokenID string) (*domain.Token, error)
	LockByTokenID(ctx context.Context, tokenID string) (*domain.Token, error)
	RotateRefreshToken(ctx context.Context, oldID int64, access, refresh *domain.Token, now time.Time) error
	RevokeFamily(ctx context.Context, familyID string, reason domain.RevokeReason, now time.Time) (int64, error)
	RevokeSessions(ctx context.Context, userID int64, ids []int64, reason domain.RevokeReason, now time.Time) (int64, error)
	RevokeByUser(ctx context.Context, userID int64, reason domain.RevokeReason, now time.Time) (int64, error)
	RevokeExpired(ctx context.Context, now time.Time) (int64, error)
}
