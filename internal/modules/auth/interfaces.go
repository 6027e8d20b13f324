package auth

import (
	"context"
	"time"

	"quizplatform/internal/domain"
	"quizplatform/internal/modules/token"
)

// UserRepository is the credential store the service needs.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Save(ctx context.Context, u *domain.User) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// TokenService is implemented by *token.Service.
type TokenService interface {
	IssuePair(ctx context.Context, userID int64, ip, userAgent string) (*token.Pair, error)
	ValidateAccess(ctx context.Context, bearer string) (*domain.Token, error)
	Rotate(ctx context.Context, bearer, ip, userAgent string) (*token.Pair, error)
	Inspect(ctx context.Context, bearer string) (*domain.Token, error)
	Revoke(ctx context.Context, target token.Target, reason domain.RevokeReason, scope token.Scope) (int64, error)
	RevokeFamily(ctx context.Context, familyID string, reason domain.RevokeReason) (int64, error)
}

// AuditSink records device and activity logs. Failures never fail a request.
type AuditSink interface {
	RecordDeviceLogin(ctx context.Context, userID int64, ip, userAgent string) error
	RecordActivity(ctx context.Context, userID int64, action, ip, userAgent string) error
}

// LoginLimiter is implemented by *ratelimit.Limiter.
type LoginLimiter interface {
	IsAllowed(ctx context.Context, action, key string, limit int, window time.Duration) (bool, error)
	Hit(ctx context.Context, action, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, action, key string) error
}
