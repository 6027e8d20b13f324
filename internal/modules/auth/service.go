package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"quizplatform/internal/domain"
	"quizplatform/internal/metrics"
	"quizplatform/internal/modules/token"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const loginAction = "login"

type Config struct {
	LoginLimit  int
	LoginWindow time.Duration
}

// Service contains the login, session and account-state logic.
type Service struct {
	users   UserRepository
	tokens  TokenService
	audit   AuditSink
	limiter LoginLimiter
	cfg     Config
	log     *zap.Logger
	now     func() time.Time
}

func NewService(users UserRepository, tokens TokenService, audit AuditSink, limiter LoginLimiter, cfg Config, log *zap.Logger) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		audit:   audit,
		limiter: limiter,
		cfg:     cfg,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ValidateUserState decides whether an account may use the API right now.
// It runs on every login and every authenticated request.
func ValidateUserState(u *domain.User) error {
	switch {
	case u.IsBlocked:
		return ErrUserBlocked
	case !u.IsActive:
		return ErrUserInactive
	}
	return nil
}

// Login checks credentials and issues a fresh token pair. Unknown emails and wrong
// passwords fail the same way.
func (s *Service) Login(ctx context.Context, req LoginRequest, ip, userAgent string) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	limitKey := email + "|" + ip

	if allowed, err := s.limiter.IsAllowed(ctx, loginAction, limitKey, s.cfg.LoginLimit, s.cfg.LoginWindow); err != nil {
		s.log.Warn("login rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		metrics.RateLimited.WithLabelValues(loginAction).Inc()
		return nil, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password))
		s.recordFailure(ctx, limitKey)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailure(ctx, limitKey)
		return nil, ErrInvalidCredentials
	}

	if err := ValidateUserState(user); err != nil {
		s.log.Info("login refused by account state",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
		return nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID, ip, userAgent)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("update last login failed", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}
	if err := s.limiter.Reset(ctx, loginAction, limitKey); err != nil {
		s.log.Warn("login rate limiter reset failed", zap.Error(err))
	}

	if err := s.audit.RecordDeviceLogin(ctx, user.ID, ip, userAgent); err != nil {
		s.log.Warn("record device login failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	s.recordActivity(ctx, user.ID, "login", ip, userAgent)

	return &LoginResult{User: user, Pair: pair}, nil
}

// Refresh rotates a refresh token. When the owner can no longer use the API the
// freshly rotated session is revoked again and the account error is returned.
func (s *Service) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*LoginResult, error) {
	pair, err := s.tokens.Rotate(ctx, refreshToken, ip, userAgent)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, pair.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, token.ErrTokenInvalid
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := ValidateUserState(user); err != nil {
		if _, rerr := s.tokens.RevokeFamily(ctx, pair.FamilyID, domain.RevokeReasonAdmin); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	return &LoginResult{User: user, Pair: pair}, nil
}

// Logout revokes the presented session, or every session of the owner with
// AllDevices. Tokens that do not resolve are ignored, so logout always succeeds
// unless storage fails.
func (s *Service) Logout(ctx context.Context, req LogoutRequest, bearer, ip, userAgent string) error {
	var (
		userID int64
		ids    []int64
	)
	for _, raw := range []string{req.RefreshToken, bearer} {
		if raw == "" {
			continue
		}
		t, err := s.tokens.Inspect(ctx, raw)
		if err != nil {
			if _, isToken := token.AsError(err); isToken {
				continue
			}
			return err
		}
		if userID != 0 && t.UserID != userID {
			continue
		}
		userID = t.UserID
		ids = append(ids, t.ID)
	}
	if userID == 0 {
		return nil
	}

	scope := token.ScopeOne
	if req.AllDevices {
		scope = token.ScopeAllDevices
	}
	if _, err := s.tokens.Revoke(ctx, token.Target{UserID: userID, TokenIDs: ids}, domain.RevokeReasonLogout, scope); err != nil {
		return err
	}

	action := "logout"
	if req.AllDevices {
		action = "logout_all_devices"
	}
	s.recordActivity(ctx, userID, action, ip, userAgent)
	return nil
}

// Authenticate resolves a bearer access token to the identity of a user allowed
// to use the API.
func (s *Service) Authenticate(ctx context.Context, bearer string) (*domain.AuthenticatedUser, error) {
	t, err := s.tokens.ValidateAccess(ctx, bearer)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, token.ErrTokenInvalid
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := ValidateUserState(user); err != nil {
		return nil, err
	}

	return &domain.AuthenticatedUser{
		UserID:     user.ID,
		Role:       user.Role,
		TokenRowID: t.ID,
		TokenID:    t.TokenID,
		FamilyID:   t.FamilyID,
		User:       user,
	}, nil
}

func (s *Service) CurrentUser(ctx context.Context, ident *domain.AuthenticatedUser) (*domain.User, error) {
	if ident.User != nil {
		return ident.User, nil
	}
	user, err := s.users.GetByID(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, ident *domain.AuthenticatedUser, req UpdateProfileRequest, ip, userAgent string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.PreferredLanguageID != nil {
		user.PreferredLanguageID = req.PreferredLanguageID
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	s.recordActivity(ctx, user.ID, "profile_update", ip, userAgent)
	return user, nil
}

// RevokeUserTokens logs a user out of every device on an administrator's behalf.
func (s *Service) RevokeUserTokens(ctx context.Context, admin *domain.AuthenticatedUser, userID int64) (int64, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("load user: %w", err)
	}

	n, err := s.tokens.Revoke(ctx, token.Target{UserID: userID}, domain.RevokeReasonAdmin, token.ScopeAllDevices)
	if err != nil {
		return 0, err
	}

	s.log.Info("user tokens revoked by admin",
		zap.Int64("admin_id", admin.UserID),
		zap.Int64("user_id", userID),
		zap.Int64("revoked", n),
	)
	s.recordActivity(ctx, userID, "tokens_revoked_by_admin", "", "")
	return n, nil
}

func (s *Service) recordFailure(ctx context.Context, limitKey string) {
	if _, err := s.limiter.Hit(ctx, loginAction, limitKey, s.cfg.LoginWindow); err != nil {
		s.log.Warn("login rate limiter unavailable", zap.Error(err))
	}
}

func (s *Service) recordActivity(ctx context.Context, userID int64, action, ip, userAgent string) {
	if err := s.audit.RecordActivity(ctx, userID, action, ip, userAgent); err != nil {
		s.log.Warn("record activity failed",
			zap.Int64("user_id", userID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

// dummyHash is compared against when the email is unknown so both failure paths
// spend a bcrypt comparison.
func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("quizplatform-dummy-password"), bcrypt.DefaultCost)
	})
	return dummy
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
