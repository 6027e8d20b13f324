package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizplatform/internal/domain"
	"quizplatform/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Scope selects how much a revocation covers.
type Scope int

const (
	// ScopeOne ends the sessions of the named tokens: each token's whole family,
	// so an access token and the refresh token issued with it go together.
	ScopeOne Scope = iota
	// ScopeAllDevices revokes every active token of the user.
	ScopeAllDevices
)

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Pepper     string
}

// Pair is a freshly minted access/refresh pair. The bearer strings exist only here.
type Pair struct {
	UserID           int64
	FamilyID         string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Target names what Revoke acts on. TokenIDs are row ids owned by UserID; any
// token of a session identifies it.
type Target struct {
	UserID   int64
	TokenIDs []int64
}

// Service issues, validates, rotates and revokes API tokens.
type Service struct {
	repo Repository
	cfg  Config
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, cfg Config, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		cfg:  cfg,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// IssuePair mints a new access/refresh pair under a fresh family.
func (s *Service) IssuePair(ctx context.Context, userID int64, ip, userAgent string) (*Pair, error) {
	now := s.now()
	access, refresh, pair, err := s.mintPair(userID, uuid.NewString(), now, ip, userAgent)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreatePair(ctx, access, refresh); err != nil {
		return nil, fmt.Errorf("store token pair: %w", err)
	}

	metrics.TokensIssued.WithLabelValues(string(domain.TokenTypeAccess)).Inc()
	metrics.TokensIssued.WithLabelValues(string(domain.TokenTypeRefresh)).Inc()
	return pair, nil
}

// ValidateAccess checks a bearer access token. A valid token says nothing about
// the owner's account state, which callers must still check.
func (s *Service) ValidateAccess(ctx context.Context, bearer string) (*domain.Token, error) {
	t, err := s.Inspect(ctx, bearer)
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch {
	case t.TokenType == domain.TokenTypeRefresh:
		return nil, ErrWrongTokenType
	case t.TokenType != domain.TokenTypeAccess:
		return nil, ErrTokenInvalid
	case t.IsExpired(now):
		return nil, ErrTokenExpired
	case t.IsRevoked():
		return nil, ErrTokenRevoked
	}
	return t, nil
}

// Inspect resolves a bearer string to its record when the secret matches,
// whatever the token's state.
func (s *Service) Inspect(ctx context.Context, bearer string) (*domain.Token, error) {
	tokenID, secret, ok := parseBearer(bearer)
	if !ok {
		return nil, ErrTokenInvalid
	}

	t, err := s.repo.GetByTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("load token: %w", err)
	}
	if !secretMatches(secret, t.TokenHash, s.cfg.Pepper) {
		return nil, ErrTokenInvalid
	}
	return t, nil
}

// Rotate exchanges a refresh token for a new pair in the same family.
//
// The lookup, the decision and every write happen in one transaction with the
// row locked. Presenting a token that was already rotated away revokes its whole
// family and fails with ErrTokenReused; that revocation is committed. Two
// concurrent rotations of one token therefore end with one winner and one
// reuse detection, which logs the winner out as well.
func (s *Service) Rotate(ctx context.Context, bearer, ip, userAgent string) (*Pair, error) {
	tokenID, secret, ok := parseBearer(bearer)
	if !ok {
		metrics.TokenRotations.WithLabelValues(ErrTokenInvalid.Code).Inc()
		return nil, ErrTokenInvalid
	}

	var (
		pair    *Pair
		outcome *Error
	)
	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.LockByTokenID(ctx, tokenID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				outcome = ErrTokenInvalid
				return nil
			}
			return fmt.Errorf("lock refresh token: %w", err)
		}
		if current.TokenType != domain.TokenTypeRefresh || !secretMatches(secret, current.TokenHash, s.cfg.Pepper) {
			outcome = ErrTokenInvalid
			return nil
		}

		now := s.now()
		if outcome, err = s.rejectUnusable(ctx, current, now); err != nil || outcome != nil {
			return err
		}

		access, refresh, next, err := s.mintPair(current.UserID, current.FamilyID, now, ip, userAgent)
		if err != nil {
			return err
		}
		err = s.repo.RotateRefreshToken(ctx, current.ID, access, refresh, now)
		if errors.Is(err, domain.ErrTokenAlreadyRevoked) {
			// Lost a race the row lock did not prevent; judge the token as it is now.
			latest, lerr := s.repo.GetByTokenID(ctx, tokenID)
			if lerr != nil {
				return fmt.Errorf("reload refresh token: %w", lerr)
			}
			if outcome, err = s.rejectUnusable(ctx, latest, now); err != nil {
				return err
			}
			if outcome == nil {
				outcome = ErrTokenRevoked
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("rotate refresh token: %w", err)
		}

		pair = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		metrics.TokenRotations.WithLabelValues(outcome.Code).Inc()
		return nil, outcome
	}

	metrics.TokenRotations.WithLabelValues("ok").Inc()
	metrics.TokensIssued.WithLabelValues(string(domain.TokenTypeAccess)).Inc()
	metrics.TokensIssued.WithLabelValues(string(domain.TokenTypeRefresh)).Inc()
	metrics.TokensRevoked.WithLabelValues(string(domain.RevokeReasonRotated)).Inc()
	return pair, nil
}

// rejectUnusable applies the refresh decision table. A nil outcome means the
// token may be rotated; err is a storage failure.
func (s *Service) rejectUnusable(ctx context.Context, t *domain.Token, now time.Time) (*Error, error) {
	switch {
	case t.WasRotated():
		n, err := s.repo.RevokeFamily(ctx, t.FamilyID, domain.RevokeReasonReuseDetected, now)
		if err != nil {
			return nil, fmt.Errorf("revoke token family: %w", err)
		}
		metrics.TokensRevoked.WithLabelValues(string(domain.RevokeReasonReuseDetected)).Add(float64(n))
		s.log.Warn("refresh token reuse detected, family revoked",
			zap.Int64("user_id", t.UserID),
			zap.String("family_id", t.FamilyID),
			zap.String("token_id", t.TokenID),
			zap.Int64("revoked", n),
		)
		return ErrTokenReused, nil
	case t.IsRevoked():
		return ErrTokenRevoked, nil
	case t.IsExpired(now):
		return ErrTokenExpired, nil
	}
	return nil, nil
}

// Revoke revokes tokens for logout or administration. Tokens already revoked
// keep their original reason, so repeating a call is a no-op success.
func (s *Service) Revoke(ctx context.Context, target Target, reason domain.RevokeReason, scope Scope) (int64, error) {
	now := s.now()

	var (
		n   int64
		err error
	)
	switch scope {
	case ScopeAllDevices:
		n, err = s.repo.RevokeByUser(ctx, target.UserID, reason, now)
	default:
		n, err = s.repo.RevokeSessions(ctx, target.UserID, target.TokenIDs, reason, now)
	}
	if err != nil {
		return 0, fmt.Errorf("revoke tokens: %w", err)
	}

	metrics.TokensRevoked.WithLabelValues(string(reason)).Add(float64(n))
	return n, nil
}

// RevokeFamily ends one device session: every active token sharing familyID.
func (s *Service) RevokeFamily(ctx context.Context, familyID string, reason domain.RevokeReason) (int64, error) {
	n, err := s.repo.RevokeFamily(ctx, familyID, reason, s.now())
	if err != nil {
		return 0, fmt.Errorf("revoke token family: %w", err)
	}
	metrics.TokensRevoked.WithLabelValues(string(reason)).Add(float64(n))
	return n, nil
}

// ExpireStale marks every expired, still-active token as revoked with reason expired.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.repo.RevokeExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire stale tokens: %w", err)
	}
	metrics.TokensRevoked.WithLabelValues(string(domain.RevokeReasonExpired)).Add(float64(n))
	return n, nil
}

func (s *Service) mintPair(userID int64, familyID string, now time.Time, ip, userAgent string) (*domain.Token, *domain.Token, *Pair, error) {
	access, accessBearer, err := s.mint(userID, domain.TokenTypeAccess, familyID, now.Add(s.cfg.AccessTTL), ip, userAgent)
	if err != nil {
		return nil, nil, nil, err
	}
	refresh, refreshBearer, err := s.mint(userID, domain.TokenTypeRefresh, familyID, now.Add(s.cfg.RefreshTTL), ip, userAgent)
	if err != nil {
		return nil, nil, nil, err
	}

	return access, refresh, &Pair{
		UserID:           userID,
		FamilyID:         familyID,
		AccessToken:      accessBearer,
		RefreshToken:     refreshBearer,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

func (s *Service) mint(userID int64, typ domain.TokenType, familyID string, expiresAt time.Time, ip, userAgent string) (*domain.Token, string, error) {
	tokenID, err := randomString(tokenIDBytes)
	if err != nil {
		return nil, "", fmt.Errorf("generate token id: %w", err)
	}
	secret, err := randomString(secretBytes)
	if err != nil {
		return nil, "", fmt.Errorf("generate token secret: %w", err)
	}

	if len(userAgent) > 512 {
		userAgent = userAgent[:512]
	}

	return &domain.Token{
		UserID:          userID,
		TokenID:         tokenID,
		TokenHash:       hashSecret(secret, s.cfg.Pepper),
		TokenType:       typ,
		FamilyID:        familyID,
		ExpiresAt:       expiresAt,
		IssuedIP:        ip,
		IssuedUserAgent: userAgent,
	}, formatBearer(tokenID, secret), nil
}
