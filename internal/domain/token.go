package domain

import "time"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// RevokeReason is the closed set of reasons a token can be revoked with.
type RevokeReason string

const (
	RevokeReasonRotated       RevokeReason = "rotated"
	RevokeReasonLogout        RevokeReason = "logout"
	RevokeReasonReuseDetected RevokeReason = "reuse_detected"
	RevokeReasonExpired       RevokeReason = "expired"
	RevokeReasonAdmin         RevokeReason = "admin"
)

// Token is one issued API token, access or refresh.
//
// Security notes:
// - Only the hash of the secret half is stored (TokenHash); TokenID is public.
// - Rows are never deleted, revocation keeps them for forensics.
// - FamilyID is shared by a login pair and every pair rotated out of it.
type Token struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	UserID int64 `json:"user_id" gorm:"index;not null"`
	User   User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	TokenID   string    `json:"token_id" gorm:"size:32;uniqueIndex;not null"`
	TokenHash string    `json:"-" gorm:"size:64;uniqueIndex;not null"`
	TokenType TokenType `json:"token_type" gorm:"size:16;index;not null"`
	FamilyID  string    `json:"family_id" gorm:"size:36;index;not null"`

	ParentTokenID     *int64 `json:"parent_token_id" gorm:"index"`
	ReplacedByTokenID *int64 `json:"replaced_by_token_id" gorm:"index"`

	ExpiresAt     time.Time     `json:"expires_at" gorm:"index;not null"`
	UsedAt        *time.Time    `json:"used_at"`
	RevokedAt     *time.Time    `json:"revoked_at" gorm:"index"`
	RevokedReason *RevokeReason `json:"revoked_reason" gorm:"size:32"`

	IssuedIP        string `json:"issued_ip" gorm:"size:64"`
	IssuedUserAgent string `json:"issued_user_agent" gorm:"size:512"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Token) TableName() string { return "api_tokens" }

func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *Token) IsRevoked() bool {
	return t.RevokedAt != nil
}

// WasRotated reports whether the token was cleanly exchanged for a newer pair.
func (t *Token) WasRotated() bool {
	return t.RevokedAt != nil &&
		t.RevokedReason != nil && *t.RevokedReason == RevokeReasonRotated &&
		t.ReplacedByTokenID != nil
}
