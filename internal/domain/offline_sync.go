package domain

import "time"

// OfflineSyncAttempt marks a client-generated attempt id as already accepted.
// The (UserID, ClientAttemptID) pair is unique; rows are never deleted.
type OfflineSyncAttempt struct {
	ID              int64     `json:"id" gorm:"primaryKey"`
	UserID          int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_offline_sync_user_client"`
	ClientAttemptID string    `json:"client_attempt_id" gorm:"size:64;not null;uniqueIndex:idx_offline_sync_user_client"`
	TestAttemptID   *int64    `json:"test_attempt_id" gorm:"index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (OfflineSyncAttempt) TableName() string { return "offline_sync_attempts" }
