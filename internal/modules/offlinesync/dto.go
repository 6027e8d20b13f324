package offlinesync

import "quizplatform/internal/domain"

type Status string

const (
	StatusSynced    Status = "synced"
	StatusDuplicate Status = "duplicate"
	StatusError     Status = "error"
)

// Item is one attempt completed while the client was offline.
type Item struct {
	ClientAttemptID string                   `json:"client_attempt_id" validate:"required,min=1,max=64"`
	TestID          int64                    `json:"test_id" validate:"required,gt=0"`
	LanguageID      int64                    `json:"language_id" validate:"required,gt=0"`
	Answers         []domain.SubmittedAnswer `json:"answers" validate:"dive"`
}

type SyncRequest struct {
	Attempts []Item `json:"attempts" validate:"required,min=1"`
}

type ItemResult struct {
	ClientAttemptID string `json:"client_attempt_id"`
	Status          Status `json:"status"`
	AttemptID       *int64 `json:"attempt_id,omitempty"`
	Score           *int   `json:"score,omitempty"`
	Error           string `json:"error,omitempty"`
}
