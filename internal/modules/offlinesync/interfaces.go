package offlinesync

import (
	"context"

	"quizplatform/internal/domain"
)

// MarkerRepository stores the (user, client attempt id) markers.
type MarkerRepository interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, m *domain.OfflineSyncAttempt) error
	AttachAttempt(ctx context.Context, id, testAttemptID int64) error
	GetByClientID(ctx context.Context, userID int64, clientAttemptID string) (*domain.OfflineSyncAttempt, error)
}

// AttemptCreator scores and stores a finished attempt.
type AttemptCreator interface {
	CreateAttempt(ctx context.Context, userID, testID, languageID int64, answers []domain.SubmittedAnswer, source domain.AttemptSource) (int64, int, error)
}
