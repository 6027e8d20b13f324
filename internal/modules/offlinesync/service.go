package offlinesync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quizplatform/internal/database"
	"quizplatform/internal/domain"
	"quizplatform/internal/metrics"
	"quizplatform/internal/pkg/validator"
	"quizplatform/internal/repository"

	"go.uber.org/zap"
)

// Service accepts attempts submitted after the fact. Replaying an item any number
// of times stores and scores it once.
type Service struct {
	markers  MarkerRepository
	attempts AttemptCreator
	maxBatch int
	log      *zap.Logger
}

func NewService(markers MarkerRepository, attempts AttemptCreator, maxBatch int, log *zap.Logger) *Service {
	return &Service{
		markers:  markers,
		attempts: attempts,
		maxBatch: maxBatch,
		log:      log,
	}
}

// Submit processes every item on its own; one item failing never undoes another.
func (s *Service) Submit(ctx context.Context, ident *domain.AuthenticatedUser, items []Item) ([]ItemResult, error) {
	if len(items) > s.maxBatch {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(items), s.maxBatch)
	}

	results := make([]ItemResult, 0, len(items))
	for _, item := range items {
		res := s.submitOne(ctx, ident.UserID, item)
		metrics.OfflineSyncItems.WithLabelValues(string(res.Status)).Inc()
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) submitOne(ctx context.Context, userID int64, item Item) ItemResult {
	item.ClientAttemptID = strings.TrimSpace(item.ClientAttemptID)
	res := ItemResult{ClientAttemptID: item.ClientAttemptID}

	if errs := validator.Validate(item); errs != nil {
		res.Status = StatusError
		res.Error = codeValidation
		return res
	}

	var (
		attemptID int64
		score     int
	)
	err := s.markers.WithinTransaction(ctx, func(ctx context.Context) error {
		marker := &domain.OfflineSyncAttempt{UserID: userID, ClientAttemptID: item.ClientAttemptID}
		if err := s.markers.Create(ctx, marker); err != nil {
			return err
		}

		id, sc, err := s.attempts.CreateAttempt(ctx, userID, item.TestID, item.LanguageID, item.Answers, domain.AttemptSourceOffline)
		if err != nil {
			return err
		}
		attemptID, score = id, sc

		return s.markers.AttachAttempt(ctx, marker.ID, id)
	})

	switch {
	case err == nil:
		res.Status = StatusSynced
		res.AttemptID = &attemptID
		res.Score = &score
		return res

	case database.IsUniqueViolation(err):
		// The transaction is gone; on PostgreSQL it could not be read from anyway.
		existing, gerr := s.markers.GetByClientID(ctx, userID, item.ClientAttemptID)
		if gerr != nil {
			s.log.Error("read existing offline sync marker failed",
				zap.Int64("user_id", userID),
				zap.String("client_attempt_id", item.ClientAttemptID),
				zap.Error(gerr),
			)
			res.Status = StatusError
			res.Error = codeInternal
			return res
		}
		res.Status = StatusDuplicate
		res.AttemptID = existing.TestAttemptID
		return res

	case errors.Is(err, repository.ErrTestHasNoQuestions):
		res.Status = StatusError
		res.Error = codeUnknownTest
		return res
	}

	s.log.Error("offline sync item failed",
		zap.Int64("user_id", userID),
		zap.String("client_attempt_id", item.ClientAttemptID),
		zap.Error(err),
	)
	res.Status = StatusError
	res.Error = codeInternal
	return res
}
