package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizplatform/internal/database"
	"quizplatform/internal/domain"

	"gorm.io/gorm"
)

var ErrTestHasNoQuestions = errors.New("test has no questions")

// AttemptRepository materializes scored test attempts.
type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// CreateAttempt scores answers against the test's questions and stores the attempt
// with one answer row per question. Unanswered questions score zero; answers to
// questions outside the test are ignored.
func (r *AttemptRepository) CreateAttempt(ctx context.Context, userID, testID, languageID int64, answers []domain.SubmittedAnswer, source domain.AttemptSource) (int64, int, error) {
	var attempt domain.TestAttempt

	err := database.InTransaction(ctx, r.db, func(ctx context.Context) error {
		tx := database.Conn(ctx, r.db)

		var questions []domain.Question
		if err := tx.Where("test_id = ?", testID).Order("position ASC, id ASC").Find(&questions).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return fmt.Errorf("%w: test %d", ErrTestHasNoQuestions, testID)
		}

		questionIDs := make([]int64, 0, len(questions))
		for _, q := range questions {
			questionIDs = append(questionIDs, q.ID)
		}

		var correct []domain.Answer
		if err := tx.Where("question_id IN ? AND is_correct = ?", questionIDs, true).Find(&correct).Error; err != nil {
			return err
		}
		correctByAnswer := make(map[int64]int64, len(correct))
		for _, a := range correct {
			correctByAnswer[a.ID] = a.QuestionID
		}

		picked := make(map[int64]*int64, len(answers))
		for _, a := range answers {
			picked[a.QuestionID] = a.AnswerID
		}

		attempt = domain.TestAttempt{
			UserID:      userID,
			TestID:      testID,
			LanguageID:  languageID,
			MaxScore:    len(questions),
			Source:      source,
			CompletedAt: time.Now().UTC(),
		}
		for _, q := range questions {
			row := domain.TestAttemptAnswer{QuestionID: q.ID, AnswerID: picked[q.ID]}
			if row.AnswerID != nil {
				if qid, ok := correctByAnswer[*row.AnswerID]; ok && qid == q.ID {
					row.IsCorrect = true
					attempt.Score++
				}
			}
			attempt.Answers = append(attempt.Answers, row)
		}

		return tx.Create(&attempt).Error
	})
	if err != nil {
		return 0, 0, err
	}
	return attempt.ID, attempt.Score, nil
}

func (r *AttemptRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&domain.TestAttempt{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
