package domain

import "time"

type AttemptSource string

const (
	AttemptSourceOnline  AttemptSource = "online"
	AttemptSourceOffline AttemptSource = "offline"
)

// Question and Answer are owned by the quiz CRUD side; the scorer only reads them.
type Question struct {
	ID       int64 `json:"id" gorm:"primaryKey"`
	TestID   int64 `json:"test_id" gorm:"index;not null"`
	Position int   `json:"position"`
}

type Answer struct {
	ID         int64 `json:"id" gorm:"primaryKey"`
	QuestionID int64 `json:"question_id" gorm:"index;not null"`
	IsCorrect  bool  `json:"is_correct"`
}

type TestAttempt struct {
	ID          int64         `json:"id" gorm:"primaryKey"`
	UserID      int64         `json:"user_id" gorm:"index;not null"`
	TestID      int64         `json:"test_id" gorm:"index;not null"`
	LanguageID  int64         `json:"language_id" gorm:"not null"`
	Score       int           `json:"score"`
	MaxScore    int           `json:"max_score"`
	Source      AttemptSource `json:"source" gorm:"size:16;not null"`
	CompletedAt time.Time     `json:"completed_at"`
	CreatedAt   time.Time     `json:"created_at"`

	Answers []TestAttemptAnswer `json:"answers,omitempty" gorm:"foreignKey:TestAttemptID"`
}

type TestAttemptAnswer struct {
	ID            int64  `json:"id" gorm:"primaryKey"`
	TestAttemptID int64  `json:"test_attempt_id" gorm:"index;not null"`
	QuestionID    int64  `json:"question_id" gorm:"not null"`
	AnswerID      *int64 `json:"answer_id"`
	IsCorrect     bool   `json:"is_correct"`
}

// SubmittedAnswer is one answer picked by the user for a question.
type SubmittedAnswer struct {
	QuestionID int64  `json:"question_id" validate:"required,gt=0"`
	AnswerID   *int64 `json:"answer_id,omitempty" validate:"omitempty,gt=0"`
}
