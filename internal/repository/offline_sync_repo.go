package repository

import (
	"context"

	"quizplatform/internal/database"
	"quizplatform/internal/domain"

	"gorm.io/gorm"
)

type OfflineSyncRepository struct {
	db *gorm.DB
}

func NewOfflineSyncRepository(db *gorm.DB) *OfflineSyncRepository {
	return &OfflineSyncRepository{db: db}
}

func (r *OfflineSyncRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.InTransaction(ctx, r.db, fn)
}

// Create inserts a marker. A second marker for the same (user, client id) fails
// with a unique violation, see database.IsUniqueViolation.
func (r *OfflineSyncRepository) Create(ctx context.Context, m *domain.OfflineSyncAttempt) error {
	return database.Conn(ctx, r.db).Create(m).Error
}

func (r *OfflineSyncRepository) AttachAttempt(ctx context.Context, id, testAttemptID int64) error {
	return database.Conn(ctx, r.db).Model(&domain.OfflineSyncAttempt{}).
		Where("id = ?", id).
		Update("test_attempt_id", testAttemptID).Error
}

func (r *OfflineSyncRepository) GetByClientID(ctx context.Context, userID int64, clientAttemptID string) (*domain.OfflineSyncAttempt, error) {
	var m domain.OfflineSyncAttempt
	err := database.Conn(ctx, r.db).
		Where("user_id = ? AND client_attempt_id = ?", userID, clientAttemptID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}
