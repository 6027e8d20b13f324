package repository

import (
	"context"

	"quizplatform/internal/database"
	"quizplatform/internal/domain"

	"gorm.io/gorm"
)

// AuditRepository stores device and activity logs.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) RecordDeviceLogin(ctx context.Context, userID int64, ip, userAgent string) error {
	return database.Conn(ctx, r.db).Create(&domain.DeviceLog{
		UserID:    userID,
		IP:        ip,
		UserAgent: truncate(userAgent, 512),
	}).Error
}

func (r *AuditRepository) RecordActivity(ctx context.Context, userID int64, action, ip, userAgent string) error {
	return database.Conn(ctx, r.db).Create(&domain.ActivityLog{
		UserID:    userID,
		Action:    action,
		IP:        ip,
		UserAgent: truncate(userAgent, 512),
	}).Error
}

func (r *AuditRepository) ListActivity(ctx context.Context, userID int64) ([]domain.ActivityLog, error) {
	var out []domain.ActivityLog
	err := database.Conn(ctx, r.db).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
