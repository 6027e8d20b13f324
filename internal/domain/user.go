package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID                  int64      `json:"id" gorm:"primaryKey"`
	Email               string     `json:"email" gorm:"size:255;uniqueIndex;not null" validate:"required,email"`
	PasswordHash        string     `json:"-" gorm:"size:255;not null"`
	Name                string     `json:"name" gorm:"size:255"`
	Role                UserRole   `json:"role" gorm:"size:32;not null;default:user"`
	IsActive            bool       `json:"is_active" gorm:"not null;default:false"`
	IsBlocked           bool       `json:"is_blocked" gorm:"not null;default:false"`
	PreferredLanguageID *int64     `json:"preferred_language_id,omitempty"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }
