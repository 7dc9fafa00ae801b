package models

import (
	"time"

	"github.com/zapkart/zapkart-backend/pkg/enums"
)

type User struct {
	Base

	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	FullName     string         `gorm:"size:120;not null" json:"full_name"`
	Phone        string         `gorm:"size:20" json:"phone"`
	Role         enums.UserRole `gorm:"size:32;not null;index" json:"role"`
	Active       bool           `gorm:"not null;default:true" json:"active"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
}

func (User) TableName() string { return "users" }
