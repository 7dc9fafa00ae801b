package models

import (
	"time"

	"github.com/google/uuid"
)

// VendorInvitation is an admin-issued, single-use token that lets a
// store owner register a vendor account.
type VendorInvitation struct {
	Base

	Email     string     `gorm:"size:255;not null;index" json:"email"`
	TokenHash string     `gorm:"size:128;uniqueIndex;not null" json:"-"`
	InvitedBy uuid.UUID  `gorm:"type:uuid;not null" json:"invited_by"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

func (VendorInvitation) TableName() string { return "vendor_invitations" }
