package models

import (
	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/enums"
)

// PartnerResponse records each accept or reject a partner ever gave for
// a delivery request. Kept as an audit trail across re-assignments.
type PartnerResponse struct {
	Base

	DeliveryRequestID uuid.UUID             `gorm:"type:uuid;not null;index" json:"delivery_request_id"`
	PartnerID         uuid.UUID             `gorm:"type:uuid;not null;index" json:"partner_id"`
	Decision          enums.PartnerDecision `gorm:"size:16;not null" json:"decision"`
	Reason            string                `gorm:"size:255" json:"reason,omitempty"`
}

func (PartnerResponse) TableName() string { return "partner_responses" }
