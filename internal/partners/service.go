package partners

import (
	"context"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
)

// Service manages delivery partner profiles and duty state. Partners
// register a user account first, then file a partner profile that an
// admin approves before any assignments reach them.
type Service struct {
	client *db.Client
}

func NewService(client *db.Client) *Service {
	return &Service{client: client}
}

type ProfileInput struct {
	VehicleType enums.VehicleType
	VehicleRegn string
}

func (s *Service) CreateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.DeliveryPartner, error) {
	if !in.VehicleType.IsValid() {
		return nil, errors.New(errors.CodeValidation, "unknown vehicle type")
	}

	partner := &models.DeliveryPartner{
		UserID:      userID,
		VehicleType: in.VehicleType,
		VehicleRegn: in.VehicleRegn,
	}
	if err := s.client.Gorm().WithContext(ctx).Create(partner).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, errors.New(errors.CodeConflict, "partner profile already exists")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "create partner profile")
	}
	return partner, nil
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryPartner, error) {
	var partner models.DeliveryPartner
	if err := s.client.Gorm().WithContext(ctx).First(&partner, "user_id = ?", userID).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "partner profile not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load partner")
	}
	return &partner, nil
}

// SetOnDuty toggles availability. Unapproved partners cannot go on duty.
func (s *Service) SetOnDuty(ctx context.Context, userID uuid.UUID, onDuty bool) (*models.DeliveryPartner, error) {
	partner, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if onDuty && !partner.Approved {
		return nil, errors.New(errors.CodeForbidden, "partner profile pending approval")
	}

	partner.OnDuty = onDuty
	if err := s.client.Gorm().WithContext(ctx).Save(partner).Error; err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "update partner")
	}
	return partner, nil
}
