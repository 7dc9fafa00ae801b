package admin

import (
	"context"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
)

// Service covers platform administration: account moderation and the
// approval gates for vendors and delivery partners.
type Service struct {
	client *db.Client
}

func NewService(client *db.Client) *Service {
	return &Service{client: client}
}

func (s *Service) ListUsers(ctx context.Context, role enums.UserRole, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.client.Gorm().WithContext(ctx).Model(&models.User{})
	if role != "" {
		if !role.IsValid() {
			return nil, errors.New(errors.CodeValidation, "unknown role")
		}
		q = q.Where("role = ?", role)
	}

	var out []models.User
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list users")
	}
	return out, nil
}

func (s *Service) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error {
	res := s.client.Gorm().WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("active", active)
	if res.Error != nil {
		return errors.Wrap(errors.CodeInternal, res.Error, "update user")
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *Service) ApproveVendor(ctx context.Context, vendorID uuid.UUID) error {
	res := s.client.Gorm().WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", vendorID).
		Update("approved", true)
	if res.Error != nil {
		return errors.Wrap(errors.CodeInternal, res.Error, "approve vendor")
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, "vendor not found")
	}
	return nil
}

func (s *Service) ApprovePartner(ctx context.Context, partnerID uuid.UUID) error {
	res := s.client.Gorm().WithContext(ctx).
		Model(&models.DeliveryPartner{}).
		Where("id = ?", partnerID).
		Update("approved", true)
	if res.Error != nil {
		return errors.Wrap(errors.CodeInternal, res.Error, "approve partner")
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.CodeNotFound, "partner not found")
	}
	return nil
}

// Overview is a coarse operational snapshot for the admin dashboard.
type Overview struct {
	Users           int64 `json:"users"`
	Vendors         int64 `json:"vendors"`
	Partners        int64 `json:"partners"`
	OnDutyPartners  int64 `json:"on_duty_partners"`
	OrdersPlaced    int64 `json:"orders_placed"`
	OrdersCompleted int64 `json:"orders_completed"`
	PendingOutbox   int64 `json:"pending_outbox"`
}

func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	gdb := s.client.Gorm().WithContext(ctx)
	var o Overview

	counts := []struct {
		dst   *int64
		query func() error
	}{
		{&o.Users, func() error { return gdb.Model(&models.User{}).Count(&o.Users).Error }},
		{&o.Vendors, func() error { return gdb.Model(&models.Vendor{}).Count(&o.Vendors).Error }},
		{&o.Partners, func() error { return gdb.Model(&models.DeliveryPartner{}).Count(&o.Partners).Error }},
		{&o.OnDutyPartners, func() error {
			return gdb.Model(&models.DeliveryPartner{}).Where("on_duty").Count(&o.OnDutyPartners).Error
		}},
		{&o.OrdersPlaced, func() error { return gdb.Model(&models.Order{}).Count(&o.OrdersPlaced).Error }},
		{&o.OrdersCompleted, func() error {
			return gdb.Model(&models.Order{}).Where("status = ?", enums.OrderStatusCompleted).Count(&o.OrdersCompleted).Error
		}},
		{&o.PendingOutbox, func() error {
			return gdb.Model(&models.OutboxEvent{}).Where("status = ?", enums.OutboxStatusPending).Count(&o.PendingOutbox).Error
		}},
	}
	for _, c := range counts {
		if err := c.query(); err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "collect overview")
		}
	}
	return &o, nil
}
