package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/internal/orders"
	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/maps"
	"github.com/zapkart/zapkart-backend/pkg/metrics"
	"github.com/zapkart/zapkart-backend/pkg/outbox"
)

// LocationThrottle gates how often a partner's position is persisted.
// The redis implementation enforces the interval across instances.
type LocationThrottle interface {
	Try(ctx context.Context, key string) (bool, error)
}

// Service drives the delivery assignment workflow end to end: vendor
// assignment, partner accept/reject, pickup, handoff and tracking.
type Service struct {
	repo     Repo
	orders   orders.Repo
	client   *db.Client
	throttle LocationThrottle
	tracking config.TrackingConfig
	metrics  *metrics.Registry
	logg     *logger.Logger
}

func NewService(
	repo Repo,
	ordersRepo orders.Repo,
	client *db.Client,
	throttle LocationThrottle,
	tracking config.TrackingConfig,
	reg *metrics.Registry,
	logg *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		orders:   ordersRepo,
		client:   client,
		throttle: throttle,
		tracking: tracking,
		metrics:  reg,
		logg:     logg,
	}
}

func (s *Service) get(ctx context.Context, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "delivery request not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load delivery request")
	}
	return request, nil
}

func (s *Service) requireOwnership(request *models.DeliveryRequest, partnerID uuid.UUID) error {
	if request.PartnerID == nil || *request.PartnerID != partnerID {
		return errors.New(errors.CodeForbidden, "delivery request assigned to another partner")
	}
	return nil
}

func transitionError(from, to enums.DeliveryStatus) *errors.Error {
	return errors.New(errors.CodeStateConflict, "delivery cannot move to requested status").
		WithDetails(map[string]string{"from": from.String(), "to": to.String()})
}

// Assign offers the delivery to a partner. Valid from pending and from
// rejected_by_partner, which is how a vendor re-offers after a refusal.
func (s *Service) Assign(ctx context.Context, vendorID, requestID, partnerID uuid.UUID) (*models.DeliveryRequest, error) {
	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.VendorID != vendorID {
		return nil, errors.New(errors.CodeNotFound, "delivery request not found")
	}
	if !request.Status.CanTransitionTo(enums.DeliveryStatusAssigned) {
		return nil, transitionError(request.Status, enums.DeliveryStatusAssigned)
	}

	partner, err := s.repo.GetPartner(ctx, partnerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "delivery partner not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load partner")
	}
	if !partner.Approved || !partner.OnDuty {
		return nil, errors.New(errors.CodeValidation, "partner is not available for assignments")
	}

	now := time.Now().UTC()
	err = s.transition(ctx, request, enums.DeliveryStatusAssigned, map[string]any{
		"status":      enums.DeliveryStatusAssigned,
		"partner_id":  partnerID,
		"assigned_at": now,
	}, outbox.DomainEvent{
		Type:        "delivery.assigned",
		AggregateID: request.OrderID,
		Data: map[string]any{
			"order_id":            request.OrderID.String(),
			"delivery_request_id": request.ID.String(),
			"partner_id":          partnerID.String(),
			"partner_user_id":     partner.UserID.String(),
			"customer_id":         request.Order.CustomerID.String(),
		},
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, requestID)
}

// Respond records the partner's accept or reject of an offered
// assignment. A reject returns the request to the vendor's unassigned
// pool; the response row keeps the audit trail.
func (s *Service) Respond(ctx context.Context, partnerID, requestID uuid.UUID, decision enums.PartnerDecision, reason string) (*models.DeliveryRequest, error) {
	if !decision.IsValid() {
		return nil, errors.New(errors.CodeValidation, "unknown decision")
	}

	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(request, partnerID); err != nil {
		return nil, err
	}
	if request.Status != enums.DeliveryStatusAssigned {
		return nil, errors.New(errors.CodeStateConflict, "delivery is not awaiting a response")
	}

	now := time.Now().UTC()
	var target enums.DeliveryStatus
	updates := map[string]any{}
	if decision == enums.PartnerDecisionAccepted {
		target = enums.DeliveryStatusAccepted
		updates["status"] = target
		updates["accepted_at"] = now
	} else {
		target = enums.DeliveryStatusRejectedByPartner
		updates["status"] = target
		updates["partner_id"] = nil
	}

	eventType := "delivery.accepted"
	if decision == enums.PartnerDecisionRejected {
		eventType = "delivery.rejected"
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		affected, err := txRepo.UpdateStatusIf(ctx, requestID, enums.DeliveryStatusAssigned.String(), updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errors.New(errors.CodeStateConflict, "delivery changed concurrently")
		}

		if err := txRepo.CreateResponse(ctx, &models.PartnerResponse{
			DeliveryRequestID: requestID,
			PartnerID:         partnerID,
			Decision:          decision,
			Reason:            reason,
		}); err != nil {
			return err
		}

		return outbox.Enqueue(tx, outbox.DomainEvent{
			Type:        eventType,
			AggregateID: request.OrderID,
			Data: map[string]any{
				"order_id":            request.OrderID.String(),
				"delivery_request_id": request.ID.String(),
				"partner_id":          partnerID.String(),
				"customer_id":         request.Order.CustomerID.String(),
				"vendor_id":           request.VendorID.String(),
				"reason":              reason,
			},
		})
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			return nil, typed
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "record response")
	}

	s.metrics.DeliveryTransitions.WithLabelValues(target.String()).Inc()
	return s.get(ctx, requestID)
}

// Pickup marks the goods collected from the store.
func (s *Service) Pickup(ctx context.Context, partnerID, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	return s.partnerTransition(ctx, partnerID, requestID,
		enums.DeliveryStatusAccepted, enums.DeliveryStatusPickedUp,
		"picked_up_at", "delivery.picked_up", nil)
}

// OutForDelivery marks the partner en route to the customer. The device
// position seeds the tracking trail and the partner's last known
// location, so the customer map has a starting point before the first
// periodic sample arrives.
func (s *Service) OutForDelivery(ctx context.Context, partnerID, requestID uuid.UUID, lat, lng float64) (*models.DeliveryRequest, error) {
	if err := validCoordinates(lat, lng); err != nil {
		return nil, err
	}

	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(request, partnerID); err != nil {
		return nil, err
	}
	if request.Status != enums.DeliveryStatusPickedUp {
		return nil, transitionError(request.Status, enums.DeliveryStatusOutForDelivery)
	}

	now := time.Now().UTC()
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		affected, err := txRepo.UpdateStatusIf(ctx, requestID, enums.DeliveryStatusPickedUp.String(), map[string]any{
			"status":              enums.DeliveryStatusOutForDelivery,
			"out_for_delivery_at": now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return errors.New(errors.CodeStateConflict, "delivery changed concurrently")
		}

		if err := txRepo.AppendTrackingPoint(ctx, &models.TrackingPoint{
			ID:                uuid.New(),
			DeliveryRequestID: requestID,
			PartnerID:         partnerID,
			Latitude:          lat,
			Longitude:         lng,
			RecordedAt:        now,
		}); err != nil {
			return err
		}
		if err := txRepo.UpdatePartnerLocation(ctx, partnerID, lat, lng, now); err != nil {
			return err
		}

		return outbox.Enqueue(tx, outbox.DomainEvent{
			Type:        "delivery.out_for_delivery",
			AggregateID: request.OrderID,
			Data: map[string]any{
				"order_id":            request.OrderID.String(),
				"delivery_request_id": request.ID.String(),
				"partner_id":          partnerID.String(),
				"customer_id":         request.Order.CustomerID.String(),
				"vendor_id":           request.VendorID.String(),
			},
		})
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			return nil, typed
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "start delivery leg")
	}

	s.metrics.DeliveryTransitions.WithLabelValues(enums.DeliveryStatusOutForDelivery.String()).Inc()
	return s.get(ctx, requestID)
}

// MarkPaymentReceived records cash collection on a COD order. Only the
// assigned partner can do this, and only once the goods left the store.
func (s *Service) MarkPaymentReceived(ctx context.Context, partnerID, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(request, partnerID); err != nil {
		return nil, err
	}
	if request.Order.PaymentMethod != enums.PaymentMethodCOD {
		return nil, errors.New(errors.CodeValidation, "order is not cash on delivery")
	}
	switch request.Status {
	case enums.DeliveryStatusPickedUp, enums.DeliveryStatusOutForDelivery:
	default:
		return nil, errors.New(errors.CodeStateConflict, "payment can only be collected in transit")
	}
	if request.Order.PaymentStatus == enums.PaymentStatusCollected {
		return nil, errors.New(errors.CodeConflict, "payment already collected")
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.WithContext(ctx).
			Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", request.OrderID, enums.PaymentStatusPending).
			Update("payment_status", enums.PaymentStatusCollected)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New(errors.CodeConflict, "payment already collected")
		}

		return outbox.Enqueue(tx, outbox.DomainEvent{
			Type:        "payment.cod_collected",
			AggregateID: request.OrderID,
			Data: map[string]any{
				"order_id":    request.OrderID.String(),
				"partner_id":  partnerID.String(),
				"customer_id": request.Order.CustomerID.String(),
				"vendor_id":   request.VendorID.String(),
			},
		})
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			return nil, typed
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "mark payment received")
	}

	return s.get(ctx, requestID)
}

// Delivered completes the delivery. COD orders must have had the cash
// collected; online orders must be paid. An unpaid order cannot close.
func (s *Service) Delivered(ctx context.Context, partnerID, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(request, partnerID); err != nil {
		return nil, err
	}
	if request.Status != enums.DeliveryStatusOutForDelivery {
		return nil, transitionError(request.Status, enums.DeliveryStatusDelivered)
	}

	switch request.Order.PaymentMethod {
	case enums.PaymentMethodCOD:
		if request.Order.PaymentStatus != enums.PaymentStatusCollected {
			return nil, errors.New(errors.CodeStateConflict, "collect payment before completing a cod delivery")
		}
	case enums.PaymentMethodOnline:
		if request.Order.PaymentStatus != enums.PaymentStatusPaid {
			return nil, errors.New(errors.CodeStateConflict, "order payment is not settled")
		}
	}

	now := time.Now().UTC()
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		affected, err := txRepo.UpdateStatusIf(ctx, requestID, enums.DeliveryStatusOutForDelivery.String(), map[string]any{
			"status":       enums.DeliveryStatusDelivered,
			"delivered_at": now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return errors.New(errors.CodeStateConflict, "delivery changed concurrently")
		}

		if err := tx.WithContext(ctx).
			Model(&models.Order{}).
			Where("id = ?", request.OrderID).
			Update("status", enums.OrderStatusCompleted).Error; err != nil {
			return err
		}

		return outbox.Enqueue(tx, outbox.DomainEvent{
			Type:        "delivery.delivered",
			AggregateID: request.OrderID,
			Data: map[string]any{
				"order_id":            request.OrderID.String(),
				"delivery_request_id": request.ID.String(),
				"partner_id":          partnerID.String(),
				"customer_id":         request.Order.CustomerID.String(),
				"vendor_id":           request.VendorID.String(),
			},
		})
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			return nil, typed
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "complete delivery")
	}

	s.metrics.DeliveryTransitions.WithLabelValues(enums.DeliveryStatusDelivered.String()).Inc()
	return s.get(ctx, requestID)
}

func validCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return errors.New(errors.CodeValidation, "coordinates out of range")
	}
	return nil
}

// RecordLocation appends a tracking point for an in-flight delivery and
// refreshes the partner's last known position. Samples arriving faster
// than the configured interval are dropped silently; the partner app
// retries on its own cadence.
func (s *Service) RecordLocation(ctx context.Context, partnerID, requestID uuid.UUID, lat, lng float64) (accepted bool, err error) {
	if err := validCoordinates(lat, lng); err != nil {
		return false, err
	}

	request, err := s.get(ctx, requestID)
	if err != nil {
		return false, err
	}
	if err := s.requireOwnership(request, partnerID); err != nil {
		return false, err
	}
	switch request.Status {
	case enums.DeliveryStatusAccepted, enums.DeliveryStatusPickedUp, enums.DeliveryStatusOutForDelivery:
	default:
		return false, errors.New(errors.CodeStateConflict, "delivery is not in transit")
	}

	if s.throttle != nil {
		ok, err := s.throttle.Try(ctx, fmt.Sprintf("track:%s", requestID))
		if err != nil {
			s.logg.Warn(ctx, "location throttle unavailable, accepting sample")
		} else if !ok {
			return false, nil
		}
	}

	point := &models.TrackingPoint{
		ID:                uuid.New(),
		DeliveryRequestID: requestID,
		PartnerID:         partnerID,
		Latitude:          lat,
		Longitude:         lng,
		RecordedAt:        time.Now().UTC(),
	}
	if err := s.repo.AppendTrackingPoint(ctx, point); err != nil {
		return false, errors.Wrap(errors.CodeInternal, err, "record location")
	}
	if err := s.repo.UpdatePartnerLocation(ctx, partnerID, lat, lng, point.RecordedAt); err != nil {
		return false, errors.Wrap(errors.CodeInternal, err, "update partner position")
	}

	if s.tracking.RetentionPerOrder > 0 {
		if err := s.repo.PruneTrackingPoints(ctx, requestID, s.tracking.RetentionPerOrder); err != nil {
			s.logg.Warn(ctx, "tracking retention prune failed")
		}
	}
	return true, nil
}

// Track returns recent tracking points for a customer's own order.
func (s *Service) Track(ctx context.Context, customerID, orderID uuid.UUID, limit int) ([]models.TrackingPoint, error) {
	request, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "no delivery for this order")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load delivery request")
	}

	full, err := s.get(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	if full.Order.CustomerID != customerID {
		return nil, errors.New(errors.CodeNotFound, "no delivery for this order")
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	points, err := s.repo.ListTrackingPoints(ctx, request.ID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list tracking points")
	}
	return points, nil
}

// NavigationLink builds the maps deep link for the assigned partner.
// "vendor" points at the store for the pickup leg; anything else (or
// nothing) points at the customer destination. Either way the precise
// coordinates win over the address text when they exist.
func (s *Service) NavigationLink(ctx context.Context, partnerID, requestID uuid.UUID, destination string) (string, error) {
	request, err := s.get(ctx, requestID)
	if err != nil {
		return "", err
	}
	if err := s.requireOwnership(request, partnerID); err != nil {
		return "", err
	}

	switch destination {
	case "", "customer":
		order := request.Order
		if order.DeliveryLat != nil && order.DeliveryLng != nil {
			return maps.NavigationLink(*order.DeliveryLat, *order.DeliveryLng), nil
		}
		addr := fmt.Sprintf("%s, %s %s", order.DeliveryLine1, order.DeliveryCity, order.DeliveryPincode)
		return maps.NavigationLinkForAddress(addr), nil
	case "vendor":
		vendor := request.Vendor
		if vendor == nil {
			return "", errors.Wrap(errors.CodeInternal, nil, "delivery request missing vendor")
		}
		if vendor.Latitude != nil && vendor.Longitude != nil {
			return maps.NavigationLink(*vendor.Latitude, *vendor.Longitude), nil
		}
		addr := fmt.Sprintf("%s, %s, %s %s", vendor.StoreName, vendor.Line1, vendor.City, vendor.Pincode)
		return maps.NavigationLinkForAddress(addr), nil
	default:
		return "", errors.New(errors.CodeValidation, "unknown navigation destination").
			WithDetails(map[string]string{"to": "must be vendor or customer"})
	}
}

// OrderDetails is the privileged partner read: full destination and
// contact details, but only for the partner the delivery is assigned to.
func (s *Service) OrderDetails(ctx context.Context, partnerID, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(request, partnerID); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *Service) Assignments(ctx context.Context, partnerID uuid.UUID, activeOnly bool) ([]models.DeliveryRequest, error) {
	out, err := s.repo.ListForPartner(ctx, partnerID, activeOnly)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list assignments")
	}
	return out, nil
}

func (s *Service) Unassigned(ctx context.Context, vendorID uuid.UUID) ([]models.DeliveryRequest, error) {
	out, err := s.repo.ListUnassigned(ctx, vendorID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list unassigned deliveries")
	}
	return out, nil
}

func (s *Service) Responses(ctx context.Context, vendorID, requestID uuid.UUID) ([]models.PartnerResponse, error) {
	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.VendorID != vendorID {
		return nil, errors.New(errors.CodeNotFound, "delivery request not found")
	}
	out, err := s.repo.ListResponses(ctx, requestID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list responses")
	}
	return out, nil
}

// AdminOverride corrects a stuck delivery. It runs through the same
// state machine guard as the partner flow; an admin cannot jump a
// delivery to an unreachable status.
func (s *Service) AdminOverride(ctx context.Context, adminID, requestID uuid.UUID, to enums.DeliveryStatus) (*models.DeliveryRequest, error) {
	if !to.IsValid() {
		return nil, errors.New(errors.CodeValidation, "unknown delivery status")
	}

	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(to) {
		return nil, transitionError(request.Status, to)
	}

	err = s.transition(ctx, request, to, map[string]any{"status": to}, outbox.DomainEvent{
		Type:        "delivery.admin_override",
		AggregateID: request.OrderID,
		Data: map[string]any{
			"order_id":            request.OrderID.String(),
			"delivery_request_id": request.ID.String(),
			"admin_id":            adminID.String(),
			"customer_id":         request.Order.CustomerID.String(),
			"vendor_id":           request.VendorID.String(),
			"from":                request.Status.String(),
			"to":                  to.String(),
		},
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, requestID)
}

// partnerTransition is the shared guarded single-step move used by the
// linear part of the partner workflow.
func (s *Service) partnerTransition(
	ctx context.Context,
	partnerID, requestID uuid.UUID,
	from, to enums.DeliveryStatus,
	timestampColumn, eventType string,
	extraData map[string]any,
) (*models.DeliveryRequest, error) {
	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(request, partnerID); err != nil {
		return nil, err
	}
	if request.Status != from {
		return nil, transitionError(request.Status, to)
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":        to,
		timestampColumn: now,
	}

	data := map[string]any{
		"order_id":            request.OrderID.String(),
		"delivery_request_id": request.ID.String(),
		"partner_id":          partnerID.String(),
		"customer_id":         request.Order.CustomerID.String(),
		"vendor_id":           request.VendorID.String(),
	}
	for k, v := range extraData {
		data[k] = v
	}

	err = s.transition(ctx, request, to, updates, outbox.DomainEvent{
		Type:        eventType,
		AggregateID: request.OrderID,
		Data:        data,
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, requestID)
}

func (s *Service) transition(
	ctx context.Context,
	request *models.DeliveryRequest,
	to enums.DeliveryStatus,
	updates map[string]any,
	event outbox.DomainEvent,
) error {
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).UpdateStatusIf(ctx, request.ID, request.Status.String(), updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errors.New(errors.CodeStateConflict, "delivery changed concurrently")
		}
		return outbox.Enqueue(tx, event)
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			return typed
		}
		return errors.Wrap(errors.CodeInternal, err, "transition delivery")
	}

	s.metrics.DeliveryTransitions.WithLabelValues(to.String()).Inc()
	return nil
}
