package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/internal/coupons"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/outbox"
	"github.com/zapkart/zapkart-backend/pkg/pagination"
)

// Service answers order reads for customers and vendors and drives the
// vendor-side order lifecycle. Checkout owns creation.
type Service struct {
	repo    Repo
	coupons *coupons.Service
	client  *db.Client
	logg    *logger.Logger
}

func NewService(repo Repo, couponSvc *coupons.Service, client *db.Client, logg *logger.Logger) *Service {
	return &Service{repo: repo, coupons: couponSvc, client: client, logg: logg}
}

// View is an order as presented to users. DisplayStatus folds the
// delivery request in: once one exists, its status wins over the order
// document's own status for anything non-terminal.
type View struct {
	models.Order
	DisplayStatus string `json:"display_status"`
}

// DisplayStatus resolves the divergence between the order document and
// its delivery request. The delivery request is authoritative while it
// is active; terminal order states (cancelled) still show through.
func DisplayStatus(order *models.Order) string {
	if order.Status == enums.OrderStatusCancelled {
		return order.Status.String()
	}
	dr := order.DeliveryRequest
	if dr == nil || dr.Status == enums.DeliveryStatusPending {
		return order.Status.String()
	}
	if dr.Status == enums.DeliveryStatusRejectedByPartner {
		// Customers see the last stable state, not the rejection churn.
		return order.Status.String()
	}
	return dr.Status.String()
}

func toView(order models.Order) View {
	return View{Order: order, DisplayStatus: DisplayStatus(&order)}
}

func (s *Service) GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*View, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}
	v := toView(*order)
	return &v, nil
}

func (s *Service) GetForVendor(ctx context.Context, vendorID, orderID uuid.UUID) (*View, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.VendorID != vendorID {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}
	v := toView(*order)
	return &v, nil
}

func (s *Service) get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "order not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, cursorToken string, limit int) (*pagination.Page[View], error) {
	cursor, err := pagination.Decode(cursorToken)
	if err != nil {
		return nil, errors.New(errors.CodeValidation, "invalid cursor")
	}
	limit = pagination.ClampLimit(limit)

	rows, err := s.repo.List(ctx, filter, cursor, limit+1)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list orders")
	}

	page := &pagination.Page[View]{}
	trimmed := rows
	if len(rows) > limit {
		trimmed = rows[:limit]
		last := trimmed[limit-1]
		page.NextCursor = pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	page.Items = make([]View, 0, len(trimmed))
	for _, row := range trimmed {
		page.Items = append(page.Items, toView(row))
	}
	return page, nil
}

// VendorTransition moves an order along the vendor lifecycle. The state
// machine rejects anything but the legal successor.
func (s *Service) VendorTransition(ctx context.Context, vendorID, orderID uuid.UUID, to enums.OrderStatus) (*View, error) {
	order, err := s.GetForVendor(ctx, vendorID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(to) {
		return nil, errors.New(errors.CodeStateConflict, "order cannot move to requested status").
			WithDetails(map[string]string{"from": order.Status.String(), "to": to.String()})
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).UpdateStatusIf(ctx, orderID, order.Status.String(), to.String())
		if err != nil {
			return err
		}
		if affected == 0 {
			return errors.New(errors.CodeStateConflict, "order changed concurrently")
		}

		eventType := "order." + string(to)
		if to == enums.OrderStatusAccepted {
			eventType = "order.accepted"
		}
		return outbox.Enqueue(tx, outbox.DomainEvent{
			Type:        eventType,
			AggregateID: orderID,
			Data: map[string]any{
				"order_id":    orderID.String(),
				"customer_id": order.CustomerID.String(),
				"vendor_id":   vendorID.String(),
				"status":      to.String(),
			},
		})
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			return nil, typed
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "transition order")
	}

	return s.GetForVendor(ctx, vendorID, orderID)
}

// GetForAdmin reads any order, without an ownership filter.
func (s *Service) GetForAdmin(ctx context.Context, orderID uuid.UUID) (*View, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	v := toView(*order)
	return &v, nil
}

// Cancel cancels a customer's own order. Only allowed before pickup;
// after that the goods are on the road.
func (s *Service) Cancel(ctx context.Context, customerID, orderID uuid.UUID) (*View, error) {
	order, err := s.GetForCustomer(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.cancel(ctx, order); err != nil {
		return nil, err
	}
	return s.GetForCustomer(ctx, customerID, orderID)
}

// CancelByAdmin is the support path: same pickup cutoff, any order.
func (s *Service) CancelByAdmin(ctx context.Context, orderID uuid.UUID) (*View, error) {
	order, err := s.GetForAdmin(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.cancel(ctx, order); err != nil {
		return nil, err
	}
	return s.GetForAdmin(ctx, orderID)
}

func (s *Service) cancel(ctx context.Context, order *View) error {
	if order.Status.IsTerminal() {
		return errors.New(errors.CodeStateConflict, "order already closed")
	}
	if dr := order.DeliveryRequest; dr != nil {
		switch dr.Status {
		case enums.DeliveryStatusPickedUp, enums.DeliveryStatusOutForDelivery, enums.DeliveryStatusDelivered:
			return errors.New(errors.CodeStateConflict, "order already picked up")
		}
	}

	now := time.Now().UTC()
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.WithContext(ctx).
			Model(&models.Order{}).
			Where("id = ? AND status NOT IN ?", order.ID,
				[]string{string(enums.OrderStatusCompleted), string(enums.OrderStatusCancelled)}).
			Updates(map[string]any{"status": enums.OrderStatusCancelled, "cancelled_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New(errors.CodeStateConflict, "order already closed")
		}

		if dr := order.DeliveryRequest; dr != nil && !dr.Status.IsTerminal() {
			if err := tx.WithContext(ctx).
				Model(&models.DeliveryRequest{}).
				Where("id = ?", dr.ID).
				Updates(map[string]any{"status": enums.DeliveryStatusCancelled, "cancelled_at": now}).Error; err != nil {
				return err
			}
		}

		// The coupon slot the order redeemed goes back into the pool
		// atomically with the cancellation.
		if order.CouponCode != nil {
			if err := s.coupons.ReleaseUsageByCode(ctx, tx, *order.CouponCode); err != nil {
				return err
			}
		}

		return outbox.Enqueue(tx, outbox.DomainEvent{
			Type:        "order.cancelled",
			AggregateID: order.ID,
			Data: map[string]any{
				"order_id":    order.ID.String(),
				"customer_id": order.CustomerID.String(),
				"vendor_id":   order.VendorID.String(),
			},
		})
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			return typed
		}
		return errors.Wrap(errors.CodeInternal, err, "cancel order")
	}
	return nil
}
