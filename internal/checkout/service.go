package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/internal/address"
	"github.com/zapkart/zapkart-backend/internal/cart"
	"github.com/zapkart/zapkart-backend/internal/coupons"
	"github.com/zapkart/zapkart-backend/internal/delivery"
	"github.com/zapkart/zapkart-backend/internal/orders"
	"github.com/zapkart/zapkart-backend/internal/products"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/gateway"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/metrics"
	"github.com/zapkart/zapkart-backend/pkg/outbox"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

var paiseFactor = decimal.NewFromInt(100)

// PaymentGateway is what checkout needs from the hosted gateway.
type PaymentGateway interface {
	Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResponse, error)
	VerifyConfirmation(raw []byte, signature string) (*gateway.Confirmation, error)
}

// Service turns a cart into an order. Everything that must hold
// together happens in one transaction: stock reservation, coupon
// redemption, order rows, the delivery request and the outbox event.
type Service struct {
	carts    cart.Repo
	products products.Repo
	coupons  *coupons.Service
	orders   orders.Repo
	delivery delivery.Repo
	address  address.Repo
	client   *db.Client
	gateway  PaymentGateway
	metrics  *metrics.Registry
	logg     *logger.Logger
}

func NewService(
	carts cart.Repo,
	productsRepo products.Repo,
	couponSvc *coupons.Service,
	ordersRepo orders.Repo,
	deliveryRepo delivery.Repo,
	addressRepo address.Repo,
	client *db.Client,
	gw PaymentGateway,
	reg *metrics.Registry,
	logg *logger.Logger,
) *Service {
	return &Service{
		carts:    carts,
		products: productsRepo,
		coupons:  couponSvc,
		orders:   ordersRepo,
		delivery: deliveryRepo,
		address:  addressRepo,
		client:   client,
		gateway:  gw,
		metrics:  reg,
		logg:     logg,
	}
}

type Input struct {
	// AddressID picks a saved address. Leave it zero and fill the Drop
	// block instead to send the order to an ad-hoc map pin, e.g. when
	// ordering for someone else.
	AddressID     uuid.UUID
	PaymentMethod enums.PaymentMethod
	CouponCode    string

	DropLine1   string
	DropLine2   string
	DropCity    string
	DropPincode string
	DropLat     *float64
	DropLng     *float64

	// Optional alternate recipient when ordering for someone else.
	RecipientName  string
	RecipientPhone string
	Instructions   string
}

type destination struct {
	Line1   string
	Line2   string
	City    string
	Pincode string
	Lat     *float64
	Lng     *float64
}

// destinationFor resolves where the order goes: the caller's saved
// address, or a complete ad-hoc drop location. Mixing the two, or an
// incomplete drop block, is rejected.
func (s *Service) destinationFor(ctx context.Context, customerID uuid.UUID, in Input) (*destination, error) {
	hasDrop := in.DropLine1 != "" || in.DropCity != "" || in.DropPincode != "" || in.DropLat != nil || in.DropLng != nil

	if in.AddressID != uuid.Nil {
		if hasDrop {
			return nil, errors.New(errors.CodeValidation, "choose a saved address or a drop location, not both")
		}
		addr, err := s.address.GetForUser(ctx, in.AddressID, customerID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, errors.New(errors.CodeValidation, "delivery address not found")
			}
			return nil, errors.Wrap(errors.CodeInternal, err, "load address")
		}
		return &destination{
			Line1:   addr.Line1,
			Line2:   addr.Line2,
			City:    addr.City,
			Pincode: addr.Pincode,
			Lat:     addr.Latitude,
			Lng:     addr.Longitude,
		}, nil
	}

	if !hasDrop {
		return nil, errors.New(errors.CodeValidation, "delivery destination required")
	}
	missing := map[string]string{}
	if in.DropLine1 == "" {
		missing["drop_line1"] = "required"
	}
	if in.DropCity == "" {
		missing["drop_city"] = "required"
	}
	if in.DropPincode == "" {
		missing["drop_pincode"] = "required"
	}
	if in.DropLat == nil {
		missing["drop_lat"] = "required"
	}
	if in.DropLng == nil {
		missing["drop_lng"] = "required"
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.CodeValidation, "drop location is incomplete").WithDetails(missing)
	}
	if *in.DropLat < -90 || *in.DropLat > 90 || *in.DropLng < -180 || *in.DropLng > 180 {
		return nil, errors.New(errors.CodeValidation, "drop coordinates out of range")
	}
	return &destination{
		Line1:   in.DropLine1,
		Line2:   in.DropLine2,
		City:    in.DropCity,
		Pincode: in.DropPincode,
		Lat:     in.DropLat,
		Lng:     in.DropLng,
	}, nil
}

type Result struct {
	Order       *models.Order `json:"order"`
	RedirectURL string        `json:"redirect_url,omitempty"`
}

func (s *Service) failure(reason string) {
	s.metrics.CheckoutFailures.WithLabelValues(reason).Inc()
}

// Checkout places the order. The payment method is decided here, at
// creation, and stored on the order; nothing downstream infers it.
func (s *Service) Checkout(ctx context.Context, customerID uuid.UUID, in Input) (*Result, error) {
	if !in.PaymentMethod.IsValid() {
		s.failure("payment_method")
		return nil, errors.New(errors.CodeValidation, "unknown payment method")
	}

	items, err := s.carts.ListByUser(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load cart")
	}
	if len(items) == 0 {
		s.failure("empty_cart")
		return nil, errors.New(errors.CodeValidation, "cart is empty")
	}

	vendorID, err := singleVendor(items)
	if err != nil {
		s.failure("multi_vendor")
		return nil, err
	}

	dest, err := s.destinationFor(ctx, customerID, in)
	if err != nil {
		if typed := errors.As(err); typed != nil && typed.Code() == errors.CodeValidation {
			s.failure("address")
		}
		return nil, err
	}

	subtotal := types.ZeroMoney()
	for _, item := range items {
		if item.Product == nil {
			return nil, errors.Wrap(errors.CodeInternal, nil, "cart item missing product")
		}
		subtotal = subtotal.AddMoney(item.Product.Price.MulInt(int64(item.Quantity)))
	}
	subtotal = subtotal.RoundPaise()

	discount := types.ZeroMoney()
	var coupon *models.Coupon
	if in.CouponCode != "" {
		validation, err := s.coupons.Validate(ctx, in.CouponCode, vendorID, subtotal)
		if err != nil {
			s.failure("coupon")
			return nil, err
		}
		coupon = validation.Coupon
		discount = validation.Discount
	}

	deliveryFee := types.ZeroMoney()
	total := subtotal.SubMoney(discount).AddMoney(deliveryFee).RoundPaise()

	now := time.Now().UTC()
	order := &models.Order{
		CustomerID:      customerID,
		VendorID:        vendorID,
		Status:          enums.OrderStatusPlaced,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   enums.PaymentStatusPending,
		Subtotal:        subtotal,
		DiscountAmount:  discount,
		DeliveryFee:     deliveryFee,
		Total:           total,
		DeliveryLine1:   dest.Line1,
		DeliveryLine2:   dest.Line2,
		DeliveryCity:    dest.City,
		DeliveryPincode: dest.Pincode,
		DeliveryLat:     dest.Lat,
		DeliveryLng:     dest.Lng,
		RecipientName:   in.RecipientName,
		RecipientPhone:  in.RecipientPhone,
		Instructions:    in.Instructions,
		PlacedAt:        now,
	}
	if coupon != nil {
		order.CouponCode = &coupon.Code
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txProducts := s.products.WithTx(tx)
		for _, item := range items {
			affected, err := txProducts.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return errors.New(errors.CodeConflict, "insufficient stock").
					WithDetails(map[string]string{"product_id": item.ProductID.String()})
			}
		}

		if coupon != nil {
			if err := s.coupons.Redeem(ctx, tx, coupon.ID); err != nil {
				return err
			}
		}

		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		for _, item := range items {
			line := &models.OrderItem{
				OrderID:     order.ID,
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				UnitPrice:   item.Product.Price,
				Quantity:    item.Quantity,
				LineTotal:   item.Product.Price.MulInt(int64(item.Quantity)).RoundPaise(),
			}
			if err := tx.WithContext(ctx).Create(line).Error; err != nil {
				return err
			}
		}

		request := &models.DeliveryRequest{
			OrderID:  order.ID,
			VendorID: vendorID,
			Status:   enums.DeliveryStatusPending,
		}
		if err := s.delivery.WithTx(tx).Create(ctx, request); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errors.New(errors.CodeConflict, "delivery request already exists for order")
			}
			return err
		}

		if err := s.carts.WithTx(tx).Clear(ctx, customerID); err != nil {
			return err
		}

		return outbox.Enqueue(tx, outbox.DomainEvent{
			Type:        "order.placed",
			AggregateID: order.ID,
			Data: map[string]any{
				"order_id":       order.ID.String(),
				"customer_id":    customerID.String(),
				"vendor_id":      vendorID.String(),
				"total":          total.Decimal.StringFixed(2),
				"payment_method": in.PaymentMethod.String(),
			},
		})
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			s.failure(string(typed.Code()))
			return nil, typed
		}
		s.failure("internal")
		return nil, errors.Wrap(errors.CodeInternal, err, "place order")
	}

	s.metrics.OrdersPlaced.Inc()

	result := &Result{Order: order}
	if in.PaymentMethod == enums.PaymentMethodOnline {
		redirect, err := s.initiatePayment(ctx, order)
		if err != nil {
			// The order exists; payment can be retried from the order page.
			s.logg.Error(ctx, "gateway initiation failed after order placement", err)
			return result, nil
		}
		result.RedirectURL = redirect
	}
	return result, nil
}

func (s *Service) initiatePayment(ctx context.Context, order *models.Order) (string, error) {
	resp, err := s.gateway.Initiate(ctx, gateway.InitiateRequest{
		OrderRef:    order.ID.String(),
		AmountPaise: order.Total.Decimal.Mul(paiseFactor).IntPart(),
		Currency:    "INR",
		CustomerRef: order.CustomerID.String(),
	})
	if err != nil {
		return "", err
	}

	order.PaymentRef = resp.PaymentID
	if err := s.orders.Update(ctx, order); err != nil {
		return "", err
	}
	return resp.RedirectURL, nil
}

// ConfirmPayment verifies a relayed gateway confirmation and marks the
// order paid. The signature check is the trust boundary: an unverified
// payload never flips payment state.
func (s *Service) ConfirmPayment(ctx context.Context, raw []byte, signature string) (*models.Order, error) {
	conf, err := s.gateway.VerifyConfirmation(raw, signature)
	if err != nil {
		return nil, errors.New(errors.CodeUnauthorized, "payment confirmation rejected")
	}
	if conf.Status != "succeeded" {
		return nil, errors.New(errors.CodeValidation, "payment did not succeed")
	}

	orderID, err := uuid.Parse(conf.OrderRef)
	if err != nil {
		return nil, errors.New(errors.CodeValidation, "confirmation references unknown order")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "order not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load order")
	}

	if order.PaymentMethod != enums.PaymentMethodOnline {
		return nil, errors.New(errors.CodeValidation, "order is not an online payment")
	}
	if got := order.Total.Decimal.Mul(paiseFactor).IntPart(); got != conf.AmountPaise {
		return nil, errors.New(errors.CodeValidation, "confirmation amount mismatch")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return order, nil
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.WithContext(ctx).
			Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", orderID, enums.PaymentStatusPending).
			Updates(map[string]any{
				"payment_status": enums.PaymentStatusPaid,
				"payment_ref":    conf.PaymentID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New(errors.CodeConflict, "payment state changed concurrently")
		}

		return outbox.Enqueue(tx, outbox.DomainEvent{
			Type:        "payment.confirmed",
			AggregateID: orderID,
			Data: map[string]any{
				"order_id":    orderID.String(),
				"customer_id": order.CustomerID.String(),
				"vendor_id":   order.VendorID.String(),
				"payment_id":  conf.PaymentID,
			},
		})
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			return nil, typed
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "confirm payment")
	}

	return s.orders.GetByID(ctx, orderID)
}

func singleVendor(items []models.CartItem) (uuid.UUID, error) {
	var vendorID uuid.UUID
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		if vendorID == uuid.Nil {
			vendorID = item.Product.VendorID
			continue
		}
		if item.Product.VendorID != vendorID {
			return uuid.Nil, errors.New(errors.CodeValidation, "cart mixes items from multiple stores")
		}
	}
	if vendorID == uuid.Nil {
		return uuid.Nil, errors.New(errors.CodeValidation, "cart items have no vendor")
	}
	return vendorID, nil
}
