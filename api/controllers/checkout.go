package controllers

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/api/middleware"
	"github.com/zapkart/zapkart-backend/api/responses"
	"github.com/zapkart/zapkart-backend/api/validators"
	checkoutsvc "github.com/zapkart/zapkart-backend/internal/checkout"
	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	pkgerrors "github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
)

type checkoutRequest struct {
	AddressID     uuid.UUID `json:"address_id" validate:"omitempty"`
	PaymentMethod string    `json:"payment_method" validate:"required,oneof=cod online"`
	CouponCode    string    `json:"coupon_code" validate:"omitempty,max=40"`

	// Ad-hoc destination used instead of a saved address, e.g. when
	// ordering for someone else. The service enforces completeness.
	DropLine1   string   `json:"drop_line1" validate:"omitempty,max=255"`
	DropLine2   string   `json:"drop_line2" validate:"omitempty,max=255"`
	DropCity    string   `json:"drop_city" validate:"omitempty,max=80"`
	DropPincode string   `json:"drop_pincode" validate:"omitempty,max=12"`
	DropLat     *float64 `json:"drop_lat" validate:"omitempty,latitude"`
	DropLng     *float64 `json:"drop_lng" validate:"omitempty,longitude"`

	RecipientName  string `json:"recipient_name" validate:"omitempty,max=120"`
	RecipientPhone string `json:"recipient_phone" validate:"omitempty,max=20"`
	Instructions   string `json:"instructions" validate:"omitempty,max=500"`
}

// Checkout submits the caller's cart as an order.
func Checkout(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), middleware.UserIDFromContext(r.Context()), checkoutsvc.Input{
			AddressID:      payload.AddressID,
			PaymentMethod:  enums.PaymentMethod(payload.PaymentMethod),
			CouponCode:     payload.CouponCode,
			DropLine1:      payload.DropLine1,
			DropLine2:      payload.DropLine2,
			DropCity:       payload.DropCity,
			DropPincode:    payload.DropPincode,
			DropLat:        payload.DropLat,
			DropLng:        payload.DropLng,
			RecipientName:  payload.RecipientName,
			RecipientPhone: payload.RecipientPhone,
			Instructions:   payload.Instructions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentConfirm receives the gateway's signed confirmation callback.
// The raw body goes to the service untouched; the HMAC covers the
// exact bytes on the wire.
func PaymentConfirm(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, config.MaxRequestBodyBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read confirmation"))
			return
		}

		order, err := svc.ConfirmPayment(r.Context(), raw, r.Header.Get("X-Signature"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
