package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zapkart/zapkart-backend/api/middleware"
	"github.com/zapkart/zapkart-backend/api/responses"
	"github.com/zapkart/zapkart-backend/api/validators"
	cartsvc "github.com/zapkart/zapkart-backend/internal/cart"
	couponsvc "github.com/zapkart/zapkart-backend/internal/coupons"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	pkgerrors "github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

type couponValidateRequest struct {
	Code string `json:"code" validate:"required,max=40"`
}

type couponValidateResponse struct {
	Code     string      `json:"code"`
	Discount types.Money `json:"discount"`
	Subtotal types.Money `json:"subtotal"`
	Payable  types.Money `json:"payable"`
}

// CouponValidate previews a coupon against the caller's current cart.
// Nothing is redeemed; checkout re-validates inside its transaction.
func CouponValidate(svc *couponsvc.Service, carts *cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload couponValidateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := carts.Get(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(summary.Items) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}

		var vendorID uuid.UUID
		if p := summary.Items[0].Product; p != nil {
			vendorID = p.VendorID
		}

		validation, err := svc.Validate(r.Context(), payload.Code, vendorID, summary.Subtotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, couponValidateResponse{
			Code:     validation.Coupon.Code,
			Discount: validation.Discount,
			Subtotal: summary.Subtotal,
			Payable:  summary.Subtotal.SubMoney(validation.Discount).RoundPaise(),
		})
	}
}

type adminCouponRequest struct {
	Code          string     `json:"code" validate:"required,max=40"`
	Kind          string     `json:"kind" validate:"required,oneof=percent flat"`
	VendorID      *uuid.UUID `json:"vendor_id,omitempty"`
	Percent       string     `json:"percent" validate:"omitempty"`
	Amount        string     `json:"amount" validate:"omitempty"`
	MinOrderValue string     `json:"min_order_value" validate:"omitempty"`
	MaxDiscount   string     `json:"max_discount" validate:"omitempty"`
	ValidFrom     time.Time  `json:"valid_from" validate:"required"`
	ValidUntil    time.Time  `json:"valid_until" validate:"required"`
	UsageLimit    int        `json:"usage_limit" validate:"min=0"`
	Active        bool       `json:"active"`
}

func parseMoneyField(raw, name string) (types.Money, error) {
	if raw == "" {
		return types.ZeroMoney(), nil
	}
	value, err := types.MoneyFromString(raw)
	if err != nil {
		return types.Money{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name).
			WithDetails(map[string]string{name: "must be a decimal amount"})
	}
	return value, nil
}

func AdminCouponCreate(svc *couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adminCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		percent := decimal.Zero
		if payload.Percent != "" {
			parsed, err := decimal.NewFromString(payload.Percent)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid percent"))
				return
			}
			percent = parsed
		}

		amount, err := parseMoneyField(payload.Amount, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		minOrder, err := parseMoneyField(payload.MinOrderValue, "min_order_value")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		maxDiscount, err := parseMoneyField(payload.MaxDiscount, "max_discount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Create(r.Context(), couponsvc.AdminInput{
			Code:          payload.Code,
			Kind:          enums.CouponKind(payload.Kind),
			VendorID:      payload.VendorID,
			Percent:       percent,
			Amount:        amount,
			MinOrderValue: minOrder,
			MaxDiscount:   maxDiscount,
			ValidFrom:     payload.ValidFrom,
			ValidUntil:    payload.ValidUntil,
			UsageLimit:    payload.UsageLimit,
			Active:        payload.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func AdminCouponList(svc *couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var vendorID *uuid.UUID
		if raw := r.URL.Query().Get("vendor_id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid vendor_id"))
				return
			}
			vendorID = &parsed
		}

		coupons, err := svc.List(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupons)
	}
}

type couponActiveRequest struct {
	Active bool `json:"active"`
}

func AdminCouponSetActive(svc *couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		var payload couponActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.SetActive(r.Context(), code, payload.Active)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}
