package controllers

import (
	"net/http"

	"github.com/zapkart/zapkart-backend/api/middleware"
	"github.com/zapkart/zapkart-backend/api/responses"
	"github.com/zapkart/zapkart-backend/api/validators"
	deliverysvc "github.com/zapkart/zapkart-backend/internal/delivery"
	ordersvc "github.com/zapkart/zapkart-backend/internal/orders"
	vendorsvc "github.com/zapkart/zapkart-backend/internal/vendors"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	pkgerrors "github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
)

func OrderList(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := middleware.UserIDFromContext(r.Context())
		filter := ordersvc.ListFilter{
			CustomerID: &customerID,
			Status:     r.URL.Query().Get("status"),
		}

		page, err := svc.List(r.Context(), filter, r.URL.Query().Get("cursor"), validators.QueryInt(r, "limit", 0))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func OrderDetail(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetForCustomer(r.Context(), middleware.UserIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func OrderCancel(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Cancel(r.Context(), middleware.UserIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// OrderTrack returns the recent courier trail for a customer's order.
func OrderTrack(svc *deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		points, err := svc.Track(r.Context(), middleware.UserIDFromContext(r.Context()), orderID, validators.QueryInt(r, "limit", 50))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, points)
	}
}

func VendorOrderList(svc *ordersvc.Service, vendors *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorForRequest(r, vendors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := ordersvc.ListFilter{
			VendorID: &vendorID,
			Status:   r.URL.Query().Get("status"),
		}

		page, err := svc.List(r.Context(), filter, r.URL.Query().Get("cursor"), validators.QueryInt(r, "limit", 0))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func VendorOrderDetail(svc *ordersvc.Service, vendors *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorForRequest(r, vendors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetForVendor(r.Context(), vendorID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type orderTransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted preparing ready_for_pickup completed cancelled"`
}

func VendorOrderTransition(svc *ordersvc.Service, vendors *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorForRequest(r, vendors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to := enums.OrderStatus(payload.Status)
		if !to.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
			return
		}

		view, err := svc.VendorTransition(r.Context(), vendorID, orderID, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
