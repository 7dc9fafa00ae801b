package controllers

import (
	"net/http"

	"github.com/zapkart/zapkart-backend/api/middleware"
	"github.com/zapkart/zapkart-backend/api/responses"
	"github.com/zapkart/zapkart-backend/api/validators"
	adminsvc "github.com/zapkart/zapkart-backend/internal/admin"
	deliverysvc "github.com/zapkart/zapkart-backend/internal/delivery"
	ordersvc "github.com/zapkart/zapkart-backend/internal/orders"
	vendorsvc "github.com/zapkart/zapkart-backend/internal/vendors"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	pkgerrors "github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
)

type inviteVendorRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AdminInviteVendor issues a single-use store invitation.
func AdminInviteVendor(svc *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload inviteVendorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invitation, err := svc.Invite(r.Context(), middleware.UserIDFromContext(r.Context()), payload.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"invitation_id": invitation.ID,
			"email":         invitation.Email,
			"expires_at":    invitation.ExpiresAt,
		})
	}
}

func AdminApproveVendor(svc *adminsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := validators.PathUUID(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ApproveVendor(r.Context(), vendorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "approved"})
	}
}

func AdminApprovePartner(svc *adminsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerID, err := validators.PathUUID(r, "partnerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ApprovePartner(r.Context(), partnerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "approved"})
	}
}

func AdminListUsers(svc *adminsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := enums.UserRole(r.URL.Query().Get("role"))
		users, err := svc.ListUsers(r.Context(), role, validators.QueryInt(r, "limit", 50))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users)
	}
}

type userActiveRequest struct {
	Active bool `json:"active"`
}

func AdminSetUserActive(svc *adminsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.PathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload userActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetUserActive(r.Context(), userID, payload.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// AdminOrderList is the support view across all customers and vendors.
func AdminOrderList(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ordersvc.ListFilter{Status: r.URL.Query().Get("status")}
		if raw := r.URL.Query().Get("customer_id"); raw != "" {
			id, err := validators.ParseUUID(raw, "customer_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.CustomerID = &id
		}
		if raw := r.URL.Query().Get("vendor_id"); raw != "" {
			id, err := validators.ParseUUID(raw, "vendor_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.VendorID = &id
		}

		page, err := svc.List(r.Context(), filter, r.URL.Query().Get("cursor"), validators.QueryInt(r, "limit", 0))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminOrderDetail(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetForAdmin(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func AdminOrderCancel(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.CancelByAdmin(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type deliveryOverrideRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminDeliveryOverride corrects a delivery status through the normal
// state machine guard.
func AdminDeliveryOverride(svc *deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := validators.PathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload deliveryOverrideRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, ok := enums.ParseDeliveryStatus(payload.Status)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery status"))
			return
		}

		request, err := svc.AdminOverride(r.Context(), middleware.UserIDFromContext(r.Context()), requestID, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

func AdminOverview(svc *adminsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := svc.GetOverview(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}
