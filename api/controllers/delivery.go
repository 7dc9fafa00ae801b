package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/api/middleware"
	"github.com/zapkart/zapkart-backend/api/responses"
	"github.com/zapkart/zapkart-backend/api/validators"
	deliverysvc "github.com/zapkart/zapkart-backend/internal/delivery"
	partnersvc "github.com/zapkart/zapkart-backend/internal/partners"
	vendorsvc "github.com/zapkart/zapkart-backend/internal/vendors"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	pkgerrors "github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
)

// partnerForRequest resolves the calling partner user to their profile.
func partnerForRequest(r *http.Request, partners *partnersvc.Service) (uuid.UUID, error) {
	partner, err := partners.GetByUser(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, err
	}
	return partner.ID, nil
}

// Vendor side of the assignment workflow.

func VendorUnassignedDeliveries(svc *deliverysvc.Service, vendors *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorForRequest(r, vendors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requests, err := svc.Unassigned(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requests)
	}
}

type assignRequest struct {
	PartnerID uuid.UUID `json:"partner_id" validate:"required"`
}

func VendorAssignDelivery(svc *deliverysvc.Service, vendors *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorForRequest(r, vendors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := validators.PathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Assign(r.Context(), vendorID, requestID, payload.PartnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

func VendorDeliveryResponses(svc *deliverysvc.Service, vendors *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorForRequest(r, vendors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := validators.PathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		history, err := svc.Responses(r.Context(), vendorID, requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

// Partner side.

func PartnerAssignments(svc *deliverysvc.Service, partners *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerID, err := partnerForRequest(r, partners)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignments, err := svc.Assignments(r.Context(), partnerID, validators.QueryBool(r, "active"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignments)
	}
}

type respondRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
	Reason   string `json:"reason" validate:"omitempty,max=300"`
}

func PartnerRespond(svc *deliverysvc.Service, partners *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerID, err := partnerForRequest(r, partners)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := validators.PathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload respondRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		decision, ok := enums.ParsePartnerDecision(payload.Decision)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown decision"))
			return
		}

		request, err := svc.Respond(r.Context(), partnerID, requestID, decision, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

func partnerStageHandler(
	partners *partnersvc.Service,
	logg *logger.Logger,
	stage func(r *http.Request, partnerID, requestID uuid.UUID) (any, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerID, err := partnerForRequest(r, partners)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := validators.PathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := stage(r, partnerID, requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func PartnerPickup(svc *deliverysvc.Service, partners *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return partnerStageHandler(partners, logg, func(r *http.Request, partnerID, requestID uuid.UUID) (any, error) {
		return svc.Pickup(r.Context(), partnerID, requestID)
	})
}

// PartnerOutForDelivery starts the customer leg. The device position in
// the body becomes the first tracking point.
func PartnerOutForDelivery(svc *deliverysvc.Service, partners *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return partnerStageHandler(partners, logg, func(r *http.Request, partnerID, requestID uuid.UUID) (any, error) {
		var payload locationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.OutForDelivery(r.Context(), partnerID, requestID, payload.Latitude, payload.Longitude)
	})
}

// PartnerPaymentReceived records cash collection on a COD order.
func PartnerPaymentReceived(svc *deliverysvc.Service, partners *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return partnerStageHandler(partners, logg, func(r *http.Request, partnerID, requestID uuid.UUID) (any, error) {
		return svc.MarkPaymentReceived(r.Context(), partnerID, requestID)
	})
}

func PartnerDelivered(svc *deliverysvc.Service, partners *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return partnerStageHandler(partners, logg, func(r *http.Request, partnerID, requestID uuid.UUID) (any, error) {
		return svc.Delivered(r.Context(), partnerID, requestID)
	})
}

func PartnerOrderDetails(svc *deliverysvc.Service, partners *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return partnerStageHandler(partners, logg, func(r *http.Request, partnerID, requestID uuid.UUID) (any, error) {
		return svc.OrderDetails(r.Context(), partnerID, requestID)
	})
}

// PartnerNavigate returns a maps deep link; ?to=vendor targets the
// store for the pickup leg, the default is the customer destination.
func PartnerNavigate(svc *deliverysvc.Service, partners *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return partnerStageHandler(partners, logg, func(r *http.Request, partnerID, requestID uuid.UUID) (any, error) {
		link, err := svc.NavigationLink(r.Context(), partnerID, requestID, r.URL.Query().Get("to"))
		if err != nil {
			return nil, err
		}
		return map[string]string{"url": link}, nil
	})
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// PartnerLocation appends a tracking point. Throttled submissions are
// acknowledged without being stored so couriers keep a simple cadence.
func PartnerLocation(svc *deliverysvc.Service, partners *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerID, err := partnerForRequest(r, partners)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := validators.PathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload locationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accepted, err := svc.RecordLocation(r.Context(), partnerID, requestID, payload.Latitude, payload.Longitude)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]bool{"stored": accepted})
	}
}
