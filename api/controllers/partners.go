package controllers

import (
	"net/http"

	"github.com/zapkart/zapkart-backend/api/middleware"
	"github.com/zapkart/zapkart-backend/api/responses"
	"github.com/zapkart/zapkart-backend/api/validators"
	partnersvc "github.com/zapkart/zapkart-backend/internal/partners"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/logger"
)

type partnerProfileRequest struct {
	VehicleType string `json:"vehicle_type" validate:"required,oneof=bicycle scooter motorbike car"`
	VehicleRegn string `json:"vehicle_regn" validate:"omitempty,max=20"`
}

func PartnerProfileCreate(svc *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload partnerProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partner, err := svc.CreateProfile(r.Context(), middleware.UserIDFromContext(r.Context()), partnersvc.ProfileInput{
			VehicleType: enums.VehicleType(payload.VehicleType),
			VehicleRegn: payload.VehicleRegn,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, partner)
	}
}

func PartnerProfile(svc *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partner, err := svc.GetByUser(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partner)
	}
}

type dutyRequest struct {
	OnDuty bool `json:"on_duty"`
}

func PartnerSetDuty(svc *partnersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload dutyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partner, err := svc.SetOnDuty(r.Context(), middleware.UserIDFromContext(r.Context()), payload.OnDuty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partner)
	}
}
