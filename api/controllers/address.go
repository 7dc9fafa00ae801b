package controllers

import (
	"net/http"

	"github.com/zapkart/zapkart-backend/api/middleware"
	"github.com/zapkart/zapkart-backend/api/responses"
	"github.com/zapkart/zapkart-backend/api/validators"
	addresssvc "github.com/zapkart/zapkart-backend/internal/address"
	"github.com/zapkart/zapkart-backend/pkg/logger"
)

type addressRequest struct {
	Label     string `json:"label" validate:"omitempty,max=40"`
	Line1     string `json:"line1" validate:"required,max=255"`
	Line2     string `json:"line2" validate:"omitempty,max=255"`
	City      string `json:"city" validate:"required,max=80"`
	State     string `json:"state" validate:"omitempty,max=80"`
	Pincode   string `json:"pincode" validate:"required,min=4,max=12"`
	IsDefault bool   `json:"is_default"`
}

func (p addressRequest) toInput() addresssvc.Input {
	return addresssvc.Input{
		Label:     p.Label,
		Line1:     p.Line1,
		Line2:     p.Line2,
		City:      p.City,
		State:     p.State,
		Pincode:   p.Pincode,
		IsDefault: p.IsDefault,
	}
}

func AddressCreate(svc *addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Create(r.Context(), middleware.UserIDFromContext(r.Context()), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, addr)
	}
}

func AddressList(svc *addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addrs, err := svc.List(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addrs)
	}
}

func AddressUpdate(svc *addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addressID, err := validators.PathUUID(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Update(r.Context(), middleware.UserIDFromContext(r.Context()), addressID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addr)
	}
}

func AddressDelete(svc *addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addressID, err := validators.PathUUID(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
