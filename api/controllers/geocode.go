package controllers

import (
	"net/http"

	"github.com/zapkart/zapkart-backend/api/responses"
	"github.com/zapkart/zapkart-backend/api/validators"
	addresssvc "github.com/zapkart/zapkart-backend/internal/address"
	"github.com/zapkart/zapkart-backend/pkg/logger"
)

type geocodeLookupRequest struct {
	Query string `json:"query" validate:"required,max=255"`
}

// GeocodeLookup resolves free text, typically a pincode, to coordinates
// for the address form.
func GeocodeLookup(svc *addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload geocodeLookupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Locate(r.Context(), payload.Query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type geocodeReverseRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// GeocodeReverse turns dragged-pin coordinates into a display address.
func GeocodeReverse(svc *addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload geocodeReverseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ReverseLocate(r.Context(), payload.Latitude, payload.Longitude)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
