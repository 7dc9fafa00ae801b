package controllers

import (
	"net/http"

	"github.com/zapkart/zapkart-backend/api/middleware"
	"github.com/zapkart/zapkart-backend/api/responses"
	"github.com/zapkart/zapkart-backend/api/validators"
	vendorsvc "github.com/zapkart/zapkart-backend/internal/vendors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
)

type vendorRegisterRequest struct {
	Token     string `json:"token" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FullName  string `json:"full_name" validate:"required,max=120"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
	StoreName string `json:"store_name" validate:"required,max=160"`
	Line1     string `json:"line1" validate:"required,max=255"`
	City      string `json:"city" validate:"required,max=80"`
	Pincode   string `json:"pincode" validate:"required,min=4,max=12"`
}

// VendorRegister completes an admin-issued store invitation.
func VendorRegister(svc *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload vendorRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.Register(r.Context(), vendorsvc.RegisterInput{
			Token:     payload.Token,
			Email:     payload.Email,
			Password:  payload.Password,
			FullName:  payload.FullName,
			Phone:     payload.Phone,
			StoreName: payload.StoreName,
			Line1:     payload.Line1,
			City:      payload.City,
			Pincode:   payload.Pincode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, vendor)
	}
}

func VendorProfile(svc *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendor, err := svc.GetByUser(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

type storeOpenRequest struct {
	Open bool `json:"open"`
}

func VendorSetOpen(svc *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload storeOpenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.SetOpen(r.Context(), middleware.UserIDFromContext(r.Context()), payload.Open)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}
