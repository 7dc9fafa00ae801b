package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/api/middleware"
	"github.com/zapkart/zapkart-backend/api/responses"
	"github.com/zapkart/zapkart-backend/api/validators"
	productsvc "github.com/zapkart/zapkart-backend/internal/products"
	vendorsvc "github.com/zapkart/zapkart-backend/internal/vendors"
	pkgerrors "github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

type productRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Category    string `json:"category" validate:"omitempty,max=80"`
	ImageURL    string `json:"image_url" validate:"omitempty,url,max=500"`
	Price       string `json:"price" validate:"required"`
	Stock       int    `json:"stock" validate:"min=0"`
	Available   bool   `json:"available"`
}

func (p productRequest) toInput() (productsvc.Input, error) {
	price, err := types.MoneyFromString(p.Price)
	if err != nil {
		return productsvc.Input{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid price").
			WithDetails(map[string]string{"price": "must be a decimal amount"})
	}
	return productsvc.Input{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Price:       price,
		Stock:       p.Stock,
		Available:   p.Available,
	}, nil
}

// vendorForRequest resolves the calling vendor user to their store.
func vendorForRequest(r *http.Request, vendors *vendorsvc.Service) (uuid.UUID, error) {
	vendor, err := vendors.GetByUser(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, err
	}
	return vendor.ID, nil
}

func ProductBrowse(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := productsvc.ListFilter{
			Category:      r.URL.Query().Get("category"),
			OnlyAvailable: true,
		}
		if raw := r.URL.Query().Get("vendor_id"); raw != "" {
			vendorID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid vendor_id"))
				return
			}
			filter.VendorID = &vendorID
		}

		page, err := svc.Browse(r.Context(), filter, r.URL.Query().Get("cursor"), validators.QueryInt(r, "limit", 0))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ProductDetail(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func VendorCreateProduct(svc *productsvc.Service, vendors *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorForRequest(r, vendors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), vendorID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func VendorUpdateProduct(svc *productsvc.Service, vendors *vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := vendorForRequest(r, vendors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), vendorID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
