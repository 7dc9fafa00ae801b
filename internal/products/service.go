package products

import (
	"context"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/pagination"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

type Input struct {
	Name        string
	Description string
	Category    string
	ImageURL    string
	Price       types.Money
	Stock       int
	Available   bool
}

// Create adds a product to the calling vendor's catalog.
func (s *Service) Create(ctx context.Context, vendorID uuid.UUID, in Input) (*models.Product, error) {
	if in.Price.IsNegative() {
		return nil, errors.New(errors.CodeValidation, "price cannot be negative")
	}

	product := &models.Product{
		VendorID:    vendorID,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Price:       in.Price.RoundPaise(),
		Stock:       in.Stock,
		Available:   in.Available,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "create product")
	}
	return product, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "product not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (s *Service) Browse(ctx context.Context, filter ListFilter, cursorToken string, limit int) (*pagination.Page[models.Product], error) {
	cursor, err := pagination.Decode(cursorToken)
	if err != nil {
		return nil, errors.New(errors.CodeValidation, "invalid cursor")
	}
	limit = pagination.ClampLimit(limit)

	items, err := s.repo.List(ctx, filter, cursor, limit+1)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list products")
	}

	page := &pagination.Page[models.Product]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.NextCursor = pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return page, nil
}

// Update edits a product owned by vendorID; editing someone else's
// catalog is a 403, not a 404, because the row does exist.
func (s *Service) Update(ctx context.Context, vendorID, productID uuid.UUID, in Input) (*models.Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.VendorID != vendorID {
		return nil, errors.New(errors.CodeForbidden, "product belongs to another vendor")
	}
	if in.Price.IsNegative() {
		return nil, errors.New(errors.CodeValidation, "price cannot be negative")
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Category = in.Category
	product.ImageURL = in.ImageURL
	product.Price = in.Price.RoundPaise()
	product.Stock = in.Stock
	product.Available = in.Available

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "update product")
	}
	return product, nil
}
