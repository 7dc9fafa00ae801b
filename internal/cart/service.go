package cart

import (
	"context"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/internal/products"
	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/types"
)

type Service struct {
	repo     Repo
	products products.Repo
}

func NewService(repo Repo, productsRepo products.Repo) *Service {
	return &Service{repo: repo, products: productsRepo}
}

// Summary is the cart with its running subtotal.
type Summary struct {
	Items    []models.CartItem `json:"items"`
	Subtotal types.Money       `json:"subtotal"`
}

func (s *Service) SetItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return errors.New(errors.CodeValidation, "quantity cannot be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return errors.New(errors.CodeNotFound, "product not found")
	}
	if !product.Available {
		return errors.New(errors.CodeValidation, "product unavailable")
	}
	if quantity > product.Stock {
		return errors.New(errors.CodeValidation, "quantity exceeds stock")
	}

	existing, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "load cart")
	}
	if len(existing) >= config.MaxCartItems {
		found := false
		for _, item := range existing {
			if item.ProductID == productID {
				found = true
				break
			}
		}
		if !found {
			return errors.New(errors.CodeValidation, "cart is full")
		}
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "save cart item")
	}
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "remove cart item")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load cart")
	}

	subtotal := types.ZeroMoney()
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		subtotal = subtotal.AddMoney(item.Product.Price.MulInt(int64(item.Quantity)))
	}

	return &Summary{Items: items, Subtotal: subtotal.RoundPaise()}, nil
}

func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "clear cart")
	}
	return nil
}
