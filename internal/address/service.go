package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/geocode"
	"github.com/zapkart/zapkart-backend/pkg/logger"
)

// Service manages customer delivery addresses. New addresses are
// geocoded best-effort; a failed lookup never blocks saving.
type Service struct {
	repo     Repo
	client   *db.Client
	resolver *geocode.Resolver
	logg     *logger.Logger
}

func NewService(repo Repo, client *db.Client, resolver *geocode.Resolver, logg *logger.Logger) *Service {
	return &Service{repo: repo, client: client, resolver: resolver, logg: logg}
}

type Input struct {
	Label     string
	Line1     string
	Line2     string
	City      string
	State     string
	Pincode   string
	IsDefault bool
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, in Input) (*models.Address, error) {
	addr := &models.Address{
		UserID:    userID,
		Label:     in.Label,
		Line1:     in.Line1,
		Line2:     in.Line2,
		City:      in.City,
		State:     in.State,
		Pincode:   in.Pincode,
		IsDefault: in.IsDefault,
	}

	s.fillCoordinates(ctx, addr)

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if in.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return txRepo.Create(ctx, addr)
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "create address")
	}
	return addr, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list addresses")
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, userID, addressID uuid.UUID, in Input) (*models.Address, error) {
	addr, err := s.repo.GetForUser(ctx, addressID, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "address not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load address")
	}

	relocated := addr.Line1 != in.Line1 || addr.City != in.City || addr.Pincode != in.Pincode

	addr.Label = in.Label
	addr.Line1 = in.Line1
	addr.Line2 = in.Line2
	addr.City = in.City
	addr.State = in.State
	addr.Pincode = in.Pincode
	addr.IsDefault = in.IsDefault

	if relocated {
		addr.Latitude = nil
		addr.Longitude = nil
		s.fillCoordinates(ctx, addr)
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if in.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return txRepo.Update(ctx, addr)
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "update address")
	}
	return addr, nil
}

func (s *Service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if err := s.repo.Delete(ctx, addressID, userID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "delete address")
	}
	return nil
}

// Locate geocodes free text, typically a pincode, for the address form.
func (s *Service) Locate(ctx context.Context, query string) (*geocode.Result, error) {
	if s.resolver == nil {
		return nil, errors.New(errors.CodeDependency, "geocoding is not configured")
	}
	result, err := s.resolver.Resolve(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "geocode lookup failed")
	}
	return result, nil
}

// ReverseLocate turns dragged-pin coordinates back into display text.
func (s *Service) ReverseLocate(ctx context.Context, lat, lng float64) (*geocode.Result, error) {
	if s.resolver == nil {
		return nil, errors.New(errors.CodeDependency, "geocoding is not configured")
	}
	result, err := s.resolver.Reverse(ctx, lat, lng)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "reverse geocode failed")
	}
	return result, nil
}

func (s *Service) fillCoordinates(ctx context.Context, addr *models.Address) {
	if s.resolver == nil {
		return
	}
	query := strings.TrimSpace(fmt.Sprintf("%s, %s %s", addr.Line1, addr.City, addr.Pincode))
	result, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		s.logg.Warn(ctx, "geocode failed for new address")
		return
	}
	addr.Latitude = &result.Latitude
	addr.Longitude = &result.Longitude
}
