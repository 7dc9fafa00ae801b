package vendors

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zapkart/zapkart-backend/internal/users"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/mailer"
	"github.com/zapkart/zapkart-backend/pkg/security"
)

// Service handles vendor onboarding. Vendors cannot self-register: an
// admin issues a single-use emailed invitation and the store owner
// completes registration with the token.
type Service struct {
	users         users.Repo
	client        *db.Client
	mail          mailer.Mailer
	invitationTTL time.Duration
	logg          *logger.Logger
}

func NewService(usersRepo users.Repo, client *db.Client, mail mailer.Mailer, invitationTTL time.Duration, logg *logger.Logger) *Service {
	return &Service{users: usersRepo, client: client, mail: mail, invitationTTL: invitationTTL, logg: logg}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Invite creates an invitation and emails the token. The raw token is
// never stored; only its hash is.
func (s *Service) Invite(ctx context.Context, adminID uuid.UUID, email string) (*models.VendorInvitation, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errors.New(errors.CodeConflict, "email already registered")
	} else if !db.IsNotFound(err) {
		return nil, errors.Wrap(errors.CodeInternal, err, "lookup email")
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "generate token")
	}
	token := hex.EncodeToString(buf)

	invitation := &models.VendorInvitation{
		Email:     email,
		TokenHash: hashToken(token),
		InvitedBy: adminID,
		ExpiresAt: time.Now().UTC().Add(s.invitationTTL),
	}
	if err := s.client.Gorm().WithContext(ctx).Create(invitation).Error; err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "create invitation")
	}

	body := fmt.Sprintf(
		"You have been invited to open a store on ZapKart.\n\nYour invitation token: %s\n\nThe token expires on %s.",
		token, invitation.ExpiresAt.Format(time.RFC1123),
	)
	if err := s.mail.Send(ctx, email, "Your ZapKart store invitation", body); err != nil {
		s.logg.Error(ctx, "invitation mail failed", err)
	}
	return invitation, nil
}

type RegisterInput struct {
	Token     string
	Email     string
	Password  string
	FullName  string
	Phone     string
	StoreName string
	Line1     string
	City      string
	Pincode   string
}

// Register consumes an invitation and creates the vendor account and
// store profile in one transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Vendor, error) {
	var invitation models.VendorInvitation
	err := s.client.Gorm().WithContext(ctx).
		First(&invitation, "token_hash = ?", hashToken(in.Token)).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeUnauthorized, "invalid invitation token")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load invitation")
	}

	if invitation.UsedAt != nil {
		return nil, errors.New(errors.CodeConflict, "invitation already used")
	}
	if time.Now().After(invitation.ExpiresAt) {
		return nil, errors.New(errors.CodeUnauthorized, "invitation expired")
	}
	if invitation.Email != in.Email {
		return nil, errors.New(errors.CodeUnauthorized, "invitation was issued for a different email")
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "hash password")
	}

	vendor := &models.Vendor{
		StoreName: in.StoreName,
		Line1:     in.Line1,
		City:      in.City,
		Pincode:   in.Pincode,
		Open:      true,
		Approved:  true,
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		user := &models.User{
			Email:        in.Email,
			PasswordHash: hash,
			FullName:     in.FullName,
			Phone:        in.Phone,
			Role:         enums.UserRoleVendor,
			Active:       true,
		}
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errors.New(errors.CodeConflict, "email already registered")
			}
			return err
		}

		vendor.UserID = user.ID
		if err := tx.WithContext(ctx).Create(vendor).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		res := tx.WithContext(ctx).
			Model(&models.VendorInvitation{}).
			Where("id = ? AND used_at IS NULL", invitation.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New(errors.CodeConflict, "invitation already used")
		}
		return nil
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			return nil, typed
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "register vendor")
	}
	return vendor, nil
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := s.client.Gorm().WithContext(ctx).First(&vendor, "user_id = ?", userID).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "vendor profile not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "load vendor")
	}
	return &vendor, nil
}

// SetOpen flips the storefront open or closed.
func (s *Service) SetOpen(ctx context.Context, userID uuid.UUID, open bool) (*models.Vendor, error) {
	vendor, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	vendor.Open = open
	if err := s.client.Gorm().WithContext(ctx).Save(vendor).Error; err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "update vendor")
	}
	return vendor, nil
}
