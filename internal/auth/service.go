package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zapkart/zapkart-backend/internal/users"
	"github.com/zapkart/zapkart-backend/pkg/auth"
	"github.com/zapkart/zapkart-backend/pkg/auth/session"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/security"
)

// Service handles registration, login and logout for all roles.
// Vendor and partner accounts go through their own onboarding flows;
// self-service registration only creates customers and partners.
type Service struct {
	users    users.Repo
	sessions *session.Store
	tokens   *auth.TokenManager
	logg     *logger.Logger
}

func NewService(usersRepo users.Repo, sessions *session.Store, tokens *auth.TokenManager, logg *logger.Logger) *Service {
	return &Service{users: usersRepo, sessions: sessions, tokens: tokens, logg: logg}
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     enums.UserRole
}

type AuthResult struct {
	User  *models.User
	Token string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Role != enums.UserRoleCustomer && in.Role != enums.UserRolePartner {
		return nil, errors.New(errors.CodeForbidden, "role cannot self-register")
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Role:         in.Role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, errors.New(errors.CodeConflict, "email already registered")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "create user")
	}

	return s.startSession(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "lookup user")
	}
	if !user.Active {
		return nil, errors.New(errors.CodeForbidden, "account disabled")
	}

	if err := security.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logg.Warn(ctx, "failed to record last login")
	}

	return s.startSession(ctx, user)
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "revoke session")
	}
	return nil
}

// Verify resolves a bearer token to live claims, rejecting tokens whose
// session has been revoked.
func (s *Service) Verify(ctx context.Context, rawToken string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, errors.New(errors.CodeUnauthorized, "invalid token")
	}
	if _, err := s.sessions.Get(ctx, claims.SessionID); err != nil {
		return nil, errors.New(errors.CodeUnauthorized, "session expired")
	}
	return claims, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.New(errors.CodeNotFound, "user not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "lookup user")
	}
	return user, nil
}

func (s *Service) startSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	sess, err := s.sessions.Create(ctx, user.ID, user.Role)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "create session")
	}

	token, err := s.tokens.Issue(user.ID, user.Role, sess.ID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "issue token")
	}

	return &AuthResult{User: user, Token: token}, nil
}
