package vendors

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapkart/zapkart-backend/internal/testutil"
	"github.com/zapkart/zapkart-backend/internal/users"
	"github.com/zapkart/zapkart-backend/pkg/db"
	"github.com/zapkart/zapkart-backend/pkg/db/models"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/errors"
	"github.com/zapkart/zapkart-backend/pkg/logger"
)

var tokenPattern = regexp.MustCompile(`invitation token: ([0-9a-f]{64})`)

type capturingMailer struct {
	to      string
	subject string
	body    string
}

func (m *capturingMailer) Send(_ context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

func (m *capturingMailer) token(t *testing.T) string {
	t.Helper()
	match := tokenPattern.FindStringSubmatch(m.body)
	require.Len(t, match, 2, "invitation mail should carry the token")
	return match[1]
}

func newVendorService(t *testing.T) (*Service, *capturingMailer, *db.Client) {
	t.Helper()
	client := testutil.OpenDB(t)
	mail := &capturingMailer{}
	logg := logger.New(logger.Options{ServiceName: "test"})
	return NewService(users.NewRepo(client), client, mail, 7*24*time.Hour, logg), mail, client
}

func registerInput(token string) RegisterInput {
	return RegisterInput{
		Token:     token,
		Email:     "owner@store.example",
		Password:  "s3cret-pass",
		FullName:  "Store Owner",
		Phone:     "+919900112233",
		StoreName: "Corner Mart",
		Line1:     "12 Market Road",
		City:      "Bengaluru",
		Pincode:   "560001",
	}
}

func TestInviteEmailsTokenAndStoresOnlyHash(t *testing.T) {
	svc, mail, client := newVendorService(t)

	invitation, err := svc.Invite(context.Background(), uuid.New(), "owner@store.example")
	require.NoError(t, err)

	token := mail.token(t)
	assert.Equal(t, "owner@store.example", mail.to)
	assert.NotContains(t, invitation.TokenHash, token)

	var stored models.VendorInvitation
	require.NoError(t, client.Gorm().First(&stored, "id = ?", invitation.ID).Error)
	assert.Equal(t, hashToken(token), stored.TokenHash)
}

func TestRegisterConsumesInvitation(t *testing.T) {
	svc, mail, client := newVendorService(t)
	ctx := context.Background()

	_, err := svc.Invite(ctx, uuid.New(), "owner@store.example")
	require.NoError(t, err)
	token := mail.token(t)

	vendor, err := svc.Register(ctx, registerInput(token))
	require.NoError(t, err)
	assert.Equal(t, "Corner Mart", vendor.StoreName)
	assert.True(t, vendor.Open)

	var user models.User
	require.NoError(t, client.Gorm().First(&user, "id = ?", vendor.UserID).Error)
	assert.Equal(t, enums.UserRoleVendor, user.Role)

	// Single use: a second registration with the same token fails.
	_, err = svc.Register(ctx, registerInput(token))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConflict, errors.As(err).Code())
}

func TestRegisterRejectsBadToken(t *testing.T) {
	svc, _, _ := newVendorService(t)

	_, err := svc.Register(context.Background(), registerInput("deadbeef"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errors.As(err).Code())
}

func TestRegisterRejectsExpiredInvitation(t *testing.T) {
	svc, mail, client := newVendorService(t)
	ctx := context.Background()

	invitation, err := svc.Invite(ctx, uuid.New(), "owner@store.example")
	require.NoError(t, err)
	token := mail.token(t)

	require.NoError(t, client.Gorm().
		Model(&models.VendorInvitation{}).
		Where("id = ?", invitation.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = svc.Register(ctx, registerInput(token))
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, errors.CodeUnauthorized, typed.Code())
	assert.Contains(t, typed.Message(), "expired")
}

func TestRegisterRejectsMismatchedEmail(t *testing.T) {
	svc, mail, _ := newVendorService(t)
	ctx := context.Background()

	_, err := svc.Invite(ctx, uuid.New(), "owner@store.example")
	require.NoError(t, err)

	in := registerInput(mail.token(t))
	in.Email = "someone-else@store.example"
	_, err = svc.Register(ctx, in)
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errors.As(err).Code())
}

func TestInviteRejectsExistingEmail(t *testing.T) {
	svc, _, client := newVendorService(t)
	require.NoError(t, client.Gorm().Create(&models.User{
		Email:        "owner@store.example",
		PasswordHash: "x",
		FullName:     "Existing",
		Role:         enums.UserRoleCustomer,
		Active:       true,
	}).Error)

	_, err := svc.Invite(context.Background(), uuid.New(), "owner@store.example")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConflict, errors.As(err).Code())
}

func TestSetOpenTogglesStorefront(t *testing.T) {
	svc, mail, _ := newVendorService(t)
	ctx := context.Background()

	_, err := svc.Invite(ctx, uuid.New(), "owner@store.example")
	require.NoError(t, err)
	vendor, err := svc.Register(ctx, registerInput(mail.token(t)))
	require.NoError(t, err)

	updated, err := svc.SetOpen(ctx, vendor.UserID, false)
	require.NoError(t, err)
	assert.False(t, updated.Open)

	reloaded, err := svc.GetByUser(ctx, vendor.UserID)
	require.NoError(t, err)
	assert.False(t, reloaded.Open)
}
