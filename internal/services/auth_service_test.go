package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/testutil"
	"github.com/javajoker/storefront-backend/internal/utils"
)

func newAuthService(t *testing.T) (*AuthService, *config.Config) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.AccessTokenTTL = 1
	cfg.JWT.RefreshTokenTTL = 24
	return NewAuthService(testutil.NewTestDB(t), cfg), cfg
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterRequest{Username: "ada", Email: "Ada@Example.com", Password: "Secret123!"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", registered.User.Email)
	assert.Equal(t, models.UserRoleCustomer, registered.User.Role)
	assert.Equal(t, "Bearer", registered.TokenType)

	claims, err := utils.ValidateJWT(registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID.String(), claims.UserID)

	loggedIn, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "Secret123!"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)
	assert.NotNil(t, loggedIn.User.LastLoginAt)

	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthRegisterRejectsDuplicatesAndWeakPasswords(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "Secret123!"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterRequest{Username: "ada", Email: "other@example.com", Password: "Secret123!"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(ctx, &RegisterRequest{Username: "grace", Email: "grace@example.com", Password: "password"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthSuspendedUserCannotLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	user := testutil.CreateUser(t, svc.db, "suspended", models.UserRoleCustomer)
	require.NoError(t, svc.db.Model(user).Update("status", models.UserStatusSuspended).Error)

	_, err := svc.Login(context.Background(), &LoginRequest{Email: user.Email, Password: "Secret123!"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthRefreshToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "Secret123!"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, registered.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)

	_, err = svc.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Access tokens are not refresh tokens
	_, err = svc.RefreshToken(ctx, registered.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
