package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/utils"
)

func TestWalletLoginCreatesAccountAndToken(t *testing.T) {
	f := newFixture(t)

	resp, err := f.auth.WalletLogin(context.Background(), &models.WalletLoginRequest{WalletAddress: "0xabc"})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "0xabc", resp.User.WalletAddress)

	claims, err := utils.ValidateJWT(resp.Token, f.cfg)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", claims["sub"])
	assert.Equal(t, "user", claims["role"])
}

func TestAdminLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.cfg.Admin.Email = "ops@example.com"
	f.cfg.Admin.Password = "s3cret"
	require.NoError(t, f.auth.EnsureAdminUser(ctx))

	resp, err := f.auth.AdminLogin(ctx, &models.AdminLoginRequest{Email: "ops@example.com", Password: "s3cret"})
	require.NoError(t, err)
	claims, err := utils.ValidateJWT(resp.Token, f.cfg)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims["role"])

	_, err = f.auth.AdminLogin(ctx, &models.AdminLoginRequest{Email: "ops@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.AdminLogin(ctx, &models.AdminLoginRequest{Email: "nobody@example.com", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
