package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	"github.com/carvfi/carvfi-backend/internal/config"
	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories"
	"github.com/carvfi/carvfi-backend/internal/utils"
)

// Compile-time check to ensure AuthServiceImpl implements the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthServiceImpl implements AuthService. Wallet identity is trusted as
// verified upstream; operator accounts use bcrypt credentials.
type AuthServiceImpl struct {
	adminRepo repositories.AdminUserRepository
	users     UserService
	cfg       *config.Config
	logger    *slog.Logger
}

// NewAuthService creates a new AuthServiceImpl
func NewAuthService(
	adminRepo repositories.AdminUserRepository,
	users UserService,
	cfg *config.Config,
	logger *slog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		adminRepo: adminRepo,
		users:     users,
		cfg:       cfg,
		logger:    logger,
	}
}

// WalletLogin resolves the wallet to an account, creating it on first
// login, and issues a session token.
func (s *AuthServiceImpl) WalletLogin(ctx context.Context, req *models.WalletLoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.GetOrCreateUser(ctx, req.WalletAddress, req.ReferralCode)
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateJWT(user.WalletAddress, "user", s.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &models.LoginResponse{Token: token, User: user}, nil
}

// AdminLogin authenticates an operator account. The error is identical
// for a wrong email and a wrong password.
func (s *AuthServiceImpl) AdminLogin(ctx context.Context, req *models.AdminLoginRequest) (*models.LoginResponse, error) {
	admin, err := s.adminRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(admin.Email, "admin", s.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	s.logger.Info("admin login", "email", admin.Email)
	return &models.LoginResponse{Token: token}, nil
}

// EnsureAdminUser seeds the configured operator account at startup. No
// configured credentials means no admin surface, which is fine for
// local development.
func (s *AuthServiceImpl) EnsureAdminUser(ctx context.Context) error {
	if s.cfg.Admin.Email == "" || s.cfg.Admin.Password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &models.AdminUser{
		Email:        s.cfg.Admin.Email,
		PasswordHash: string(hash),
		Role:         "admin",
	}
	if err := s.adminRepo.Upsert(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	s.logger.Info("admin user ensured", "email", admin.Email)
	return nil
}
