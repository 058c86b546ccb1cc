package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/carvfi/carvfi-backend/internal/config"
	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories"
	"github.com/carvfi/carvfi-backend/internal/utils"
	"github.com/carvfi/carvfi-backend/pkg/clock"
	"github.com/carvfi/carvfi-backend/pkg/keymutex"
)

// Compile-time check to ensure UserServiceImpl implements the interface
var _ UserService = (*UserServiceImpl)(nil)

const (
	// streakBonusEvery pays the streak bonus on every Nth consecutive
	// check-in day.
	streakBonusEvery = 7

	referralCodeAttempts = 5

	defaultLeaderboardLimit = 100
)

// UserServiceImpl implements UserService.
type UserServiceImpl struct {
	userRepo repositories.UserRepository
	points   PointsService
	cfg      *config.Config
	clock    clock.Clock
	locks    *keymutex.KeyMutex
	logger   *slog.Logger
}

// NewUserService creates a new UserServiceImpl
func NewUserService(
	userRepo repositories.UserRepository,
	points PointsService,
	cfg *config.Config,
	clk clock.Clock,
	locks *keymutex.KeyMutex,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo: userRepo,
		points:   points,
		cfg:      cfg,
		clock:    clk,
		locks:    locks,
		logger:   logger,
	}
}

// GetOrCreateUser resolves a wallet to its account, creating one on
// first sight. A referral code can only be attached at creation; it is
// set-once and never rewritten.
func (s *UserServiceImpl) GetOrCreateUser(ctx context.Context, wallet, referralCode string) (*models.User, error) {
	unlock := s.locks.Lock("user-create:" + wallet)
	defer unlock()

	user, err := s.userRepo.FindByWallet(ctx, wallet)
	if err == nil {
		user.Level = utils.LevelForPoints(user.Points)
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	code, err := s.mintReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	var referrer *models.User
	if referralCode != "" {
		referrer, err = s.userRepo.FindByReferralCode(ctx, referralCode)
		if err != nil {
			if !errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("failed to resolve referral code: %w", err)
			}
			// Unknown code. Account creation should not fail over a bad
			// referral link.
			s.logger.Warn("ignoring unknown referral code", "wallet", wallet, "code", referralCode)
			referrer = nil
		} else if referrer.WalletAddress == wallet {
			return nil, ErrSelfReferral
		}
	}

	user = &models.User{
		WalletAddress: wallet,
		Points:        0,
		ReferralCode:  code,
	}
	if referrer != nil {
		user.ReferredBy = referrer.WalletAddress
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user created", "wallet", wallet, "referredBy", user.ReferredBy)

	if referrer != nil {
		s.payReferrer(ctx, referrer.WalletAddress, wallet)
	}

	user.Level = utils.LevelForPoints(user.Points)
	return user, nil
}

// mintReferralCode generates a code that no existing user holds.
func (s *UserServiceImpl) mintReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate referral code: %w", err)
		}
		_, err = s.userRepo.FindByReferralCode(ctx, code)
		if errors.Is(err, repositories.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
	}
	return "", fmt.Errorf("could not mint a unique referral code in %d attempts", referralCodeAttempts)
}

// payReferrer credits the referral reward, keyed by the referred wallet
// so one signup can only ever pay once. Failures are logged, not
// returned; the new account is already created.
func (s *UserServiceImpl) payReferrer(ctx context.Context, referrerWallet, referredWallet string) {
	txRef := "referral:" + referredWallet
	claimed, err := s.points.HasTxRef(ctx, referrerWallet, txRef)
	if err != nil || claimed {
		if err != nil {
			s.logger.Warn("failed to check referral reward", "wallet", referrerWallet, "error", err)
		}
		return
	}
	if _, err := s.points.Award(ctx, referrerWallet, s.cfg.Rewards.Referral, "Referral Bonus", txRef); err != nil {
		s.logger.Warn("failed to credit referral reward", "wallet", referrerWallet, "error", err)
		return
	}
	if err := s.userRepo.IncrementReferrals(ctx, referrerWallet); err != nil {
		s.logger.Warn("failed to bump referral count", "wallet", referrerWallet, "error", err)
	}
}

// GetUser returns the account with the derived level populated.
func (s *UserServiceImpl) GetUser(ctx context.Context, wallet string) (*models.User, error) {
	user, err := s.userRepo.FindByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	user.Level = utils.LevelForPoints(user.Points)
	return user, nil
}

// DailyCheckIn credits the daily login reward once per UTC day. A
// check-in the day after the previous one extends the streak; any gap
// resets it to 1, and every seventh consecutive day pays the streak
// bonus on top.
func (s *UserServiceImpl) DailyCheckIn(ctx context.Context, wallet string) (*models.CheckInResult, error) {
	unlock := s.locks.Lock("checkin:" + wallet)
	defer unlock()

	user, err := s.userRepo.FindByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	now := s.clock.Now()
	today := utils.DateKey(now)
	if user.LastCheckIn == today {
		return nil, ErrAlreadyClaimed
	}

	txRef := "checkin:" + today
	claimed, err := s.points.HasTxRef(ctx, wallet, txRef)
	if err != nil {
		return nil, fmt.Errorf("failed to check claim state: %w", err)
	}
	if claimed {
		return nil, ErrAlreadyClaimed
	}

	streak := 1
	if user.LastCheckIn == utils.DateKey(now.AddDate(0, 0, -1)) {
		streak = user.Streak + 1
	}

	updated, err := s.points.Award(ctx, wallet, s.cfg.Rewards.DailyLogin, "Daily Check-in", txRef)
	if err != nil {
		return nil, err
	}

	bonus := 0
	if streak%streakBonusEvery == 0 {
		bonus = s.cfg.Rewards.WeeklyStreak
		if updated, err = s.points.Award(ctx, wallet, bonus, "Streak Bonus", "streak:"+today); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.SetCheckIn(ctx, wallet, today, streak); err != nil {
		// The reward is protected by its txRef; the streak fields heal
		// on the next successful check-in.
		s.logger.Warn("failed to persist check-in state", "wallet", wallet, "error", err)
	}

	s.logger.Info("daily check-in", "wallet", wallet, "streak", streak, "bonus", bonus)
	return &models.CheckInResult{
		PointsAwarded: s.cfg.Rewards.DailyLogin,
		StreakBonus:   bonus,
		Streak:        streak,
		NewTotal:      updated.Points,
	}, nil
}

// GetLeaderboard returns the top accounts by balance.
func (s *UserServiceImpl) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 || limit > defaultLeaderboardLimit {
		limit = defaultLeaderboardLimit
	}
	users, err := s.userRepo.FindTopByPoints(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]*models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, &models.LeaderboardEntry{
			Rank:          i + 1,
			WalletAddress: u.WalletAddress,
			Username:      u.Username,
			Points:        u.Points,
			Level:         utils.LevelForPoints(u.Points),
		})
	}
	return entries, nil
}
