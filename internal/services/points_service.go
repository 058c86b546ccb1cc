package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/carvfi/carvfi-backend/internal/config"
	"github.com/carvfi/carvfi-backend/internal/metrics"
	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories"
	"github.com/carvfi/carvfi-backend/internal/utils"
	"github.com/carvfi/carvfi-backend/pkg/clock"
	"github.com/carvfi/carvfi-backend/pkg/keymutex"
)

// Compile-time check to ensure PointsServiceImpl implements the interface
var _ PointsService = (*PointsServiceImpl)(nil)

// PointsServiceImpl implements PointsService. Every balance change goes
// through Award so the invariant balance == sum(ledger) holds at rest.
type PointsServiceImpl struct {
	userRepo repositories.UserRepository
	txnRepo  repositories.PointTransactionRepository
	cfg      *config.Config
	clock    clock.Clock
	locks    *keymutex.KeyMutex
	logger   *slog.Logger
}

// NewPointsService creates a new PointsServiceImpl. The KeyMutex is
// shared with the other services so all per-user mutations serialize on
// the same locks.
func NewPointsService(
	userRepo repositories.UserRepository,
	txnRepo repositories.PointTransactionRepository,
	cfg *config.Config,
	clk clock.Clock,
	locks *keymutex.KeyMutex,
	logger *slog.Logger,
) *PointsServiceImpl {
	return &PointsServiceImpl{
		userRepo: userRepo,
		txnRepo:  txnRepo,
		cfg:      cfg,
		clock:    clk,
		locks:    locks,
		logger:   logger,
	}
}

// Award adjusts the balance and appends the matching ledger entry. The
// balance update is the irreversible step; if the ledger append fails
// afterwards the balance change is compensated so the pair stays atomic
// from the outside.
func (s *PointsServiceImpl) Award(ctx context.Context, wallet string, amount int, reason, txRef string) (*models.User, error) {
	unlock := s.locks.Lock("user:" + wallet)
	defer unlock()

	return s.award(ctx, wallet, amount, reason, txRef)
}

// award is Award without the lock, for callers that already hold the
// user key.
func (s *PointsServiceImpl) award(ctx context.Context, wallet string, amount int, reason, txRef string) (*models.User, error) {
	user, err := s.userRepo.FindByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.userRepo.IncrementPoints(ctx, wallet, amount); err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return nil, ErrInsufficientBalance
		}
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	now := s.clock.Now()
	txn := &models.PointTransaction{
		WalletAddress: wallet,
		Amount:        amount,
		Reason:        reason,
		TxRef:         txRef,
		Timestamp:     now,
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		// Roll the balance back so it cannot drift from the ledger. A
		// credit rolls back with a guarded debit that cannot fail here
		// because we still hold the user lock.
		if rbErr := s.userRepo.IncrementPoints(ctx, wallet, -amount); rbErr != nil {
			s.logger.Error("ledger append and rollback both failed, balance has drifted",
				"wallet", wallet, "amount", amount, "txRef", txRef, "error", err, "rollbackError", rbErr)
		}
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	if amount >= 0 {
		metrics.PointsAwarded.WithLabelValues(reason).Add(float64(amount))
	} else {
		metrics.PointsSpent.WithLabelValues(reason).Add(float64(-amount))
	}

	user.Points += amount
	user.Level = utils.LevelForPoints(user.Points)
	s.logger.Info("points awarded", "wallet", wallet, "amount", amount, "reason", reason, "balance", user.Points)
	return user, nil
}

// GetBalance returns the user with the derived level populated.
func (s *PointsServiceImpl) GetBalance(ctx context.Context, wallet string) (*models.User, error) {
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

// GetHistory returns the user's ledger, newest first.
func (s *PointsServiceImpl) GetHistory(ctx context.Context, wallet string) ([]*models.PointTransaction, error) {
	return s.txnRepo.FindByWallet(ctx, wallet)
}

// HasTxRef reports whether an award with this idempotency reference was
// already recorded.
func (s *PointsServiceImpl) HasTxRef(ctx context.Context, wallet, txRef string) (bool, error) {
	return s.txnRepo.ExistsByTxRef(ctx, wallet, txRef)
}

// CalculatePointsForTickets returns the GEM reward for a ticket purchase.
func (s *PointsServiceImpl) CalculatePointsForTickets(count int) int {
	return count * s.cfg.Rewards.TicketPurchaseRate
}

// VerifyLedger cross-checks one user's balance against their ledger sum.
func (s *PointsServiceImpl) VerifyLedger(ctx context.Context, wallet string) (*models.LedgerReport, error) {
	unlock := s.locks.Lock("user:" + wallet)
	defer unlock()

	user, err := s.userRepo.FindByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	sum, err := s.txnRepo.SumByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return &models.LedgerReport{
		WalletAddress: wallet,
		Balance:       user.Points,
		HistorySum:    sum,
		Consistent:    user.Points == sum,
	}, nil
}

// VerifyAll sweeps every user and returns only the inconsistent reports.
func (s *PointsServiceImpl) VerifyAll(ctx context.Context) ([]*models.LedgerReport, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	var drifted []*models.LedgerReport
	for _, u := range users {
		report, err := s.VerifyLedger(ctx, u.WalletAddress)
		if err != nil {
			return nil, err
		}
		if !report.Consistent {
			metrics.LedgerDrift.Inc()
			s.logger.Error("ledger drift detected",
				"wallet", report.WalletAddress, "balance", report.Balance, "historySum", report.HistorySum)
			drifted = append(drifted, report)
		}
	}
	return drifted, nil
}
