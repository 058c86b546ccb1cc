package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/carvfi/carvfi-backend/internal/config"
	"github.com/carvfi/carvfi-backend/internal/metrics"
	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories"
	"github.com/carvfi/carvfi-backend/internal/utils"
	"github.com/carvfi/carvfi-backend/pkg/clock"
	"github.com/carvfi/carvfi-backend/pkg/keymutex"
	"github.com/carvfi/carvfi-backend/pkg/random"
)

// Compile-time check to ensure LotteryServiceImpl implements the interface
var _ LotteryService = (*LotteryServiceImpl)(nil)

const (
	msgTicketPurchased  = "Ticket Purchased!"
	msgInsufficientGems = "Insufficient GEMs."

	firstPurchaseTxRef = "bonus:first_purchase"

	recentDrawLimit = 10
)

// LotteryServiceImpl implements LotteryService. Pools are period-keyed
// documents; ticket purchases append participant entries while the pool
// is open, and settlement is serialized by the open -> settling status
// flip so each pool pays out at most once.
type LotteryServiceImpl struct {
	poolRepo   repositories.LotteryPoolRepository
	ticketRepo repositories.LotteryTicketRepository
	userRepo   repositories.UserRepository
	points     PointsService
	cfg        *config.Config
	clock      clock.Clock
	rng        random.Source
	locks      *keymutex.KeyMutex
	logger     *slog.Logger
}

// NewLotteryService creates a new LotteryServiceImpl
func NewLotteryService(
	poolRepo repositories.LotteryPoolRepository,
	ticketRepo repositories.LotteryTicketRepository,
	userRepo repositories.UserRepository,
	points PointsService,
	cfg *config.Config,
	clk clock.Clock,
	rng random.Source,
	locks *keymutex.KeyMutex,
	logger *slog.Logger,
) *LotteryServiceImpl {
	return &LotteryServiceImpl{
		poolRepo:   poolRepo,
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		points:     points,
		cfg:        cfg,
		clock:      clk,
		rng:        rng,
		locks:      locks,
		logger:     logger,
	}
}

// BuyTicket purchases count tickets for the wallet against today's daily
// pool. The debit is the irreversible step; a failure to enter the pool
// afterwards refunds it. Receipts and the weekly jackpot entry are
// best-effort and never block a completed purchase.
func (s *LotteryServiceImpl) BuyTicket(ctx context.Context, wallet string, count int) (*models.TicketPurchaseResult, error) {
	if count < 1 {
		return nil, fmt.Errorf("ticket count must be positive, got %d", count)
	}

	unlock := s.locks.Lock("ticket:" + wallet)
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
	usedToday := 0
	if user.LastTicketDate == today {
		usedToday = user.DailyTicketCount
	}
	limit := s.cfg.Lottery.DailyTicketLimit
	if usedToday+count > limit {
		return &models.TicketPurchaseResult{
			Success: false,
			Message: fmt.Sprintf("Daily ticket limit reached (%d/%d).", usedToday, limit),
		}, ErrDailyLimitReached
	}

	poolID := utils.DailyPoolID(now)
	if _, err := s.getOrCreatePool(ctx, poolID, models.PoolTypeDaily); err != nil {
		return nil, fmt.Errorf("failed to open daily pool: %w", err)
	}

	cost := count * s.cfg.Lottery.TicketPrice
	if _, err := s.points.Award(ctx, wallet, -cost, "Lottery Ticket Purchase", ""); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return &models.TicketPurchaseResult{
				Success: false,
				Message: msgInsufficientGems,
			}, ErrInsufficientBalance
		}
		return nil, err
	}

	entries := make([]string, count)
	for i := range entries {
		entries[i] = wallet
	}
	if err := s.poolRepo.AddEntries(ctx, poolID, entries, cost); err != nil {
		// The pool closed between the check and the write (day rollover
		// race). Undo the debit so the user loses nothing.
		if _, rbErr := s.points.Award(ctx, wallet, cost, "Lottery Ticket Refund", ""); rbErr != nil {
			s.logger.Error("ticket refund failed after pool entry failure",
				"wallet", wallet, "pool", poolID, "cost", cost, "error", rbErr)
		}
		return nil, fmt.Errorf("failed to enter pool %s: %w", poolID, err)
	}

	s.issueReceipts(ctx, wallet, poolID, count)
	s.enterWeeklyJackpot(ctx, wallet, count, now)

	if err := s.userRepo.SetTicketCounters(ctx, wallet, today, usedToday+count); err != nil {
		s.logger.Warn("failed to update daily ticket counters", "wallet", wallet, "error", err)
	}

	if reward := s.points.CalculatePointsForTickets(count); reward > 0 {
		if _, err := s.points.Award(ctx, wallet, reward, "Ticket Purchase Reward", ""); err != nil {
			s.logger.Warn("failed to credit purchase reward", "wallet", wallet, "error", err)
		}
	}
	s.awardFirstPurchaseBonus(ctx, wallet)

	metrics.TicketsSold.WithLabelValues(string(models.PoolTypeDaily)).Add(float64(count))
	s.logger.Info("tickets purchased", "wallet", wallet, "pool", poolID, "count", count, "cost", cost)

	updated, err := s.points.GetBalance(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return &models.TicketPurchaseResult{
		Success: true,
		Message: msgTicketPurchased,
		User:    updated,
	}, nil
}

// issueReceipts writes one audit receipt per ticket. Receipts are not
// part of settlement math, so a failure is logged and swallowed.
func (s *LotteryServiceImpl) issueReceipts(ctx context.Context, wallet, poolID string, count int) {
	now := s.clock.Now()
	tickets := make([]*models.LotteryTicket, count)
	for i := range tickets {
		tickets[i] = &models.LotteryTicket{
			ID:            uuid.NewString(),
			WalletAddress: wallet,
			PoolID:        poolID,
			PurchasedAt:   now,
		}
	}
	if err := s.ticketRepo.CreateMany(ctx, tickets); err != nil {
		s.logger.Warn("failed to write ticket receipts", "wallet", wallet, "pool", poolID, "error", err)
	}
}

// enterWeeklyJackpot registers the buyer in this week's jackpot pool,
// one entry per ticket. The jackpot is funded by daily settlements, not
// purchases, so the entries carry no amount.
func (s *LotteryServiceImpl) enterWeeklyJackpot(ctx context.Context, wallet string, count int, now time.Time) {
	weeklyID := utils.WeeklyPoolID(now)
	if _, err := s.getOrCreatePool(ctx, weeklyID, models.PoolTypeWeekly); err != nil {
		s.logger.Warn("failed to open weekly pool", "pool", weeklyID, "error", err)
		return
	}
	entries := make([]string, count)
	for i := range entries {
		entries[i] = wallet
	}
	if err := s.poolRepo.AddEntries(ctx, weeklyID, entries, 0); err != nil {
		s.logger.Warn("failed to enter weekly jackpot", "wallet", wallet, "pool", weeklyID, "error", err)
	}
}

// awardFirstPurchaseBonus credits the one-time first purchase bonus,
// keyed by a fixed txRef so it can only ever be paid once.
func (s *LotteryServiceImpl) awardFirstPurchaseBonus(ctx context.Context, wallet string) {
	bonus := s.cfg.Rewards.FirstPurchase
	if bonus <= 0 {
		return
	}
	claimed, err := s.points.HasTxRef(ctx, wallet, firstPurchaseTxRef)
	if err != nil {
		s.logger.Warn("failed to check first purchase bonus", "wallet", wallet, "error", err)
		return
	}
	if claimed {
		return
	}
	if _, err := s.points.Award(ctx, wallet, bonus, "First Purchase Bonus", firstPurchaseTxRef); err != nil {
		s.logger.Warn("failed to credit first purchase bonus", "wallet", wallet, "error", err)
	}
}

// CheckAndRunDraws settles every open pool whose period has elapsed. It
// is safe under concurrent invocation: the open -> settling flip decides
// a single settler per pool and the losers skip silently.
func (s *LotteryServiceImpl) CheckAndRunDraws(ctx context.Context) error {
	now := s.clock.Now()

	stale, err := s.poolRepo.FindByStatus(ctx, models.PoolStatusSettling)
	if err != nil {
		return fmt.Errorf("failed to list settling pools: %w", err)
	}
	for _, pool := range stale {
		if utils.PoolPeriodElapsed(pool.ID, now) {
			s.logger.Warn("pool stuck in settling state, needs operator attention", "pool", pool.ID)
		}
	}

	open, err := s.poolRepo.FindByStatus(ctx, models.PoolStatusOpen)
	if err != nil {
		return fmt.Errorf("failed to list open pools: %w", err)
	}

	var errs []error
	for _, pool := range open {
		if !utils.PoolPeriodElapsed(pool.ID, now) {
			continue
		}
		if err := s.settle(ctx, pool.ID); err != nil {
			s.logger.Error("pool settlement failed", "pool", pool.ID, "error", err)
			errs = append(errs, fmt.Errorf("pool %s: %w", pool.ID, err))
		}
	}
	return errors.Join(errs...)
}

// settle runs the draw for one elapsed pool.
func (s *LotteryServiceImpl) settle(ctx context.Context, poolID string) error {
	unlock := s.locks.Lock("pool:" + poolID)
	defer unlock()

	err := s.poolRepo.TransitionStatus(ctx, poolID, models.PoolStatusOpen, models.PoolStatusSettling)
	if err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			// Another settler won the flip.
			return nil
		}
		return fmt.Errorf("failed to begin settlement: %w", err)
	}

	pool, err := s.poolRepo.FindByID(ctx, poolID)
	if err != nil {
		return fmt.Errorf("failed to reload pool: %w", err)
	}

	now := s.clock.Now()
	pool.DrawnAt = now

	if len(pool.Participants) == 0 {
		// Nobody played. A funded weekly pool rolls its jackpot forward
		// into the next week instead of burning it.
		if pool.Type == models.PoolTypeWeekly && pool.PrizePool > 0 {
			if err := s.transferToJackpot(ctx, pool.PrizePool, now); err != nil {
				return fmt.Errorf("failed to roll jackpot forward: %w", err)
			}
			s.logger.Info("empty weekly pool rolled forward", "pool", pool.ID, "amount", pool.PrizePool)
		}
		pool.Winners = []models.PoolWinner{}
		if err := s.poolRepo.FinalizeDraw(ctx, pool); err != nil {
			return fmt.Errorf("failed to finalize empty pool: %w", err)
		}
		metrics.DrawsSettled.WithLabelValues(string(pool.Type)).Inc()
		return nil
	}

	if err := s.distribute(ctx, pool, now); err != nil {
		return err
	}

	if err := s.poolRepo.FinalizeDraw(ctx, pool); err != nil {
		return fmt.Errorf("failed to finalize pool: %w", err)
	}
	metrics.DrawsSettled.WithLabelValues(string(pool.Type)).Inc()
	s.logger.Info("pool settled", "pool", pool.ID, "prizePool", pool.PrizePool, "winners", len(pool.Winners))
	return nil
}

// distribute splits an elapsed pool's fund: the winners share is split
// evenly across up to DailyWinnerCount drawn wallets, the jackpot share
// transfers to the current weekly pool, and the remainder is the
// platform fee. For an elapsed weekly pool the current weekly pool is
// next week's, so the reserve share carries forward. All sub-amounts
// round down; rounding dust stays with the platform.
func (s *LotteryServiceImpl) distribute(ctx context.Context, pool *models.LotteryPool, now time.Time) error {
	fund := pool.PrizePool
	winnersFund := int(math.Floor(s.cfg.Lottery.WinnersShare * float64(fund)))
	jackpotFund := int(math.Floor(s.cfg.Lottery.JackpotShare * float64(fund)))

	winners := drawWinners(pool.Participants, s.cfg.Lottery.DailyWinnerCount, s.rng)
	prizePer := 0
	if len(winners) > 0 {
		prizePer = winnersFund / len(winners)
	}

	pool.Winners = make([]models.PoolWinner, 0, len(winners))
	for _, wallet := range winners {
		if prizePer > 0 {
			if _, err := s.points.Award(ctx, wallet, prizePer, "Lottery Win", "pool:"+pool.ID); err != nil {
				return fmt.Errorf("failed to pay winner %s: %w", wallet, err)
			}
		}
		pool.Winners = append(pool.Winners, models.PoolWinner{Wallet: wallet, Amount: prizePer})
	}

	if jackpotFund > 0 {
		if err := s.transferToJackpot(ctx, jackpotFund, now); err != nil {
			return fmt.Errorf("failed to fund jackpot: %w", err)
		}
	}
	return nil
}

// transferToJackpot credits the current week's jackpot pool, creating
// it if it does not exist yet.
func (s *LotteryServiceImpl) transferToJackpot(ctx context.Context, amount int, now time.Time) error {
	weeklyID := utils.WeeklyPoolID(now)
	if _, err := s.getOrCreatePool(ctx, weeklyID, models.PoolTypeWeekly); err != nil {
		return err
	}
	return s.poolRepo.AddToPrizePool(ctx, weeklyID, amount)
}

// drawWinners picks up to count distinct wallets from the entry list.
// Each pick is uniform over the remaining entries, so a wallet's odds
// scale with its tickets; once picked, all of a wallet's entries are
// removed before the next pick.
func drawWinners(entries []string, count int, rng random.Source) []string {
	remaining := append([]string{}, entries...)
	winners := make([]string, 0, count)
	for len(winners) < count && len(remaining) > 0 {
		picked := remaining[rng.Intn(len(remaining))]
		winners = append(winners, picked)

		filtered := remaining[:0]
		for _, e := range remaining {
			if e != picked {
				filtered = append(filtered, e)
			}
		}
		remaining = filtered
	}
	return winners
}

// getOrCreatePool resolves a pool by its period-derived ID, creating an
// open one if absent. A lost creation race resolves by re-reading.
func (s *LotteryServiceImpl) getOrCreatePool(ctx context.Context, poolID string, poolType models.PoolType) (*models.LotteryPool, error) {
	pool, err := s.poolRepo.FindByID(ctx, poolID)
	if err == nil {
		return pool, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	pool = &models.LotteryPool{
		ID:           poolID,
		Type:         poolType,
		Status:       models.PoolStatusOpen,
		Participants: []string{},
	}
	if createErr := s.poolRepo.Create(ctx, pool); createErr != nil {
		// Likely a duplicate-key race with a concurrent creator.
		if pool, err = s.poolRepo.FindByID(ctx, poolID); err == nil {
			return pool, nil
		}
		return nil, createErr
	}
	return pool, nil
}

// GetPool returns one pool by ID.
func (s *LotteryServiceImpl) GetPool(ctx context.Context, poolID string) (*models.LotteryPool, error) {
	pool, err := s.poolRepo.FindByID(ctx, poolID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	return pool, nil
}

// GetCurrentDailyPool returns today's pool, creating it if absent.
func (s *LotteryServiceImpl) GetCurrentDailyPool(ctx context.Context) (*models.LotteryPool, error) {
	return s.getOrCreatePool(ctx, utils.DailyPoolID(s.clock.Now()), models.PoolTypeDaily)
}

// GetCurrentJackpot returns this week's jackpot pool, creating it if
// absent.
func (s *LotteryServiceImpl) GetCurrentJackpot(ctx context.Context) (*models.LotteryPool, error) {
	return s.getOrCreatePool(ctx, utils.WeeklyPoolID(s.clock.Now()), models.PoolTypeWeekly)
}

// GetUserTickets returns a user's most recent receipts.
func (s *LotteryServiceImpl) GetUserTickets(ctx context.Context, wallet string, limit int) ([]*models.LotteryTicket, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.ticketRepo.FindByWallet(ctx, wallet, limit)
}

// GetRecentDraws returns the most recently settled pools, newest first.
func (s *LotteryServiceImpl) GetRecentDraws(ctx context.Context) ([]*models.LotteryPool, error) {
	pools, err := s.poolRepo.FindByStatus(ctx, models.PoolStatusCompleted)
	if err != nil {
		return nil, err
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].DrawnAt.After(pools[j].DrawnAt) })
	if len(pools) > recentDrawLimit {
		pools = pools[:recentDrawLimit]
	}
	return pools, nil
}
