// Package services contains the business logic of the rewards engine:
// the GEM ledger, task claims, the lottery pool and draw lifecycle, and
// account management. Handlers stay thin; every rule lives here.
package services

import (
	"context"
	"errors"

	"github.com/carvfi/carvfi-backend/internal/models"
)

// Business refusal errors. Handlers map these onto HTTP statuses; the
// services themselves never know about HTTP.
var (
	// ErrUnknownUser is returned when the wallet has no account yet.
	ErrUnknownUser = errors.New("unknown user")

	// ErrInsufficientBalance is returned when a debit would take the
	// balance negative. No state changes when it is returned.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDailyLimitReached is returned when a purchase would exceed the
	// per-day ticket cap.
	ErrDailyLimitReached = errors.New("daily ticket limit reached")

	// ErrAlreadyClaimed is returned when a task reward was already
	// credited for the current period.
	ErrAlreadyClaimed = errors.New("task already claimed")

	// ErrTaskNotFound is returned for unknown or inactive task IDs.
	ErrTaskNotFound = errors.New("task not found")

	// ErrPoolNotFound is returned for unknown pool IDs.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrInvalidCredentials is returned on failed admin logins. It is
	// deliberately the same for a wrong email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSelfReferral is returned when a user submits their own code.
	ErrSelfReferral = errors.New("cannot refer yourself")
)

// PointsService owns the GEM balance and its append-only ledger.
type PointsService interface {
	// Award atomically adjusts a user's balance by amount (negative for
	// debits) and records the matching ledger transaction. Debits that
	// would take the balance negative fail with ErrInsufficientBalance
	// and leave no trace. Returns the user with the updated balance.
	Award(ctx context.Context, wallet string, amount int, reason, txRef string) (*models.User, error)
	GetBalance(ctx context.Context, wallet string) (*models.User, error)
	GetHistory(ctx context.Context, wallet string) ([]*models.PointTransaction, error)
	// HasTxRef reports whether an award with the given idempotency
	// reference was already recorded for the wallet.
	HasTxRef(ctx context.Context, wallet, txRef string) (bool, error)
	// CalculatePointsForTickets returns the GEM reward for buying the
	// given number of tickets.
	CalculatePointsForTickets(count int) int
	// VerifyLedger cross-checks one user's balance against the sum of
	// their transaction history.
	VerifyLedger(ctx context.Context, wallet string) (*models.LedgerReport, error)
	// VerifyAll sweeps every user and returns the inconsistent reports.
	VerifyAll(ctx context.Context) ([]*models.LedgerReport, error)
}

// TaskService owns task definitions and claim processing.
type TaskService interface {
	// EnsureDefaultTasks seeds the built-in task set on an empty store.
	EnsureDefaultTasks(ctx context.Context) error
	// GetAvailableTasks returns all active tasks with the user's
	// effective status, deriving renewal for daily and weekly tasks.
	GetAvailableTasks(ctx context.Context, wallet string) ([]*models.TaskWithStatus, error)
	// CompleteTask credits a task's reward exactly once per period.
	CompleteTask(ctx context.Context, wallet, taskID string) (*models.TaskCompletionResult, error)
	UpsertTask(ctx context.Context, task *models.Task) error
	SetTaskActive(ctx context.Context, taskID string, active bool) error
	ListAllTasks(ctx context.Context) ([]*models.Task, error)
}

// LotteryService owns the pool lifecycle: ticket sales, settlement and
// the weekly jackpot.
type LotteryService interface {
	// BuyTicket purchases count tickets against today's daily pool.
	// Business refusals come back in the result with Success=false and
	// the matching sentinel error.
	BuyTicket(ctx context.Context, wallet string, count int) (*models.TicketPurchaseResult, error)
	// CheckAndRunDraws settles every open pool whose period has elapsed.
	// Safe to call concurrently; each pool settles at most once.
	CheckAndRunDraws(ctx context.Context) error
	GetPool(ctx context.Context, poolID string) (*models.LotteryPool, error)
	// GetCurrentDailyPool returns today's pool, creating it if absent.
	GetCurrentDailyPool(ctx context.Context) (*models.LotteryPool, error)
	// GetCurrentJackpot returns this week's jackpot pool, creating it if
	// absent.
	GetCurrentJackpot(ctx context.Context) (*models.LotteryPool, error)
	GetUserTickets(ctx context.Context, wallet string, limit int) ([]*models.LotteryTicket, error)
	GetRecentDraws(ctx context.Context) ([]*models.LotteryPool, error)
}

// UserService owns accounts, referrals, check-ins and the leaderboard.
type UserService interface {
	// GetOrCreateUser resolves a wallet to its account, creating one on
	// first sight. A valid referral code on creation links the referrer
	// and pays the referral reward.
	GetOrCreateUser(ctx context.Context, wallet, referralCode string) (*models.User, error)
	GetUser(ctx context.Context, wallet string) (*models.User, error)
	// DailyCheckIn credits the daily login reward once per UTC day and
	// maintains the consecutive-day streak.
	DailyCheckIn(ctx context.Context, wallet string) (*models.CheckInResult, error)
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// AuthService issues session tokens.
type AuthService interface {
	WalletLogin(ctx context.Context, req *models.WalletLoginRequest) (*models.LoginResponse, error)
	AdminLogin(ctx context.Context, req *models.AdminLoginRequest) (*models.LoginResponse, error)
	// EnsureAdminUser seeds the configured operator account at startup.
	EnsureAdminUser(ctx context.Context) error
}
