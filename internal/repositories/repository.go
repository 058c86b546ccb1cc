package repositories

import (
	"context"
	"errors"

	"github.com/carvfi/carvfi-backend/internal/models"
)

// ErrNotFound is returned when a record does not exist. Both the MongoDB
// and in-memory implementations map their driver-level misses onto it.
var ErrNotFound = errors.New("record not found")

// ErrConditionFailed is returned when a conditional write matched no
// record: a balance-guarded debit, a status-gated pool transition, or an
// append to a pool that is no longer open. Callers decide whether that
// means a business refusal or a lost race.
var ErrConditionFailed = errors.New("conditional write did not match")

// UserRepository defines the interface for user data operations. Balance
// and counter mutations are targeted updates rather than whole-document
// writes so a stale in-memory copy can never clobber the ledger.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByWallet(ctx context.Context, wallet string) (*models.User, error)
	FindByReferralCode(ctx context.Context, code string) (*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	FindTopByPoints(ctx context.Context, limit int) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
	// IncrementPoints atomically adjusts the balance. For negative deltas
	// the write is guarded by points >= -delta and returns
	// ErrConditionFailed when the guard does not hold.
	IncrementPoints(ctx context.Context, wallet string, delta int) error
	SetCheckIn(ctx context.Context, wallet string, date string, streak int) error
	SetTicketCounters(ctx context.Context, wallet string, date string, count int) error
	IncrementReferrals(ctx context.Context, wallet string) error
}

// PointTransactionRepository defines the interface for the append-only
// GEM ledger.
type PointTransactionRepository interface {
	Create(ctx context.Context, txn *models.PointTransaction) error
	FindByWallet(ctx context.Context, wallet string) ([]*models.PointTransaction, error)
	ExistsByTxRef(ctx context.Context, wallet, txRef string) (bool, error)
	SumByWallet(ctx context.Context, wallet string) (int, error)
}

// TaskRepository defines the interface for task config operations.
type TaskRepository interface {
	Upsert(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	FindAllActive(ctx context.Context) ([]*models.Task, error)
	FindAll(ctx context.Context) ([]*models.Task, error)
	SetActive(ctx context.Context, id string, active bool) error
	Count(ctx context.Context) (int64, error)
}

// TaskProgressRepository defines the interface for per-(wallet, task)
// progress records, keyed by the composite (wallet, taskId).
type TaskProgressRepository interface {
	Find(ctx context.Context, wallet, taskID string) (*models.TaskProgress, error)
	FindByWallet(ctx context.Context, wallet string) ([]*models.TaskProgress, error)
	Upsert(ctx context.Context, progress *models.TaskProgress) error
}

// LotteryPoolRepository defines the interface for pool persistence. The
// mutating operations are conditional on pool status so a completed pool
// can never change.
type LotteryPoolRepository interface {
	Create(ctx context.Context, pool *models.LotteryPool) error
	FindByID(ctx context.Context, id string) (*models.LotteryPool, error)
	FindByStatus(ctx context.Context, status models.PoolStatus) ([]*models.LotteryPool, error)
	// AddEntries appends participant entries and grows the prize pool in
	// one write, only while the pool is open.
	AddEntries(ctx context.Context, poolID string, wallets []string, amount int) error
	// AddToPrizePool grows the prize pool without entries (jackpot
	// reserve transfers), only while the pool is open.
	AddToPrizePool(ctx context.Context, poolID string, amount int) error
	// TransitionStatus flips status from -> to atomically and returns
	// ErrConditionFailed if the pool was not in the expected state.
	TransitionStatus(ctx context.Context, poolID string, from, to models.PoolStatus) error
	// FinalizeDraw records winners and drawnAt and marks the pool
	// completed.
	FinalizeDraw(ctx context.Context, pool *models.LotteryPool) error
}

// LotteryTicketRepository defines the interface for ticket receipts.
type LotteryTicketRepository interface {
	CreateMany(ctx context.Context, tickets []*models.LotteryTicket) error
	FindByWallet(ctx context.Context, wallet string, limit int) ([]*models.LotteryTicket, error)
	FindByPool(ctx context.Context, poolID string) ([]*models.LotteryTicket, error)
}

// AdminUserRepository defines the interface for operator accounts.
type AdminUserRepository interface {
	Upsert(ctx context.Context, admin *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}
