package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/carvfi/carvfi-backend/internal/config"
	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories/memory"
	"github.com/carvfi/carvfi-backend/pkg/clock"
	"github.com/carvfi/carvfi-backend/pkg/keymutex"
	"github.com/carvfi/carvfi-backend/pkg/random"
)

// fixture wires the full service stack onto in-memory repositories with
// a pinned clock and a seeded random source.
type fixture struct {
	cfg   *config.Config
	clock *clock.Fake

	users    *memory.UserRepository
	txns     *memory.PointTransactionRepository
	tasks    *memory.TaskRepository
	progress *memory.TaskProgressRepository
	pools    *memory.LotteryPoolRepository
	tickets  *memory.LotteryTicketRepository
	admins   *memory.AdminUserRepository

	points  *PointsServiceImpl
	task    *TaskServiceImpl
	lottery *LotteryServiceImpl
	user    *UserServiceImpl
	auth    *AuthServiceImpl
}

// testStart is a Monday at noon UTC so daily and weekly boundaries are
// both a known distance away.
var testStart = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Default()
	clk := clock.NewFake(testStart)
	rng := random.NewSource(1)
	locks := keymutex.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		cfg:      cfg,
		clock:    clk,
		users:    memory.NewUserRepository(),
		txns:     memory.NewPointTransactionRepository(),
		tasks:    memory.NewTaskRepository(),
		progress: memory.NewTaskProgressRepository(),
		pools:    memory.NewLotteryPoolRepository(),
		tickets:  memory.NewLotteryTicketRepository(),
		admins:   memory.NewAdminUserRepository(),
	}

	f.points = NewPointsService(f.users, f.txns, cfg, clk, locks, logger)
	f.task = NewTaskService(f.tasks, f.progress, f.points, clk, locks, logger)
	f.lottery = NewLotteryService(f.pools, f.tickets, f.users, f.points, cfg, clk, rng, locks, logger)
	f.user = NewUserService(f.users, f.points, cfg, clk, locks, logger)
	f.auth = NewAuthService(f.admins, f.user, cfg, logger)
	return f
}

// createUser creates an account and funds it through the ledger so the
// balance/ledger invariant holds from the start.
func (f *fixture) createUser(t *testing.T, wallet string, points int) *models.User {
	t.Helper()

	ctx := context.Background()
	user, err := f.user.GetOrCreateUser(ctx, wallet, "")
	require.NoError(t, err)
	if points > 0 {
		user, err = f.points.Award(ctx, wallet, points, "Test Grant", "")
		require.NoError(t, err)
	}
	return user
}

// requireConsistent asserts that a wallet's balance equals its ledger sum.
func (f *fixture) requireConsistent(t *testing.T, wallet string) {
	t.Helper()

	report, err := f.points.VerifyLedger(context.Background(), wallet)
	require.NoError(t, err)
	require.True(t, report.Consistent,
		"wallet %s drifted: balance=%d historySum=%d", wallet, report.Balance, report.HistorySum)
}
