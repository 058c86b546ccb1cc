package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carvfi/carvfi-backend/internal/models"
)

func TestBuyTicketDebitsAndEntersPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "0xaaa", 5000)

	result, err := f.lottery.BuyTicket(ctx, "0xaaa", 2)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Ticket Purchased!", result.Message)

	// 5000 - 2000 cost + 200 purchase reward + 500 first purchase bonus.
	assert.Equal(t, 3700, result.User.Points)

	pool, err := f.lottery.GetCurrentDailyPool(ctx)
	require.NoError(t, err)
	assert.Equal(t, "daily_2025-06-02", pool.ID)
	assert.Equal(t, 2000, pool.PrizePool)
	assert.Equal(t, []string{"0xaaa", "0xaaa"}, pool.Participants)

	// Each ticket also enters the weekly jackpot.
	jackpot, err := f.lottery.GetCurrentJackpot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "weekly_2025_23", jackpot.ID)
	assert.Equal(t, 0, jackpot.PrizePool)
	assert.Len(t, jackpot.Participants, 2)

	tickets, err := f.lottery.GetUserTickets(ctx, "0xaaa", 10)
	require.NoError(t, err)
	assert.Len(t, tickets, 2)

	f.requireConsistent(t, "0xaaa")
}

func TestBuyTicketInsufficientGems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "0xaaa", 500)

	result, err := f.lottery.BuyTicket(ctx, "0xaaa", 1)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, "Insufficient GEMs.", result.Message)

	// Refusal leaves everything untouched.
	user, err := f.points.GetBalance(ctx, "0xaaa")
	require.NoError(t, err)
	assert.Equal(t, 500, user.Points)

	pool, err := f.lottery.GetCurrentDailyPool(ctx)
	require.NoError(t, err)
	assert.Empty(t, pool.Participants)
	f.requireConsistent(t, "0xaaa")
}

func TestDailyTicketLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "0xaaa", 20000)

	_, err := f.lottery.BuyTicket(ctx, "0xaaa", 10)
	require.NoError(t, err)

	result, err := f.lottery.BuyTicket(ctx, "0xaaa", 1)
	require.ErrorIs(t, err, ErrDailyLimitReached)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, "Daily ticket limit reached (10/10).", result.Message)

	before, err := f.points.GetBalance(ctx, "0xaaa")
	require.NoError(t, err)

	// The counter resets at the UTC day boundary.
	f.clock.Advance(24 * time.Hour)
	next, err := f.lottery.BuyTicket(ctx, "0xaaa", 1)
	require.NoError(t, err)
	assert.True(t, next.Success)
	assert.Equal(t, before.Points-1000+100, next.User.Points)

	f.requireConsistent(t, "0xaaa")
}

func TestDailySettlementDistribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "0xaaa", 5000)
	f.createUser(t, "0xbbb", 2000)

	_, err := f.lottery.BuyTicket(ctx, "0xaaa", 2)
	require.NoError(t, err)
	_, err = f.lottery.BuyTicket(ctx, "0xbbb", 1)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.lottery.CheckAndRunDraws(ctx))

	pool, err := f.lottery.GetPool(ctx, "daily_2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, models.PoolStatusCompleted, pool.Status)
	assert.Equal(t, 3000, pool.PrizePool)

	// Two distinct wallets in the pool, so both win even though the
	// configured winner count is five. The 60% winners share of 3000
	// splits into 900 each; 30% goes to the jackpot; 10% is the fee.
	require.Len(t, pool.Winners, 2)
	wallets := map[string]bool{}
	for _, w := range pool.Winners {
		assert.Equal(t, 900, w.Amount)
		wallets[w.Wallet] = true
	}
	assert.True(t, wallets["0xaaa"])
	assert.True(t, wallets["0xbbb"])

	jackpot, err := f.lottery.GetCurrentJackpot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 900, jackpot.PrizePool)

	f.requireConsistent(t, "0xaaa")
	f.requireConsistent(t, "0xbbb")
}

func TestSettlementRunsOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "0xaaa", 5000)

	_, err := f.lottery.BuyTicket(ctx, "0xaaa", 1)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.lottery.CheckAndRunDraws(ctx))
	require.NoError(t, f.lottery.CheckAndRunDraws(ctx))

	history, err := f.points.GetHistory(ctx, "0xaaa")
	require.NoError(t, err)
	wins := 0
	for _, txn := range history {
		if txn.Reason == "Lottery Win" {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	f.requireConsistent(t, "0xaaa")
}

func TestEmptyDailyPoolCompletesWithoutWinners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.lottery.GetCurrentDailyPool(ctx)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.lottery.CheckAndRunDraws(ctx))

	pool, err := f.lottery.GetPool(ctx, "daily_2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, models.PoolStatusCompleted, pool.Status)
	assert.Empty(t, pool.Winners)
}

func TestWeeklyPoolSettlesAndCarriesReserveForward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "0xaaa", 5000)
	f.createUser(t, "0xbbb", 2000)

	_, err := f.lottery.BuyTicket(ctx, "0xaaa", 2)
	require.NoError(t, err)
	_, err = f.lottery.BuyTicket(ctx, "0xbbb", 1)
	require.NoError(t, err)

	// Day boundary settles the daily pool and funds the jackpot with
	// floor(0.3 * 3000) = 900.
	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.lottery.CheckAndRunDraws(ctx))

	// Week boundary settles the jackpot with the same distribution:
	// 60% of 900 split across the two unique wallets, 30% carried
	// forward into the next weekly pool.
	f.clock.Advance(7 * 24 * time.Hour)
	require.NoError(t, f.lottery.CheckAndRunDraws(ctx))

	jackpot, err := f.lottery.GetPool(ctx, "weekly_2025_23")
	require.NoError(t, err)
	assert.Equal(t, models.PoolStatusCompleted, jackpot.Status)
	require.Len(t, jackpot.Winners, 2)
	for _, w := range jackpot.Winners {
		assert.Equal(t, 270, w.Amount)
	}

	next, err := f.lottery.GetPool(ctx, "weekly_2025_24")
	require.NoError(t, err)
	assert.Equal(t, 270, next.PrizePool)

	f.requireConsistent(t, "0xaaa")
	f.requireConsistent(t, "0xbbb")
}

func TestEmptyWeeklyPoolRollsForward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "0xaaa", 5000)

	// Fund the week-23 jackpot without entering anyone: create it and
	// transfer directly, as a daily settlement would.
	_, err := f.lottery.GetCurrentJackpot(ctx)
	require.NoError(t, err)
	require.NoError(t, f.pools.AddToPrizePool(ctx, "weekly_2025_23", 1200))

	f.clock.Advance(8 * 24 * time.Hour)
	require.NoError(t, f.lottery.CheckAndRunDraws(ctx))

	old, err := f.lottery.GetPool(ctx, "weekly_2025_23")
	require.NoError(t, err)
	assert.Equal(t, models.PoolStatusCompleted, old.Status)
	assert.Empty(t, old.Winners)

	// The fund moved to the current week instead of burning.
	next, err := f.lottery.GetPool(ctx, "weekly_2025_24")
	require.NoError(t, err)
	assert.Equal(t, 1200, next.PrizePool)
	assert.Equal(t, models.PoolStatusOpen, next.Status)
}

func TestPoolsAreImmutableOnceCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "0xaaa", 5000)

	_, err := f.lottery.BuyTicket(ctx, "0xaaa", 1)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	require.NoError(t, f.lottery.CheckAndRunDraws(ctx))

	err = f.pools.AddEntries(ctx, "daily_2025-06-02", []string{"0xaaa"}, 1000)
	assert.Error(t, err)
}
