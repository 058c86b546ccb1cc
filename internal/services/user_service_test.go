package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateUserMintsReferralCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.user.GetOrCreateUser(ctx, "0xabc", "")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", user.WalletAddress)
	assert.Equal(t, 0, user.Points)
	assert.Equal(t, 1, user.Level)
	assert.Len(t, user.ReferralCode, 6)

	// Resolving again returns the same account.
	again, err := f.user.GetOrCreateUser(ctx, "0xabc", "")
	require.NoError(t, err)
	assert.Equal(t, user.ReferralCode, again.ReferralCode)
}

func TestReferralLinksAndPaysOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	referrer, err := f.user.GetOrCreateUser(ctx, "0xref", "")
	require.NoError(t, err)

	referred, err := f.user.GetOrCreateUser(ctx, "0xnew", referrer.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, "0xref", referred.ReferredBy)

	updated, err := f.user.GetUser(ctx, "0xref")
	require.NoError(t, err)
	assert.Equal(t, 200, updated.Points)
	assert.Equal(t, 1, updated.ReferralsCount)

	// Logging in again must not pay the referrer a second time.
	_, err = f.user.GetOrCreateUser(ctx, "0xnew", referrer.ReferralCode)
	require.NoError(t, err)
	updated, err = f.user.GetUser(ctx, "0xref")
	require.NoError(t, err)
	assert.Equal(t, 200, updated.Points)

	f.requireConsistent(t, "0xref")
}

func TestUnknownReferralCodeIsIgnored(t *testing.T) {
	f := newFixture(t)

	user, err := f.user.GetOrCreateUser(context.Background(), "0xabc", "999999")
	require.NoError(t, err)
	assert.Empty(t, user.ReferredBy)
}

func TestDailyCheckInStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "0xabc", 0)

	result, err := f.user.DailyCheckIn(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 10, result.PointsAwarded)
	assert.Equal(t, 1, result.Streak)
	assert.Equal(t, 0, result.StreakBonus)

	// Second check-in the same day is refused.
	_, err = f.user.DailyCheckIn(ctx, "0xabc")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	// Six more consecutive days; the seventh pays the streak bonus.
	for day := 2; day <= 7; day++ {
		f.clock.Advance(24 * time.Hour)
		result, err = f.user.DailyCheckIn(ctx, "0xabc")
		require.NoError(t, err)
		assert.Equal(t, day, result.Streak)
	}
	assert.Equal(t, 50, result.StreakBonus)
	assert.Equal(t, 7*10+50, result.NewTotal)

	f.requireConsistent(t, "0xabc")
}

func TestCheckInGapResetsStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "0xabc", 0)

	_, err := f.user.DailyCheckIn(ctx, "0xabc")
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)
	result, err := f.user.DailyCheckIn(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Streak)

	// Skipping a day resets the streak to 1.
	f.clock.Advance(48 * time.Hour)
	result, err = f.user.DailyCheckIn(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Streak)
}

func TestCheckInUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.user.DailyCheckIn(context.Background(), "0xnobody")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestLeaderboardOrdersByPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "0xlow", 100)
	f.createUser(t, "0xhigh", 900)
	f.createUser(t, "0xmid", 400)

	entries, err := f.user.GetLeaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "0xhigh", entries[0].WalletAddress)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "0xmid", entries[1].WalletAddress)
	assert.Equal(t, 2, entries[1].Rank)
}
