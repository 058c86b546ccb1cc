package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelForPoints(t *testing.T) {
	tests := []struct {
		points int
		level  int
	}{
		{-10, 1},
		{0, 1},
		{49, 1},
		{50, 2},
		{199, 2},
		{200, 3},
		{450, 4},
		{125000, 50},
		{10000000, 50}, // clamped
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelForPoints(tt.points), "points=%d", tt.points)
	}
}

func TestLevelForPointsIsMonotonic(t *testing.T) {
	prev := LevelForPoints(0)
	for p := 1; p <= 20000; p += 7 {
		level := LevelForPoints(p)
		assert.GreaterOrEqual(t, level, prev, "points=%d", p)
		prev = level
	}
}

func TestPoolIDs(t *testing.T) {
	monday := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "daily_2025-06-02", DailyPoolID(monday))
	assert.Equal(t, "weekly_2025_23", WeeklyPoolID(monday))

	// ISO week 1 can start in the previous calendar year.
	newYear := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "weekly_2025_01", WeeklyPoolID(newYear))
}

func TestPoolPeriodElapsed(t *testing.T) {
	now := time.Date(2025, 6, 3, 0, 0, 1, 0, time.UTC)

	assert.True(t, PoolPeriodElapsed("daily_2025-06-02", now))
	assert.False(t, PoolPeriodElapsed("daily_2025-06-03", now))
	assert.False(t, PoolPeriodElapsed("daily_2025-06-04", now))

	assert.True(t, PoolPeriodElapsed("weekly_2025_22", now))
	assert.False(t, PoolPeriodElapsed("weekly_2025_23", now))
	assert.True(t, PoolPeriodElapsed("weekly_2024_52", now))

	// Malformed IDs never settle.
	assert.False(t, PoolPeriodElapsed("weekly_garbage", now))
	assert.False(t, PoolPeriodElapsed("monthly_2025-06", now))
	assert.False(t, PoolPeriodElapsed("", now))
}

func TestSameUTCDayAndISOWeek(t *testing.T) {
	a := time.Date(2025, 6, 8, 23, 59, 0, 0, time.UTC) // Sunday
	b := time.Date(2025, 6, 9, 0, 1, 0, 0, time.UTC)   // Monday

	assert.False(t, SameUTCDay(a, b))
	assert.False(t, SameISOWeek(a, b))
	assert.True(t, SameUTCDay(a, a.Add(-time.Hour)))
	assert.True(t, SameISOWeek(b, b.Add(6*24*time.Hour)))
}

func TestGenerateReferralCode(t *testing.T) {
	code, err := GenerateReferralCode()
	assert.NoError(t, err)
	assert.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9', "unexpected character %q", c)
	}
}
