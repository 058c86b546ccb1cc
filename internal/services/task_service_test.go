package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carvfi/carvfi-backend/internal/models"
)

func seedTasks(t *testing.T, f *fixture) {
	t.Helper()
	require.NoError(t, f.task.EnsureDefaultTasks(context.Background()))
}

func TestEnsureDefaultTasksSeedsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seedTasks(t, f)
	first, err := f.task.ListAllTasks(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// A second call must not duplicate or overwrite.
	seedTasks(t, f)
	second, err := f.task.ListAllTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
}

func TestCompleteOnceTaskOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedTasks(t, f)
	f.createUser(t, "0xabc", 0)

	result, err := f.task.CompleteTask(ctx, "0xabc", "twitter_follow_main")
	require.NoError(t, err)
	assert.Equal(t, 150, result.PointsAwarded)
	assert.Equal(t, 150, result.NewTotal)

	_, err = f.task.CompleteTask(ctx, "0xabc", "twitter_follow_main")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	// Still once-only a month later.
	f.clock.Advance(30 * 24 * time.Hour)
	_, err = f.task.CompleteTask(ctx, "0xabc", "twitter_follow_main")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	f.requireConsistent(t, "0xabc")
}

func TestDailyTaskRenewsNextDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedTasks(t, f)
	f.createUser(t, "0xabc", 0)

	_, err := f.task.CompleteTask(ctx, "0xabc", "daily_tweet_share")
	require.NoError(t, err)

	_, err = f.task.CompleteTask(ctx, "0xabc", "daily_tweet_share")
	require.ErrorIs(t, err, ErrAlreadyClaimed)

	f.clock.Advance(24 * time.Hour)
	result, err := f.task.CompleteTask(ctx, "0xabc", "daily_tweet_share")
	require.NoError(t, err)
	assert.Equal(t, 100, result.NewTotal) // two days at 50

	f.requireConsistent(t, "0xabc")
}

func TestWeeklyTaskRenewsNextWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedTasks(t, f)
	f.createUser(t, "0xabc", 0)

	_, err := f.task.CompleteTask(ctx, "0xabc", "weekly_community_quiz")
	require.NoError(t, err)

	// Later the same ISO week.
	f.clock.Advance(3 * 24 * time.Hour)
	_, err = f.task.CompleteTask(ctx, "0xabc", "weekly_community_quiz")
	require.ErrorIs(t, err, ErrAlreadyClaimed)

	// The fixture starts on a Monday, so four more days crosses into
	// the next ISO week.
	f.clock.Advance(4 * 24 * time.Hour)
	result, err := f.task.CompleteTask(ctx, "0xabc", "weekly_community_quiz")
	require.NoError(t, err)
	assert.Equal(t, 200, result.NewTotal)
}

func TestCompleteUnknownOrInactiveTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedTasks(t, f)
	f.createUser(t, "0xabc", 0)

	_, err := f.task.CompleteTask(ctx, "0xabc", "no_such_task")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, f.task.SetTaskActive(ctx, "daily_tweet_share", false))
	_, err = f.task.CompleteTask(ctx, "0xabc", "daily_tweet_share")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGetAvailableTasksDerivesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedTasks(t, f)
	f.createUser(t, "0xabc", 0)

	_, err := f.task.CompleteTask(ctx, "0xabc", "daily_tweet_share")
	require.NoError(t, err)

	statusOf := func(taskID string) models.TaskStatus {
		tasks, err := f.task.GetAvailableTasks(ctx, "0xabc")
		require.NoError(t, err)
		for _, tw := range tasks {
			if tw.Task.ID == taskID {
				return tw.Status
			}
		}
		t.Fatalf("task %s not listed", taskID)
		return ""
	}

	assert.Equal(t, models.TaskStatusCompleted, statusOf("daily_tweet_share"))
	assert.Equal(t, models.TaskStatusPending, statusOf("twitter_follow_main"))

	// The completed record stays, but the next day it reads as pending.
	f.clock.Advance(24 * time.Hour)
	assert.Equal(t, models.TaskStatusPending, statusOf("daily_tweet_share"))
}

func TestCompletedClaimHealsLostProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedTasks(t, f)
	f.createUser(t, "0xabc", 0)

	// Simulate a crash between the award and the progress write: the
	// ledger entry exists but no progress record does.
	_, err := f.points.Award(ctx, "0xabc", 150, "Task: Follow on X", "task:twitter_follow_main:once")
	require.NoError(t, err)

	_, err = f.task.CompleteTask(ctx, "0xabc", "twitter_follow_main")
	require.ErrorIs(t, err, ErrAlreadyClaimed)

	// The refusal healed the progress record.
	progress, err := f.progress.Find(ctx, "0xabc", "twitter_follow_main")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, progress.Status)

	user, err := f.points.GetBalance(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 150, user.Points) // paid exactly once
}
