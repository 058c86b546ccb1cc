package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"github.com/carvfi/carvfi-backend/internal/metrics"
	"github.com/carvfi/carvfi-backend/internal/models"
	"github.com/carvfi/carvfi-backend/internal/repositories"
	"github.com/carvfi/carvfi-backend/internal/utils"
	"github.com/carvfi/carvfi-backend/pkg/clock"
	"github.com/carvfi/carvfi-backend/pkg/keymutex"
)

// Compile-time check to ensure TaskServiceImpl implements the interface
var _ TaskService = (*TaskServiceImpl)(nil)

// defaultTasks is the built-in task set seeded on an empty store.
var defaultTasks = []*models.Task{
	{
		ID:          "twitter_follow_main",
		Title:       "Follow on X",
		Description: "Follow the official account on X",
		Type:        "social",
		Platform:    "twitter",
		Action:      "follow",
		URL:         "https://x.com/carvfi",
		Icon:        "twitter",
		Points:      150,
		Frequency:   models.TaskFrequencyOnce,
		IsActive:    true,
	},
	{
		ID:          "discord_join_main",
		Title:       "Join Discord",
		Description: "Join the community Discord server",
		Type:        "social",
		Platform:    "discord",
		Action:      "join",
		URL:         "https://discord.gg/carvfi",
		Icon:        "discord",
		Points:      200,
		Frequency:   models.TaskFrequencyOnce,
		IsActive:    true,
	},
	{
		ID:          "youtube_sub_main",
		Title:       "Subscribe on YouTube",
		Description: "Subscribe to the official YouTube channel",
		Type:        "social",
		Platform:    "youtube",
		Action:      "subscribe",
		URL:         "https://youtube.com/@carvfi",
		Icon:        "youtube",
		Points:      100,
		Frequency:   models.TaskFrequencyOnce,
		IsActive:    true,
	},
	{
		ID:          "daily_tweet_share",
		Title:       "Share on X",
		Description: "Share your progress on X",
		Type:        "social",
		Platform:    "twitter",
		Action:      "share",
		Icon:        "twitter",
		Points:      50,
		Frequency:   models.TaskFrequencyDaily,
		IsActive:    true,
	},
	{
		ID:          "daily_discord_chat",
		Title:       "Chat on Discord",
		Description: "Send a message in the community channel",
		Type:        "social",
		Platform:    "discord",
		Action:      "chat",
		Icon:        "discord",
		Points:      30,
		Frequency:   models.TaskFrequencyDaily,
		IsActive:    true,
	},
	{
		ID:          "weekly_community_quiz",
		Title:       "Weekly Quiz",
		Description: "Complete the weekly community quiz",
		Type:        "engagement",
		Action:      "quiz",
		Icon:        "quiz",
		Points:      100,
		Frequency:   models.TaskFrequencyWeekly,
		IsActive:    true,
	},
}

// TaskServiceImpl implements TaskService. Progress records are never
// reset; renewal for daily and weekly tasks is derived on read from the
// completion timestamp, and the ledger txRef makes each period's claim
// idempotent.
type TaskServiceImpl struct {
	taskRepo     repositories.TaskRepository
	progressRepo repositories.TaskProgressRepository
	points       PointsService
	clock        clock.Clock
	locks        *keymutex.KeyMutex
	logger       *slog.Logger
}

// NewTaskService creates a new TaskServiceImpl
func NewTaskService(
	taskRepo repositories.TaskRepository,
	progressRepo repositories.TaskProgressRepository,
	points PointsService,
	clk clock.Clock,
	locks *keymutex.KeyMutex,
	logger *slog.Logger,
) *TaskServiceImpl {
	return &TaskServiceImpl{
		taskRepo:     taskRepo,
		progressRepo: progressRepo,
		points:       points,
		clock:        clk,
		locks:        locks,
		logger:       logger,
	}
}

// EnsureDefaultTasks seeds the built-in tasks when the store is empty.
// An operator-curated store is left untouched.
func (s *TaskServiceImpl) EnsureDefaultTasks(ctx context.Context) error {
	count, err := s.taskRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count tasks: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, task := range defaultTasks {
		t := *task
		if err := s.taskRepo.Upsert(ctx, &t); err != nil {
			return fmt.Errorf("failed to seed task %s: %w", task.ID, err)
		}
	}
	s.logger.Info("seeded default tasks", "count", len(defaultTasks))
	return nil
}

// periodKey identifies the claim period of a task at instant now. It is
// the variable part of the ledger txRef, so one claim per period.
func periodKey(freq models.TaskFrequency, now time.Time) string {
	switch freq {
	case models.TaskFrequencyDaily:
		return utils.DateKey(now)
	case models.TaskFrequencyWeekly:
		year, week := now.UTC().ISOWeek()
		return fmt.Sprintf("%d_%02d", year, week)
	default:
		return "once"
	}
}

func taskTxRef(taskID string, freq models.TaskFrequency, now time.Time) string {
	return fmt.Sprintf("task:%s:%s", taskID, periodKey(freq, now))
}

// effectiveStatus derives the claimable state of a task for one user at
// instant now from the stored progress record.
func effectiveStatus(task *models.Task, progress *models.TaskProgress, now time.Time) models.TaskStatus {
	if progress == nil || progress.Status != models.TaskStatusCompleted {
		return models.TaskStatusPending
	}
	switch task.Frequency {
	case models.TaskFrequencyDaily:
		if utils.SameUTCDay(progress.CompletedAt, now) {
			return models.TaskStatusCompleted
		}
		return models.TaskStatusPending
	case models.TaskFrequencyWeekly:
		if utils.SameISOWeek(progress.CompletedAt, now) {
			return models.TaskStatusCompleted
		}
		return models.TaskStatusPending
	default:
		return models.TaskStatusCompleted
	}
}

// GetAvailableTasks returns every active task with the user's effective
// status for the current period.
func (s *TaskServiceImpl) GetAvailableTasks(ctx context.Context, wallet string) ([]*models.TaskWithStatus, error) {
	tasks, err := s.taskRepo.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	records, err := s.progressRepo.FindByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to load task progress: %w", err)
	}

	byTask := make(map[string]*models.TaskProgress, len(records))
	for _, p := range records {
		byTask[p.TaskID] = p
	}

	now := s.clock.Now()
	out := make([]*models.TaskWithStatus, 0, len(tasks))
	for _, task := range tasks {
		progress := byTask[task.ID]
		out = append(out, &models.TaskWithStatus{
			Task:     *task,
			Status:   effectiveStatus(task, progress, now),
			Progress: progress,
		})
	}
	return out, nil
}

// CompleteTask credits the task reward exactly once per period. The
// ledger txRef is the source of truth for "already claimed": a progress
// record lost to a crash between award and upsert heals here instead of
// paying twice.
func (s *TaskServiceImpl) CompleteTask(ctx context.Context, wallet, taskID string) (*models.TaskCompletionResult, error) {
	unlock := s.locks.Lock("claim:" + wallet)
	defer unlock()

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if !task.IsActive {
		return nil, ErrTaskNotFound
	}

	now := s.clock.Now()
	txRef := taskTxRef(task.ID, task.Frequency, now)

	claimed, err := s.points.HasTxRef(ctx, wallet, txRef)
	if err != nil {
		return nil, fmt.Errorf("failed to check claim state: %w", err)
	}
	if claimed {
		// The award went through on a previous attempt. Make sure the
		// progress record agrees before refusing.
		s.recordProgress(ctx, wallet, task.ID, now)
		return nil, ErrAlreadyClaimed
	}

	progress, err := s.progressRepo.Find(ctx, wallet, taskID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load task progress: %w", err)
	}
	if effectiveStatus(task, progress, now) == models.TaskStatusCompleted {
		return nil, ErrAlreadyClaimed
	}

	user, err := s.points.Award(ctx, wallet, task.Points, "Task: "+task.Title, txRef)
	if err != nil {
		return nil, err
	}

	s.recordProgress(ctx, wallet, task.ID, now)
	metrics.TasksCompleted.WithLabelValues(task.ID).Inc()
	s.logger.Info("task completed", "wallet", wallet, "task", task.ID, "points", task.Points)

	return &models.TaskCompletionResult{
		TaskID:        task.ID,
		PointsAwarded: task.Points,
		NewTotal:      user.Points,
	}, nil
}

// recordProgress writes the completed progress record. A failure here is
// logged, not returned: the ledger txRef already guarantees the reward
// cannot be paid again, and the record heals on the next claim attempt.
func (s *TaskServiceImpl) recordProgress(ctx context.Context, wallet, taskID string, now time.Time) {
	progress := &models.TaskProgress{
		WalletAddress: wallet,
		TaskID:        taskID,
		Status:        models.TaskStatusCompleted,
		CompletedAt:   now,
		LastClaimedAt: now,
	}
	if err := s.progressRepo.Upsert(ctx, progress); err != nil {
		s.logger.Warn("failed to record task progress, will heal on next claim",
			"wallet", wallet, "task", taskID, "error", err)
	}
}

// UpsertTask creates or updates a task definition.
func (s *TaskServiceImpl) UpsertTask(ctx context.Context, task *models.Task) error {
	return s.taskRepo.Upsert(ctx, task)
}

// SetTaskActive soft-deletes or restores a task.
func (s *TaskServiceImpl) SetTaskActive(ctx context.Context, taskID string, active bool) error {
	err := s.taskRepo.SetActive(ctx, taskID, active)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

// ListAllTasks returns every task, active or not, for the admin surface.
func (s *TaskServiceImpl) ListAllTasks(ctx context.Context) ([]*models.Task, error) {
	return s.taskRepo.FindAll(ctx)
}
