package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"

	"github.com/carvfi/carvfi-backend/api/routes"
	"github.com/carvfi/carvfi-backend/internal/config"
	"github.com/carvfi/carvfi-backend/internal/handlers"
	"github.com/carvfi/carvfi-backend/internal/repositories"
	mongorepo "github.com/carvfi/carvfi-backend/internal/repositories/mongodb"
	"github.com/carvfi/carvfi-backend/internal/services"
	"github.com/carvfi/carvfi-backend/pkg/clock"
	"github.com/carvfi/carvfi-backend/pkg/keymutex"
	"github.com/carvfi/carvfi-backend/pkg/mongodb"
	"github.com/carvfi/carvfi-backend/pkg/random"
)

func main() {
	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		logger.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	var userRepo repositories.UserRepository = mongorepo.NewUserRepository(db)
	var txnRepo repositories.PointTransactionRepository = mongorepo.NewPointTransactionRepository(db)
	var taskRepo repositories.TaskRepository = mongorepo.NewTaskRepository(db)
	var progressRepo repositories.TaskProgressRepository = mongorepo.NewTaskProgressRepository(db)
	var poolRepo repositories.LotteryPoolRepository = mongorepo.NewLotteryPoolRepository(db)
	var ticketRepo repositories.LotteryTicketRepository = mongorepo.NewLotteryTicketRepository(db)
	var adminRepo repositories.AdminUserRepository = mongorepo.NewAdminUserRepository(db)

	clk := clock.Real{}
	rng := random.NewTimeSeeded()
	locks := keymutex.New()

	pointsService := services.NewPointsService(userRepo, txnRepo, cfg, clk, locks, logger)
	taskService := services.NewTaskService(taskRepo, progressRepo, pointsService, clk, locks, logger)
	lotteryService := services.NewLotteryService(poolRepo, ticketRepo, userRepo, pointsService, cfg, clk, rng, locks, logger)
	userService := services.NewUserService(userRepo, pointsService, cfg, clk, locks, logger)
	authService := services.NewAuthService(adminRepo, userService, cfg, logger)

	if err := taskService.EnsureDefaultTasks(ctx); err != nil {
		logger.Error("failed to seed tasks", "error", err)
		os.Exit(1)
	}
	if err := authService.EnsureAdminUser(ctx); err != nil {
		logger.Error("failed to seed admin user", "error", err)
		os.Exit(1)
	}

	scheduler := startScheduler(lotteryService, pointsService, logger)
	defer scheduler.Stop()

	router := routes.SetupRouter(cfg, logger, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		User:    handlers.NewUserHandler(userService),
		Points:  handlers.NewPointsHandler(pointsService),
		Task:    handlers.NewTaskHandler(taskService),
		Lottery: handlers.NewLotteryHandler(lotteryService),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exiting")
}

// startScheduler runs the periodic jobs: draw settlement every five
// minutes and a nightly ledger verification sweep.
func startScheduler(lottery services.LotteryService, points services.PointsService, logger *slog.Logger) *cron.Cron {
	scheduler := cron.New()

	if _, err := scheduler.AddFunc("*/5 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := lottery.CheckAndRunDraws(ctx); err != nil {
			logger.Error("scheduled draw run failed", "error", err)
		}
	}); err != nil {
		logger.Error("failed to schedule draw runner", "error", err)
	}

	if _, err := scheduler.AddFunc("30 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := points.VerifyAll(ctx); err != nil {
			logger.Error("scheduled ledger sweep failed", "error", err)
		}
	}); err != nil {
		logger.Error("failed to schedule ledger sweep", "error", err)
	}

	scheduler.Start()
	return scheduler
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
