// Package routes wires the HTTP surface: middleware chain, public
// endpoints, the authenticated user API and the admin API.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"

	"github.com/carvfi/carvfi-backend/internal/config"
	"github.com/carvfi/carvfi-backend/internal/handlers"
	"github.com/carvfi/carvfi-backend/internal/metrics"
	"github.com/carvfi/carvfi-backend/internal/middleware"
)

// Handlers bundles everything SetupRouter needs.
type Handlers struct {
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Points  *handlers.PointsHandler
	Task    *handlers.TaskHandler
	Lottery *handlers.LotteryHandler
}

// SetupRouter builds the gin engine with all routes registered.
func SetupRouter(cfg *config.Config, logger *slog.Logger, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")

	// Public
	v1.POST("/auth/wallet", h.Auth.WalletLogin)
	v1.POST("/auth/admin", h.Auth.AdminLogin)
	v1.GET("/leaderboard", h.User.GetLeaderboard)
	v1.GET("/lottery/jackpot", h.Lottery.GetJackpot)
	v1.GET("/lottery/draws", h.Lottery.GetRecentDraws)

	// Authenticated users
	authed := v1.Group("")
	authed.Use(middleware.Auth(cfg))
	{
		authed.GET("/users/me", h.User.GetMe)
		authed.POST("/users/checkin", h.User.CheckIn)

		authed.GET("/points/balance", h.Points.GetBalance)
		authed.GET("/points/history", h.Points.GetHistory)

		authed.GET("/tasks", h.Task.GetTasks)
		authed.POST("/tasks/:id/complete", h.Task.CompleteTask)

		authed.POST("/lottery/tickets", h.Lottery.BuyTicket)
		authed.GET("/lottery/tickets", h.Lottery.GetMyTickets)
		authed.GET("/lottery/pool", h.Lottery.GetCurrentPool)
		authed.GET("/lottery/pools/:id", h.Lottery.GetPool)
	}

	// Operators
	admin := v1.Group("/admin")
	admin.Use(middleware.Auth(cfg), middleware.AdminOnly())
	{
		admin.GET("/tasks", h.Task.ListAllTasks)
		admin.POST("/tasks", h.Task.UpsertTask)
		admin.PATCH("/tasks/:id/active", h.Task.SetTaskActive)

		admin.GET("/ledger/verify", h.Points.VerifyAllLedgers)
		admin.GET("/ledger/verify/:wallet", h.Points.VerifyLedger)

		admin.POST("/lottery/draws/run", h.Lottery.RunDraws)
	}

	return router
}
