package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/carvfi/carvfi-backend/internal/services"
)

// LotteryHandler handles ticket sales and pool endpoints.
type LotteryHandler struct {
	lotteryService services.LotteryService
}

// NewLotteryHandler creates a new LotteryHandler
func NewLotteryHandler(lotteryService services.LotteryService) *LotteryHandler {
	return &LotteryHandler{lotteryService: lotteryService}
}

// BuyTicket handles POST /api/v1/lottery/tickets
func (h *LotteryHandler) BuyTicket(c *gin.Context) {
	var req struct {
		Count int `json:"count" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.lotteryService.BuyTicket(c.Request.Context(), callerWallet(c), req.Count)
	if err != nil {
		// Business refusals carry a user-presentable result.
		if result != nil {
			c.JSON(http.StatusBadRequest, result)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetMyTickets handles GET /api/v1/lottery/tickets
func (h *LotteryHandler) GetMyTickets(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	tickets, err := h.lotteryService.GetUserTickets(c.Request.Context(), callerWallet(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// GetCurrentPool handles GET /api/v1/lottery/pool
func (h *LotteryHandler) GetCurrentPool(c *gin.Context) {
	pool, err := h.lotteryService.GetCurrentDailyPool(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

// GetJackpot handles GET /api/v1/lottery/jackpot
func (h *LotteryHandler) GetJackpot(c *gin.Context) {
	pool, err := h.lotteryService.GetCurrentJackpot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

// GetRecentDraws handles GET /api/v1/lottery/draws
func (h *LotteryHandler) GetRecentDraws(c *gin.Context) {
	pools, err := h.lotteryService.GetRecentDraws(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draws": pools})
}

// GetPool handles GET /api/v1/lottery/pools/:id
func (h *LotteryHandler) GetPool(c *gin.Context) {
	pool, err := h.lotteryService.GetPool(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

// RunDraws handles POST /api/v1/admin/lottery/draws/run
func (h *LotteryHandler) RunDraws(c *gin.Context) {
	if err := h.lotteryService.CheckAndRunDraws(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
