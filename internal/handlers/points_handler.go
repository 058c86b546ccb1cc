package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carvfi/carvfi-backend/internal/services"
)

// PointsHandler handles balance, ledger and verification endpoints.
type PointsHandler struct {
	pointsService services.PointsService
}

// NewPointsHandler creates a new PointsHandler
func NewPointsHandler(pointsService services.PointsService) *PointsHandler {
	return &PointsHandler{pointsService: pointsService}
}

// GetBalance handles GET /api/v1/points/balance
func (h *PointsHandler) GetBalance(c *gin.Context) {
	user, err := h.pointsService.GetBalance(c.Request.Context(), callerWallet(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"walletAddress": user.WalletAddress,
		"points":        user.Points,
		"level":         user.Level,
	})
}

// GetHistory handles GET /api/v1/points/history
func (h *PointsHandler) GetHistory(c *gin.Context) {
	txns, err := h.pointsService.GetHistory(c.Request.Context(), callerWallet(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// VerifyLedger handles GET /api/v1/admin/ledger/verify/:wallet
func (h *PointsHandler) VerifyLedger(c *gin.Context) {
	report, err := h.pointsService.VerifyLedger(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// VerifyAllLedgers handles GET /api/v1/admin/ledger/verify
func (h *PointsHandler) VerifyAllLedgers(c *gin.Context) {
	drifted, err := h.pointsService.VerifyAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"consistent": len(drifted) == 0,
		"drifted":    drifted,
	})
}
