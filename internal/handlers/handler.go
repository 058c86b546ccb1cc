// Package handlers contains the gin HTTP handlers. They parse requests,
// call services and translate errors; no business rules live here.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carvfi/carvfi-backend/internal/middleware"
	"github.com/carvfi/carvfi-backend/internal/services"
)

// respondError maps a service error onto an HTTP status and a JSON body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrUnknownUser),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrPoolNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyClaimed):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrDailyLimitReached),
		errors.Is(err, services.ErrSelfReferral):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay in the logs.
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}

// callerWallet returns the authenticated wallet from the request context.
func callerWallet(c *gin.Context) string {
	return c.GetString(middleware.ContextWalletKey)
}
