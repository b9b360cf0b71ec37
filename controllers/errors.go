package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/CUknot/chat_backend/logger"
	"github.com/CUknot/chat_backend/services"
	"github.com/gin-gonic/gin"
)

// HandleServiceError writes the status and {"error": ...} body for err.
func HandleServiceError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &maxBytes):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
	default:
		_ = c.Error(err)
		logger.Ctx(c.Request.Context()).Error().Err(err).Msg("unhandled internal server error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred"})
	}
}

// parseID reads a positive numeric path parameter, answering 400 when it is not one.
func parseID(c *gin.Context, param, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID"})
		return 0, false
	}
	return uint(id), true
}
