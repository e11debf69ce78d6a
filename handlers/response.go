package handlers

import (
	"errors"
	"net/http"

	"finpal-backend/middleware"
	"finpal-backend/repository"
	"finpal-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondServiceError maps service and repository errors to HTTP responses
func respondServiceError(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, repository.ErrProfileNotFound):
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrGoalNotFound):
		respondError(c, http.StatusNotFound, "GOAL_NOT_FOUND", "Goal not found")
	case errors.Is(err, service.ErrEmailTaken):
		respondError(c, http.StatusConflict, "EMAIL_TAKEN", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, service.ErrMissingGoalData),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPriority),
		errors.Is(err, service.ErrInvalidRisk):
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}

// currentUser returns the authenticated user ID, writing a 401 when absent
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized")
		return uuid.Nil, false
	}
	return userID, true
}
