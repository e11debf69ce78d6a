package handlers

import (
	"net/http"

	"finpal-backend/service"

	"github.com/gin-gonic/gin"
)

// ProfileHandler handles HTTP requests for the financial profile and goals
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile handles GET /api/user/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "FETCH_FAILED")
		return
	}

	respondData(c, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/user/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err, "UPDATE_FAILED")
		return
	}

	respondData(c, http.StatusOK, profile)
}

// AddGoal handles POST /api/user/goals
func (h *ProfileHandler) AddGoal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.AddGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	goals, err := h.profileService.AddGoal(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err, "CREATE_FAILED")
		return
	}

	respondData(c, http.StatusCreated, goals)
}

// UpdateGoal handles PUT /api/user/goals/:goalId
func (h *ProfileHandler) UpdateGoal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	goals, err := h.profileService.UpdateGoal(c.Request.Context(), userID, c.Param("goalId"), req)
	if err != nil {
		respondServiceError(c, err, "UPDATE_FAILED")
		return
	}

	respondData(c, http.StatusOK, goals)
}

// DeleteGoal handles DELETE /api/user/goals/:goalId
func (h *ProfileHandler) DeleteGoal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	goals, err := h.profileService.DeleteGoal(c.Request.Context(), userID, c.Param("goalId"))
	if err != nil {
		respondServiceError(c, err, "DELETE_FAILED")
		return
	}

	respondData(c, http.StatusOK, goals)
}
