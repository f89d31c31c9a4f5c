package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corridorworks/corridor-be/internal/api/dto"
	"github.com/corridorworks/corridor-be/internal/lifecycle"
)

// UserHandler handles admin user-management HTTP requests
type UserHandler struct {
	logger    *slog.Logger
	lifecycle *lifecycle.Service
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(deps *Dependencies) *UserHandler {
	return &UserHandler{
		logger:    deps.Logger,
		lifecycle: deps.Lifecycle,
	}
}

// RecomputeReputation handles POST /api/v1/users/:user_id/recompute-reputation
func (h *UserHandler) RecomputeReputation(c *gin.Context) {
	userID := c.Param("user_id")

	score, err := h.lifecycle.RecomputeReputation(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":           userID,
		"reliability_score": score,
	})
}

// ToggleBan handles POST /api/v1/users/:user_id/ban
func (h *UserHandler) ToggleBan(c *gin.Context) {
	adminID, ok := actorID(c)
	if !ok {
		return
	}

	user, err := h.lifecycle.ToggleBan(c.Request.Context(), adminID, c.Param("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SetAvailability handles POST /api/v1/users/availability
// Users can only change their own availability.
func (h *UserHandler) SetAvailability(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req dto.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	user, err := h.lifecycle.SetAvailability(c.Request.Context(), userID, req.Availability)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateVerification handles POST /api/v1/users/:user_id/verification
func (h *UserHandler) UpdateVerification(c *gin.Context) {
	adminID, ok := actorID(c)
	if !ok {
		return
	}

	var req dto.VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	user, err := h.lifecycle.UpdateVerification(c.Request.Context(), adminID, c.Param("user_id"), req.Action)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
