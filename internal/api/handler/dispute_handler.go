package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corridorworks/corridor-be/internal/api/dto"
	"github.com/corridorworks/corridor-be/internal/dispute"
)

// DisputeHandler handles dispute HTTP requests
type DisputeHandler struct {
	logger   *slog.Logger
	disputes *dispute.Resolver
}

// NewDisputeHandler creates a new DisputeHandler instance
func NewDisputeHandler(deps *Dependencies) *DisputeHandler {
	return &DisputeHandler{
		logger:   deps.Logger,
		disputes: deps.Disputes,
	}
}

// RaiseDispute handles POST /api/v1/disputes
func (h *DisputeHandler) RaiseDispute(c *gin.Context) {
	raiserID, ok := actorID(c)
	if !ok {
		return
	}

	var req dto.RaiseDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	d, err := h.disputes.Raise(c.Request.Context(), req.JobID, raiserID, req.Text, req.Evidence)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, d)
}

// GetDispute handles GET /api/v1/disputes/:dispute_id
func (h *DisputeHandler) GetDispute(c *gin.Context) {
	d, err := h.disputes.GetDispute(c.Request.Context(), c.Param("dispute_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// ResolveDispute handles POST /api/v1/disputes/:dispute_id/resolve
func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
	adminID, ok := actorID(c)
	if !ok {
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	d, err := h.disputes.Resolve(c.Request.Context(), c.Param("dispute_id"), adminID, req.DecisionAgainst, req.Note)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// RejectDispute handles POST /api/v1/disputes/:dispute_id/reject
func (h *DisputeHandler) RejectDispute(c *gin.Context) {
	adminID, ok := actorID(c)
	if !ok {
		return
	}

	var req dto.RejectDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	d, err := h.disputes.Reject(c.Request.Context(), c.Param("dispute_id"), adminID, req.Note)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, d)
}
