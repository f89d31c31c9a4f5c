package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corridorworks/corridor-be/internal/api/dto"
	"github.com/corridorworks/corridor-be/internal/lifecycle"
)

// JobHandler handles job lifecycle HTTP requests
type JobHandler struct {
	logger    *slog.Logger
	lifecycle *lifecycle.Service
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:    deps.Logger,
		lifecycle: deps.Lifecycle,
	}
}

// CreateJob handles POST /api/v1/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	creatorID, ok := actorID(c)
	if !ok {
		return
	}

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.lifecycle.Create(c.Request.Context(), creatorID, lifecycle.CreateJobInput{
		Title:         req.Title,
		Description:   req.Description,
		SkillRequired: req.SkillRequired,
		StationFrom:   req.StationFrom,
		StationTo:     req.StationTo,
		Budget:        req.Budget,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.lifecycle.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// AcceptJob handles POST /api/v1/jobs/:job_id/accept
func (h *JobHandler) AcceptJob(c *gin.Context) {
	workerID, ok := actorID(c)
	if !ok {
		return
	}

	job, err := h.lifecycle.Accept(c.Request.Context(), c.Param("job_id"), workerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// RejectJob handles POST /api/v1/jobs/:job_id/reject
func (h *JobHandler) RejectJob(c *gin.Context) {
	workerID, ok := actorID(c)
	if !ok {
		return
	}

	job, err := h.lifecycle.Reject(c.Request.Context(), c.Param("job_id"), workerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// CompleteJob handles POST /api/v1/jobs/:job_id/complete
func (h *JobHandler) CompleteJob(c *gin.Context) {
	workerID, ok := actorID(c)
	if !ok {
		return
	}

	job, err := h.lifecycle.Complete(c.Request.Context(), c.Param("job_id"), workerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// CancelJob handles POST /api/v1/jobs/:job_id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req dto.CancelJobRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.lifecycle.Cancel(c.Request.Context(), c.Param("job_id"), userID, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// RateJob handles POST /api/v1/jobs/:job_id/rate
func (h *JobHandler) RateJob(c *gin.Context) {
	raterID, ok := actorID(c)
	if !ok {
		return
	}

	var req dto.RateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.lifecycle.Rate(c.Request.Context(), c.Param("job_id"), raterID, req.Rating, req.Review)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Feed handles GET /api/v1/feed
// Returns the ranked open-job feed for the requesting worker.
func (h *JobHandler) Feed(c *gin.Context) {
	workerID, ok := actorID(c)
	if !ok {
		return
	}

	var req dto.FeedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	feed, err := h.lifecycle.RankedFeed(c.Request.Context(), workerID, lifecycle.FeedFilters{
		Skill:       req.Skill,
		StationFrom: req.StationFrom,
		StationTo:   req.StationTo,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  feed,
		"count": len(feed),
	})
}
