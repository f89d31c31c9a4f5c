package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corridorworks/corridor-be/internal/dispute"
	"github.com/corridorworks/corridor-be/internal/domain"
	"github.com/corridorworks/corridor-be/internal/escrow"
	"github.com/corridorworks/corridor-be/internal/lifecycle"
	"github.com/corridorworks/corridor-be/shared/postgresql"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Lifecycle *lifecycle.Service
	Escrow    *escrow.Service
	Disputes  *dispute.Resolver
	DBClient  *postgresql.Client
}

// actorID extracts the acting user from the X-User-ID header. Identity
// is taken on trust here; authentication sits in front of this service.
func actorID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "X-User-ID header is required",
		})
		return "", false
	}
	return id, true
}

// respondError maps a domain error to its HTTP status
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
