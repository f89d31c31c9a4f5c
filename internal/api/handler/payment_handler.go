package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corridorworks/corridor-be/internal/api/dto"
	"github.com/corridorworks/corridor-be/internal/escrow"
)

// PaymentHandler handles payment escrow HTTP requests
type PaymentHandler struct {
	logger *slog.Logger
	escrow *escrow.Service
}

// NewPaymentHandler creates a new PaymentHandler instance
func NewPaymentHandler(deps *Dependencies) *PaymentHandler {
	return &PaymentHandler{
		logger: deps.Logger,
		escrow: deps.Escrow,
	}
}

// GetPayment handles GET /api/v1/payments/:payment_id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.escrow.GetPayment(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// UploadProof handles POST /api/v1/payments/:payment_id/proof
func (h *PaymentHandler) UploadProof(c *gin.Context) {
	clientID, ok := actorID(c)
	if !ok {
		return
	}

	var req dto.UploadProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	payment, err := h.escrow.UploadProof(c.Request.Context(), c.Param("payment_id"), clientID, req.Image)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ConfirmPayment handles POST /api/v1/payments/:payment_id/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	workerID, ok := actorID(c)
	if !ok {
		return
	}

	payment, err := h.escrow.Confirm(c.Request.Context(), c.Param("payment_id"), workerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// DisputePayment handles POST /api/v1/payments/:payment_id/dispute
func (h *PaymentHandler) DisputePayment(c *gin.Context) {
	workerID, ok := actorID(c)
	if !ok {
		return
	}

	payment, err := h.escrow.Dispute(c.Request.Context(), c.Param("payment_id"), workerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}
