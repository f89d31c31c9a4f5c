package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corridorworks/corridor-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.DBClient != nil {
			if err := deps.DBClient.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "corridor-api-service",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	paymentHandler := handler.NewPaymentHandler(deps)
	disputeHandler := handler.NewDisputeHandler(deps)
	userHandler := handler.NewUserHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.CreateJob)
			jobs.GET("/:job_id", jobHandler.GetJob)
			jobs.POST("/:job_id/accept", jobHandler.AcceptJob)
			jobs.POST("/:job_id/reject", jobHandler.RejectJob)
			jobs.POST("/:job_id/complete", jobHandler.CompleteJob)
			jobs.POST("/:job_id/cancel", jobHandler.CancelJob)
			jobs.POST("/:job_id/rate", jobHandler.RateJob)
		}

		// GET /api/v1/feed - ranked open jobs for the requesting worker
		v1.GET("/feed", jobHandler.Feed)

		payments := v1.Group("/payments")
		{
			payments.GET("/:payment_id", paymentHandler.GetPayment)
			payments.POST("/:payment_id/proof", paymentHandler.UploadProof)
			payments.POST("/:payment_id/confirm", paymentHandler.ConfirmPayment)
			payments.POST("/:payment_id/dispute", paymentHandler.DisputePayment)
		}

		disputes := v1.Group("/disputes")
		{
			disputes.POST("", disputeHandler.RaiseDispute)
			disputes.GET("/:dispute_id", disputeHandler.GetDispute)
			disputes.POST("/:dispute_id/resolve", disputeHandler.ResolveDispute)
			disputes.POST("/:dispute_id/reject", disputeHandler.RejectDispute)
		}

		users := v1.Group("/users")
		{
			users.POST("/availability", userHandler.SetAvailability)
			users.POST("/:user_id/recompute-reputation", userHandler.RecomputeReputation)
			users.POST("/:user_id/ban", userHandler.ToggleBan)
			users.POST("/:user_id/verification", userHandler.UpdateVerification)
		}
	}

	return r
}
