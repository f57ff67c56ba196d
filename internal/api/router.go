package api

import (
	"github.com/gin-gonic/gin"
)

func NewRouter(h *Handler, frontendOrigin string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), CORS(frontendOrigin))

	engine.POST("/payments/create-checkout-session", h.CreateCheckoutSession)
	engine.POST("/webhook/paystack", h.PaystackWebhook)

	api := engine.Group("/api")
	api.POST("/milestones/:jobId", h.CreateMilestones)
	api.GET("/milestones/job/:jobId", h.GetMilestones)
	api.PUT("/milestones/complete/:milestoneId", h.CompleteMilestone)
	api.POST("/service-requests", h.CreateServiceRequest)
	api.GET("/service-requests/:id", h.GetServiceRequest)

	engine.GET("/healthz", h.Health)

	return engine
}
