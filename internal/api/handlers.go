package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/skillverse/payments-gateway/internal/checkout"
	"github.com/skillverse/payments-gateway/internal/ledger"
	"github.com/skillverse/payments-gateway/internal/milestone"
	"github.com/skillverse/payments-gateway/internal/paystack"
	"github.com/skillverse/payments-gateway/internal/recon"
)

type Handler struct {
	Checkout      *checkout.Service
	Recon         *recon.Engine
	Milestones    *milestone.Service
	Store         ledger.Store
	WebhookSecret string
	Log           *logrus.Logger

	validate *validator.Validate
}

func NewHandler(co *checkout.Service, re *recon.Engine, ms *milestone.Service, store ledger.Store, webhookSecret string, log *logrus.Logger) *Handler {
	return &Handler{
		Checkout:      co,
		Recon:         re,
		Milestones:    ms,
		Store:         store,
		WebhookSecret: webhookSecret,
		Log:           log,
		validate:      validator.New(),
	}
}

type checkoutRequest struct {
	Email string `json:"email" validate:"required,email"`
	JobID string `json:"jobId" validate:"required"`
}

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and amount are required"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and amount are required"})
		return
	}

	session, err := h.Checkout.CreateSession(c.Request.Context(), req.Email, req.JobID)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Service request not found"})
	case errors.Is(err, checkout.ErrNoPaymentDue):
		c.JSON(http.StatusBadRequest, gin.H{"message": "No payment due"})
	case errors.Is(err, paystack.ErrGatewayFailure):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error initializing Paystack transaction"})
	case err != nil:
		h.Log.WithError(err).Error("checkout session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	default:
		c.JSON(http.StatusOK, gin.H{"checkoutUrl": session.CheckoutURL})
	}
}

func (h *Handler) PaystackWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	// Signature first: no parsing and no store access on unverified input.
	sig := c.GetHeader("x-paystack-signature")
	if err := paystack.VerifySignature(h.WebhookSecret, sig, body); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid signature"})
		return
	}

	ev, err := paystack.ParseEvent(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	outcome, err := h.Recon.Process(c.Request.Context(), ev)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Service request not found"})
	case err != nil:
		h.Log.WithError(err).Error("webhook reconciliation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating service request"})
	case outcome == recon.OutcomeApplied:
		c.JSON(http.StatusOK, gin.H{"message": "Payment successful - database updated"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})
	}
}

type milestoneInput struct {
	Description string `json:"description" validate:"required"`
	DueDate     string `json:"dueDate" validate:"required"`
}

type createMilestonesRequest struct {
	Milestones []milestoneInput `json:"milestones"`
}

func (h *Handler) CreateMilestones(c *gin.Context) {
	jobID := c.Param("jobId")

	var req createMilestonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid milestone payload", "error": err.Error()})
		return
	}

	inputs := make([]milestone.Input, 0, len(req.Milestones))
	for _, in := range req.Milestones {
		if err := h.validate.Struct(in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid milestone payload", "error": err.Error()})
			return
		}
		due, err := parseDueDate(in.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid milestone payload", "error": err.Error()})
			return
		}
		inputs = append(inputs, milestone.Input{Description: in.Description, DueDate: due})
	}

	created, err := h.Milestones.Create(c.Request.Context(), jobID, inputs)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
	case err != nil:
		h.Log.WithError(err).Error("milestone creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating milestones", "error": err.Error()})
	default:
		c.JSON(http.StatusCreated, gin.H{"message": "Milestones created successfully", "milestones": created})
	}
}

func (h *Handler) GetMilestones(c *gin.Context) {
	milestones, err := h.Milestones.List(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		h.Log.WithError(err).Error("milestone fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching milestones", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, milestones)
}

func (h *Handler) CompleteMilestone(c *gin.Context) {
	updated, err := h.Milestones.Complete(c.Request.Context(), c.Param("milestoneId"))
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Milestone not found"})
	case err != nil:
		h.Log.WithError(err).Error("milestone completion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error completing milestone", "error": err.Error()})
	default:
		c.JSON(http.StatusOK, updated)
	}
}

type createServiceRequestRequest struct {
	ClientEmail     string `json:"clientEmail" validate:"required,email"`
	Title           string `json:"title"`
	Price           int64  `json:"price" validate:"required,gt=0"`
	PaymentsPending int64  `json:"paymentsPending"`
}

func (h *Handler) CreateServiceRequest(c *gin.Context) {
	var req createServiceRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid service request payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid service request payload"})
		return
	}

	record := &ledger.ServiceRequest{
		ClientEmail:     req.ClientEmail,
		Title:           req.Title,
		Price:           req.Price,
		PaymentsPending: req.PaymentsPending,
		Status:          ledger.StatusInProgress,
	}
	if err := h.Store.CreateServiceRequest(c.Request.Context(), record); err != nil {
		h.Log.WithError(err).Error("service request creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating service request"})
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) GetServiceRequest(c *gin.Context) {
	record, err := h.Store.GetServiceRequest(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Service request not found"})
	case err != nil:
		h.Log.WithError(err).Error("service request fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching service request"})
	default:
		c.JSON(http.StatusOK, record)
	}
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.Store.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
