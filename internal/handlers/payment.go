// internal/handlers/payment.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pmdq/biodiversity-backend/internal/services"
	"github.com/pmdq/biodiversity-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Create prepares a payment order for an accepted application (admin)
// POST /v1/payment-orders
func (h *PaymentHandler) Create(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreatePaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	order, err := h.paymentService.CreatePaymentOrder(adminID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, order)
}

// Get returns one payment order
// GET /v1/payment-orders/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.paymentService.GetPaymentOrder(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	userID, _ := currentUserID(c)
	if !isAdmin(c) && (order.PermitApplication == nil || order.PermitApplication.ClientID != userID) {
		utils.ForbiddenResponse(c, "")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, order)
}

// Approve records the second signatory (admin)
// POST /v1/payment-orders/:id/approve
func (h *PaymentHandler) Approve(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	order, err := h.paymentService.ApprovePaymentOrder(id, adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, order)
}

// CreateIntent opens a Stripe payment intent for online settlement
// POST /v1/payment-orders/:id/intent
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, clientSecret, err := h.paymentService.CreatePaymentIntent(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gin.H{
		"payment_order": order,
		"client_secret": clientSecret,
	})
}

// ConfirmOnline verifies a Stripe payment intent and records the payment
// POST /v1/payment-orders/:id/confirm
func (h *PaymentHandler) ConfirmOnline(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "payment_intent_id is required")
		return
	}

	payment, err := h.paymentService.ConfirmOnlinePayment(id, req.PaymentIntentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, payment)
}

// RecordOTC records an over-the-counter payment (admin)
// POST /v1/payment-orders/:id/otc
func (h *PaymentHandler) RecordOTC(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	cashierID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.RecordOTCPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	payment, err := h.paymentService.RecordOTCPayment(id, cashierID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, payment)
}
