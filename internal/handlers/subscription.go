// internal/handlers/subscription.go
package handlers

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/localspot/localspot-backend/internal/services"
	"github.com/localspot/localspot-backend/internal/utils"
)

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// GET /plans
func (h *SubscriptionHandler) GetPlans(c *gin.Context) {
	plans, err := h.subscriptionService.GetPlans()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"plans": plans})
}

// POST /subscriptions
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	vendorID, ok := currentVendorID(c)
	if !ok {
		return
	}

	var req services.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	resp, err := h.subscriptionService.Subscribe(vendorID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, resp)
}

// GET /subscriptions/current
func (h *SubscriptionHandler) GetCurrent(c *gin.Context) {
	vendorID, ok := currentVendorID(c)
	if !ok {
		return
	}

	subscription, err := h.subscriptionService.GetVendorSubscription(vendorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"subscription": subscription})
}

// DELETE /subscriptions/:id
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	vendorID, ok := currentVendorID(c)
	if !ok {
		return
	}

	subscription, err := h.subscriptionService.CancelSubscription(vendorID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"subscription": subscription})
}

// GET /subscriptions/transactions
func (h *SubscriptionHandler) GetTransactions(c *gin.Context) {
	vendorID, ok := currentVendorID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	params := utils.NormalizePagination(page, limit)

	transactions, total, err := h.subscriptionService.GetVendorTransactions(vendorID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(transactions, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /webhooks/stripe
//
// Raw body plus the Stripe-Signature header; no auth middleware.
func (h *SubscriptionHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 65536))
	if err != nil {
		utils.BadRequestResponse(c, "failed to read webhook payload", nil)
		return
	}

	if err := h.subscriptionService.HandleWebhook(payload, c.GetHeader("Stripe-Signature")); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"received": true})
}
