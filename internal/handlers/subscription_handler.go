package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dronemarket_backend/internal/auth"
	"dronemarket_backend/internal/middleware"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/services"
	"dronemarket_backend/internal/services/dto"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
	settlementService   services.SettlementService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService, settlementService services.SettlementService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
		settlementService:   settlementService,
	}
}

func (h *SubscriptionHandler) RegisterWebhookRoutes(r *gin.RouterGroup) {
	r.POST("/subscriptions/webhook", h.Webhook)
}

func (h *SubscriptionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/subscriptions/plans", h.GetPlans)

	subs := r.Group("/subscriptions")
	subs.Use(h.Auth(), middleware.RoleMiddleware(models.UserRolePilot))
	{
		subs.POST("/create-checkout-session", middleware.RequirePermission(auth.PermSubscriptionsBuy), h.CreateCheckout)
		subs.GET("/status", h.GetStatus)
		subs.POST("/cancel", h.Cancel)
	}
}

func (h *SubscriptionHandler) GetPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.subscriptionService.Plans()})
}

func (h *SubscriptionHandler) CreateCheckout(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.CreateSubscriptionCheckoutRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.subscriptionService.CreateCheckout(c.Request.Context(), h.GetDB(c), actor, req.PlanID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	status, err := h.subscriptionService.Status(h.GetDB(c), actor)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	if err := h.subscriptionService.Cancel(c.Request.Context(), h.GetDB(c), actor); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Subscription will be cancelled at the end of the billing period"})
}

func (h *SubscriptionHandler) Webhook(c *gin.Context) {
	payload, ok := readWebhookBody(c)
	if !ok {
		return
	}

	resp, err := h.settlementService.HandleSubscriptionWebhook(c.Request.Context(), h.GetDB(c), payload, c.GetHeader(signatureHeader))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
