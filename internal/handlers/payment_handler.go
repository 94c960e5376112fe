package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"dronemarket_backend/internal/auth"
	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/middleware"
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/services"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/pkg/apperrors"
)

// maxWebhookBody - тело события провайдера больше этого не бывает
const maxWebhookBody = 1 << 20

const signatureHeader = "Stripe-Signature"

type PaymentHandler struct {
	*BaseHandler
	paymentService    services.PaymentService
	settlementService services.SettlementService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService, settlementService services.SettlementService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:       base,
		paymentService:    paymentService,
		settlementService: settlementService,
	}
}

// RegisterWebhookRoutes - вебхук без токена: подлинность проверяется подписью
func (h *PaymentHandler) RegisterWebhookRoutes(r *gin.RouterGroup) {
	r.POST("/payments/webhook", h.Webhook)
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	payments.Use(h.Auth())
	{
		payments.POST("/create-job-payment", middleware.RoleMiddleware(models.UserRolePropertyManager), h.CreateJobPayment)
		payments.GET("", h.ListPayments)
		payments.GET("/:paymentId", h.GetPayment)
		payments.POST("/:paymentId/refund", middleware.RequirePermission(auth.PermPaymentsRefund), h.Refund)
	}
}

func (h *PaymentHandler) CreateJobPayment(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.CreateJobPaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.paymentService.CreateJobPayment(c.Request.Context(), h.GetDB(c), actor, req.BidID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var q dto.PageQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	resp, err := h.paymentService.ListPayments(h.GetDB(c), actor, q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(h.GetDB(c), actor, c.Param("paymentId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.RefundRequest
	if !h.BindOptional_JSON(c, &req) {
		return
	}

	payment, err := h.paymentService.Refund(c.Request.Context(), h.GetDB(c), actor, c.Param("paymentId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, ok := readWebhookBody(c)
	if !ok {
		return
	}

	resp, err := h.settlementService.HandlePaymentWebhook(c.Request.Context(), h.GetDB(c), payload, c.GetHeader(signatureHeader))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// readWebhookBody - сырое тело нужно для проверки подписи, поэтому без биндинга
func readWebhookBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "failed to read webhook body", "error", err)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Unable to read request body"))
		return nil, false
	}
	return payload, true
}
