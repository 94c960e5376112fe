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

type BidHandler struct {
	*BaseHandler
	bidService services.BidService
}

func NewBidHandler(base *BaseHandler, bidService services.BidService) *BidHandler {
	return &BidHandler{
		BaseHandler: base,
		bidService:  bidService,
	}
}

func (h *BidHandler) RegisterRoutes(r *gin.RouterGroup) {
	bids := r.Group("/bids")
	bids.Use(h.Auth())
	{
		bids.GET("", h.ListBids)
		bids.GET("/job/:jobId", middleware.RoleMiddleware(models.UserRolePropertyManager, models.UserRoleAdmin), h.ListJobBids)
		bids.GET("/:bidId", h.GetBid)

		// Pilot
		bids.POST("", middleware.RequirePermission(auth.PermBidsWrite), h.SubmitBid)
		bids.PUT("/:bidId/withdraw", h.WithdrawBid)
		bids.DELETE("/:bidId", h.WithdrawBid)

		// Job owner
		bids.PUT("/:bidId/review", h.ReviewBid)
		bids.PUT("/:bidId/accept", h.AcceptBid)
		bids.PUT("/:bidId/reject", h.RejectBid)
		bids.PUT("/:bidId/read", h.MarkRead)
	}
}

func (h *BidHandler) ListBids(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var q dto.BidListQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	resp, err := h.bidService.ListBids(h.GetDB(c), actor, &q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *BidHandler) ListJobBids(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	bids, err := h.bidService.ListJobBids(h.GetDB(c), actor, c.Param("jobId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bids":  bids,
		"total": len(bids),
	})
}

func (h *BidHandler) GetBid(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	bid, err := h.bidService.GetBid(h.GetDB(c), actor, c.Param("bidId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

func (h *BidHandler) SubmitBid(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.CreateBidRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	bid, err := h.bidService.SubmitBid(c.Request.Context(), h.GetDB(c), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bid)
}

func (h *BidHandler) AcceptBid(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	bid, err := h.bidService.AcceptBid(c.Request.Context(), h.GetDB(c), actor, c.Param("bidId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

func (h *BidHandler) RejectBid(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !h.BindOptional_JSON(c, &req) {
		return
	}

	bid, err := h.bidService.RejectBid(c.Request.Context(), h.GetDB(c), actor, c.Param("bidId"), req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

func (h *BidHandler) WithdrawBid(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !h.BindOptional_JSON(c, &req) {
		return
	}

	bid, err := h.bidService.WithdrawBid(c.Request.Context(), h.GetDB(c), actor, c.Param("bidId"), req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

func (h *BidHandler) ReviewBid(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	bid, err := h.bidService.ReviewBid(c.Request.Context(), h.GetDB(c), actor, c.Param("bidId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

func (h *BidHandler) MarkRead(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	bid, err := h.bidService.MarkRead(c.Request.Context(), h.GetDB(c), actor, c.Param("bidId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}
