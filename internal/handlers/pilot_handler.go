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

type PilotHandler struct {
	*BaseHandler
	pilotService services.PilotService
}

func NewPilotHandler(base *BaseHandler, pilotService services.PilotService) *PilotHandler {
	return &PilotHandler{
		BaseHandler:  base,
		pilotService: pilotService,
	}
}

func (h *PilotHandler) RegisterRoutes(r *gin.RouterGroup) {
	pilots := r.Group("/pilots")
	{
		// Public
		pilots.GET("", h.Search)
		pilots.GET("/:pilotId", h.GetPilot)
	}

	protected := r.Group("/pilots")
	protected.Use(h.Auth())
	{
		protected.GET("/me/profile", h.GetMyProfile)
		protected.POST("", middleware.RoleMiddleware(models.UserRolePilot), h.CreateProfile)
		protected.PUT("/:pilotId", h.UpdateProfile)
		protected.PUT("/:pilotId/status", middleware.RequirePermission(auth.PermPilotsModerate), h.UpdateStatus)
		protected.POST("/:pilotId/rating", middleware.RoleMiddleware(models.UserRolePropertyManager), h.Rate)
	}
}

func (h *PilotHandler) Search(c *gin.Context) {
	var q dto.PilotSearchQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	resp, err := h.pilotService.Search(h.GetDB(c), &q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PilotHandler) GetPilot(c *gin.Context) {
	pilot, err := h.pilotService.GetPilot(h.GetDB(c), c.Param("pilotId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pilot)
}

func (h *PilotHandler) GetMyProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	pilot, err := h.pilotService.GetMyProfile(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pilot)
}

func (h *PilotHandler) CreateProfile(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.CreatePilotRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	pilot, err := h.pilotService.CreateProfile(c.Request.Context(), h.GetDB(c), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pilot)
}

func (h *PilotHandler) UpdateProfile(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.UpdatePilotRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	pilot, err := h.pilotService.UpdateProfile(c.Request.Context(), h.GetDB(c), actor, c.Param("pilotId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pilot)
}

func (h *PilotHandler) UpdateStatus(c *gin.Context) {
	var req dto.PilotStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	pilot, err := h.pilotService.UpdateStatus(c.Request.Context(), h.GetDB(c), c.Param("pilotId"), req.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pilot)
}

func (h *PilotHandler) Rate(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.RatingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	pilot, err := h.pilotService.Rate(c.Request.Context(), h.GetDB(c), actor, c.Param("pilotId"), req.Rating)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rating":       pilot.Rating,
		"totalReviews": pilot.TotalReviews,
	})
}
