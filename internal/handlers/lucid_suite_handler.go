package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dronemarket_backend/internal/auth"
	"dronemarket_backend/internal/middleware"
	"dronemarket_backend/internal/services"
	"dronemarket_backend/internal/services/dto"
)

type LucidSuiteHandler struct {
	*BaseHandler
	lucidService services.LucidSuiteService
}

func NewLucidSuiteHandler(base *BaseHandler, lucidService services.LucidSuiteService) *LucidSuiteHandler {
	return &LucidSuiteHandler{
		BaseHandler:  base,
		lucidService: lucidService,
	}
}

func (h *LucidSuiteHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/lucid-suite/pilots", h.Pilots)

	lucid := r.Group("/lucid-suite")
	lucid.Use(h.Auth())
	{
		lucid.GET("/connect", h.Status)
		lucid.POST("/connect", h.Connect)
		lucid.DELETE("/disconnect", h.Disconnect)
		lucid.POST("/roms", h.AddROMs)
		lucid.POST("/api-key", h.IssueAPIKey)
		lucid.PUT("/sync", middleware.RequirePermission(auth.PermLucidSuiteSync), h.Sync)
	}
}

func (h *LucidSuiteHandler) Status(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	resp, err := h.lucidService.Status(h.GetDB(c), actor)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *LucidSuiteHandler) Connect(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.ConnectLucidSuiteRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	link, err := h.lucidService.Connect(c.Request.Context(), h.GetDB(c), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, link)
}

func (h *LucidSuiteHandler) Disconnect(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	if err := h.lucidService.Disconnect(c.Request.Context(), h.GetDB(c), actor); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Disconnected from Lucid Suite"})
}

func (h *LucidSuiteHandler) Pilots(c *gin.Context) {
	pilots, err := h.lucidService.Pilots(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pilots": pilots,
		"total":  len(pilots),
	})
}

func (h *LucidSuiteHandler) AddROMs(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.AddROMsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	link, err := h.lucidService.AddROMs(c.Request.Context(), h.GetDB(c), actor, req.Minutes)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, link)
}

func (h *LucidSuiteHandler) IssueAPIKey(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	resp, err := h.lucidService.IssueAPIKey(c.Request.Context(), h.GetDB(c), actor)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *LucidSuiteHandler) Sync(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.LucidSuiteSyncRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	link, err := h.lucidService.Sync(c.Request.Context(), h.GetDB(c), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, link)
}
