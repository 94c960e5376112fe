package handlers

import (
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

type InsuranceHandler struct {
	*BaseHandler
	insuranceService services.InsuranceService
	maxUploadSize    int64
}

func NewInsuranceHandler(base *BaseHandler, insuranceService services.InsuranceService, maxUploadSize int64) *InsuranceHandler {
	return &InsuranceHandler{
		BaseHandler:      base,
		insuranceService: insuranceService,
		maxUploadSize:    maxUploadSize,
	}
}

func (h *InsuranceHandler) RegisterRoutes(r *gin.RouterGroup) {
	protected := r.Group("/insurance")
	protected.Use(h.Auth())
	{
		protected.GET("/expiring", middleware.RequirePermission(auth.PermInsuranceList), h.Expiring)
		protected.POST("", middleware.RoleMiddleware(models.UserRolePilot), h.Create)
		protected.PUT("/:insuranceId", h.Update)
		protected.DELETE("/:insuranceId", h.Delete)
		protected.POST("/:insuranceId/verify", middleware.RequirePermission(auth.PermInsuranceVerify), h.Verify)
		protected.POST("/:insuranceId/claims", h.AddClaim)
		protected.POST("/:insuranceId/document", h.UploadDocument)
	}

	// Public
	r.GET("/insurance/:pilotId", h.GetByPilot)
}

func (h *InsuranceHandler) GetByPilot(c *gin.Context) {
	resp, err := h.insuranceService.GetByPilot(h.GetDB(c), c.Param("pilotId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *InsuranceHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.CreateInsuranceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.insuranceService.Create(c.Request.Context(), h.GetDB(c), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *InsuranceHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.UpdateInsuranceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.insuranceService.Update(c.Request.Context(), h.GetDB(c), actor, c.Param("insuranceId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *InsuranceHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	if err := h.insuranceService.Delete(c.Request.Context(), h.GetDB(c), actor, c.Param("insuranceId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Insurance record deleted"})
}

func (h *InsuranceHandler) Verify(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.VerifyInsuranceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.insuranceService.Verify(c.Request.Context(), h.GetDB(c), actor, c.Param("insuranceId"), req.Method)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *InsuranceHandler) AddClaim(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.ClaimRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.insuranceService.AddClaim(c.Request.Context(), h.GetDB(c), actor, c.Param("insuranceId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *InsuranceHandler) UploadDocument(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// запас под заголовки multipart сверх лимита файла
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		logger.CtxWarn(ctx, "document upload without file", "error", err)
		apperrors.HandleError(c, apperrors.NewBadRequestError("File is required"))
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		apperrors.HandleError(c, apperrors.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer file.Close()

	resp, err := h.insuranceService.UploadDocument(ctx, h.GetDB(c), actor, c.Param("insuranceId"), file, fileHeader.Size)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *InsuranceHandler) Expiring(c *gin.Context) {
	var q dto.ExpiringQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	list, err := h.insuranceService.Expiring(h.GetDB(c), q.Days)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"policies": list,
		"total":    len(list),
	})
}
