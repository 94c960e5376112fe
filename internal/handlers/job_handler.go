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

type JobHandler struct {
	*BaseHandler
	jobService services.JobService
}

func NewJobHandler(base *BaseHandler, jobService services.JobService) *JobHandler {
	return &JobHandler{
		BaseHandler: base,
		jobService:  jobService,
	}
}

func (h *JobHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/jobs", h.ListJobs)

	jobs := r.Group("/jobs")
	jobs.Use(h.Auth())
	{
		jobs.GET("/my", middleware.RoleMiddleware(models.UserRolePropertyManager), h.ListMyJobs)
		jobs.GET("/:jobId", h.GetJob)
		jobs.POST("", middleware.RequirePermission(auth.PermJobsWrite), h.CreateJob)
		jobs.PUT("/:jobId", h.UpdateJob)
		jobs.DELETE("/:jobId", h.DeleteJob)
		jobs.PUT("/:jobId/status", h.UpdateStatus)
	}
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	var q dto.JobListQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	resp, err := h.jobService.ListJobs(h.GetDB(c), &q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *JobHandler) ListMyJobs(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var q dto.PageQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	resp, err := h.jobService.ListMyJobs(h.GetDB(c), actor, q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.GetJob(c.Request.Context(), h.GetDB(c), actor, c.Param("jobId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.CreateJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), h.GetDB(c), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.UpdateJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	job, err := h.jobService.UpdateJob(c.Request.Context(), h.GetDB(c), actor, c.Param("jobId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	if err := h.jobService.DeleteJob(c.Request.Context(), h.GetDB(c), actor, c.Param("jobId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Job deleted successfully"})
}

func (h *JobHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.JobStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	job, err := h.jobService.UpdateStatus(c.Request.Context(), h.GetDB(c), actor, c.Param("jobId"), req.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}
