package handler

import (
	"errors"
	"net/http"

	"github.com/erp/billing/internal/infrastructure/scheduler"
	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/erp/billing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

const defaultJobListLimit = 100

// JobHandler exposes the background job queue
type JobHandler struct {
	BaseHandler
	jobs JobBrowser
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobs JobBrowser) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// List returns jobs, newest first, filtered by ?channel= and ?state=
//
// GET /jobs
func (h *JobHandler) List(c *gin.Context) {
	var req dto.JobListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultJobListLimit
	}

	jobs, err := h.jobs.List(c.Request.Context(), scheduler.JobFilter{
		Channel: req.Channel,
		State:   scheduler.JobState(req.State),
		Limit:   req.Limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, jobs)
}

// Get returns one job
//
// GET /jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	job, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		h.handleJobError(c, err)
		return
	}
	h.Success(c, job)
}

// RelatedAction points at the record the job works on
//
// GET /jobs/:id/related-action
func (h *JobHandler) RelatedAction(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	action, err := h.jobs.RelatedAction(c.Request.Context(), id)
	if err != nil {
		h.handleJobError(c, err)
		return
	}
	h.Success(c, action)
}

func (h *JobHandler) handleJobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		h.NotFound(c, "Job not found")
	case errors.Is(err, scheduler.ErrNoRelatedAction):
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Job has no related action")
	default:
		h.HandleError(c, err)
	}
}
