package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/talentgate/careers/internal/dtos"
	"github.com/talentgate/careers/internal/services"
)

type JobHandler struct {
	jobs *services.JobService
}

func NewJobHandler(jobs *services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// ListJobs is GET /jobs: the public catalogue of open postings.
func (h *JobHandler) ListJobs(c *gin.Context) {
	postings, err := h.jobs.ActivePostings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list postings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": postings})
}

// GetJob is GET /jobs/:id with requirements included.
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job id"})
		return
	}

	posting, err := h.jobs.Posting(c.Request.Context(), uint(id))
	switch {
	case errors.Is(err, services.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job posting not found"})
	case errors.Is(err, services.ErrJobClosed):
		c.JSON(http.StatusGone, gin.H{"error": "Job posting is no longer accepting applications"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load posting"})
	default:
		c.JSON(http.StatusOK, posting)
	}
}

// CreateJob is POST /jobs: recruiter-side posting creation.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	posting := req.ToModel()
	if err := h.jobs.CreatePosting(c.Request.Context(), posting); err != nil {
		if errors.Is(err, services.ErrInvalidPosting) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create posting"})
		return
	}
	c.JSON(http.StatusCreated, posting)
}
