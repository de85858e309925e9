package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/talentgate/careers/internal/auth"
	"github.com/talentgate/careers/internal/dtos"
	"github.com/talentgate/careers/internal/extract"
	"github.com/talentgate/careers/internal/services"
)

type ApplicationHandler struct {
	apps     *services.ApplicationService
	maxBytes int64
}

func NewApplicationHandler(apps *services.ApplicationService, maxBytes int64) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, maxBytes: maxBytes}
}

// SubmitApplication is POST /jobs/:id/applications. It takes a multipart
// "resume" PDF, runs the ingestion pipeline, and returns the opened
// review session.
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job id"})
		return
	}

	file, header, err := c.Request.FormFile("resume")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A resume file is required"})
		return
	}
	defer file.Close()

	var reader io.Reader = file
	if h.maxBytes > 0 {
		if header.Size > h.maxBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Resume file is too large"})
			return
		}
		reader = io.LimitReader(file, h.maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	sess, err := h.apps.Submit(c.Request.Context(), uint(jobID), data)
	switch {
	case errors.Is(err, services.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job posting not found"})
	case errors.Is(err, services.ErrJobClosed):
		c.JSON(http.StatusGone, gin.H{"error": "Job posting is no longer accepting applications"})
	case errors.Is(err, extract.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Resume file is too large"})
	case errors.Is(err, extract.ErrUnreadablePDF):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The uploaded file is not a readable PDF"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process application"})
	default:
		c.JSON(http.StatusCreated, dtos.ReviewFromSession(sess))
	}
}

// GetReview is GET /review/:session.
func (h *ApplicationHandler) GetReview(c *gin.Context) {
	sess, err := h.apps.Review(c.Param("session"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review session not found or expired"})
		return
	}
	c.JSON(http.StatusOK, dtos.ReviewFromSession(sess))
}

// EditReview is PATCH /review/:session: applies field corrections.
func (h *ApplicationHandler) EditReview(c *gin.Context) {
	var req dtos.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	sess, err := h.apps.Edit(c.Request.Context(), c.Param("session"), req.Fields)
	switch {
	case errors.Is(err, services.ErrSessionGone):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review session not found or expired"})
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, dtos.ReviewFromSession(sess))
	}
}

// ConfirmReview is POST /review/:session/confirm. The password either
// creates the account (new email) or authenticates the returning one.
func (h *ApplicationHandler) ConfirmReview(c *gin.Context) {
	var req dtos.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	app, err := h.apps.Confirm(c.Request.Context(), c.Param("session"), req.Password)
	switch {
	case errors.Is(err, services.ErrSessionGone):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review session not found or expired"})
	case errors.Is(err, services.ErrMissingIdentity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password for this email"})
	case errors.Is(err, services.ErrDuplicateApplication):
		c.JSON(http.StatusConflict, gin.H{"error": "You have already applied to this job"})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists; confirm again to sign in"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm application"})
	default:
		c.JSON(http.StatusCreated, dtos.ApplicationFromModel(app))
	}
}

// AbandonReview is DELETE /review/:session.
func (h *ApplicationHandler) AbandonReview(c *gin.Context) {
	if err := h.apps.Abandon(c.Param("session")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review session not found or expired"})
		return
	}
	c.Status(http.StatusNoContent)
}
