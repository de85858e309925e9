package dtos

import (
	"github.com/talentgate/careers/internal/models"
	"github.com/talentgate/careers/internal/session"
)

type JobCreationRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Department  string `json:"department"`

	Requirements []RequirementRequest `json:"requirements" binding:"required,min=1,dive"`
}

type RequirementRequest struct {
	Name   string  `json:"name" binding:"required"`
	Weight float64 `json:"weight" binding:"required,gt=0"`
}

func (r JobCreationRequest) ToModel() *models.JobPosting {
	posting := &models.JobPosting{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Department:  r.Department,
	}
	for _, req := range r.Requirements {
		posting.Requirements = append(posting.Requirements, models.JobRequirement{
			Name:   req.Name,
			Weight: req.Weight,
		})
	}
	return posting
}

type EditRequest struct {
	Fields map[string]string `json:"fields" binding:"required"`
}

type ConfirmRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// ReviewResponse is the session snapshot the review page renders: the
// merged fields (parsed values plus the applicant's edits so far), the
// fit score, and any degraded-pipeline warnings.
type ReviewResponse struct {
	SessionID    string `json:"session_id"`
	JobPostingID uint   `json:"job_posting_id"`
	State        string `json:"state"`

	Fields    models.ApplicantFields `json:"fields"`
	Score     *models.ScoreResult    `json:"score,omitempty"`
	IsNewUser bool                   `json:"is_new_user"`
	Warnings  []string               `json:"warnings,omitempty"`
}

func ReviewFromSession(s *session.Session) ReviewResponse {
	return ReviewResponse{
		SessionID:    s.ID,
		JobPostingID: s.JobPostingID,
		State:        string(s.State()),
		Fields:       s.Fields(),
		Score:        s.Score,
		IsNewUser:    s.IsNewUser(),
		Warnings:     s.Warnings,
	}
}

type ApplicationResponse struct {
	ApplicationID uint     `json:"application_id"`
	JobPostingID  uint     `json:"job_posting_id"`
	AIScore       *float64 `json:"ai_score,omitempty"`
}

func ApplicationFromModel(app *models.Application) ApplicationResponse {
	return ApplicationResponse{
		ApplicationID: app.ID,
		JobPostingID:  app.JobPostingID,
		AIScore:       app.AIScore,
	}
}
