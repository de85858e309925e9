package services

import (
	"context"
	"strings"

	"github.com/talentgate/careers/internal/models"
)

// JobService exposes the public posting catalogue and the admin-side
// posting creation used to seed it.
type JobService struct {
	jobs JobStore
}

func NewJobService(jobs JobStore) *JobService {
	return &JobService{jobs: jobs}
}

// ActivePostings lists postings currently accepting applications.
func (s *JobService) ActivePostings(ctx context.Context) ([]models.JobPosting, error) {
	return s.jobs.ActivePostings(ctx)
}

// Posting returns one open posting with its requirements loaded.
func (s *JobService) Posting(ctx context.Context, id uint) (*models.JobPosting, error) {
	job, err := s.jobs.PostingWithRequirements(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if !job.IsActive {
		return nil, ErrJobClosed
	}
	return job, nil
}

// CreatePosting validates and stores a new posting. Requirements with
// blank names or non-positive weights are rejected up front so scoring
// never sees them.
func (s *JobService) CreatePosting(ctx context.Context, posting *models.JobPosting) error {
	posting.Title = strings.TrimSpace(posting.Title)
	if posting.Title == "" {
		return ErrInvalidPosting
	}
	for i := range posting.Requirements {
		posting.Requirements[i].Name = strings.TrimSpace(posting.Requirements[i].Name)
		if posting.Requirements[i].Name == "" || posting.Requirements[i].Weight <= 0 {
			return ErrInvalidPosting
		}
	}
	posting.IsActive = true
	return s.jobs.CreatePosting(ctx, posting)
}
