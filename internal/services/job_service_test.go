package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentgate/careers/internal/models"
)

func TestJobService_Posting(t *testing.T) {
	open := openPosting()
	open.ID = 1
	closed := openPosting()
	closed.ID = 2
	closed.IsActive = false

	svc := NewJobService(&fakeJobStore{postings: map[uint]*models.JobPosting{1: open, 2: closed}})

	got, err := svc.Posting(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, got.Requirements, 2)

	_, err = svc.Posting(context.Background(), 2)
	assert.ErrorIs(t, err, ErrJobClosed)

	_, err = svc.Posting(context.Background(), 3)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobService_CreatePostingValidation(t *testing.T) {
	store := &fakeJobStore{postings: map[uint]*models.JobPosting{}}
	svc := NewJobService(store)

	err := svc.CreatePosting(context.Background(), &models.JobPosting{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidPosting)

	err = svc.CreatePosting(context.Background(), &models.JobPosting{
		Title:        "Data Engineer",
		Requirements: []models.JobRequirement{{Name: "Spark", Weight: 0}},
	})
	assert.ErrorIs(t, err, ErrInvalidPosting, "zero-weight requirements are rejected")

	posting := &models.JobPosting{
		Title:        " Data Engineer ",
		Requirements: []models.JobRequirement{{Name: " Spark ", Weight: 1.5}},
	}
	require.NoError(t, svc.CreatePosting(context.Background(), posting))
	assert.Equal(t, "Data Engineer", posting.Title)
	assert.Equal(t, "Spark", posting.Requirements[0].Name)
	assert.True(t, posting.IsActive)
	require.Len(t, store.created, 1)
}
