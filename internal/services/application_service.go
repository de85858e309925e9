package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/talentgate/careers/internal/auth"
	"github.com/talentgate/careers/internal/models"
	"github.com/talentgate/careers/internal/parser"
	"github.com/talentgate/careers/internal/scoring"
	"github.com/talentgate/careers/internal/session"
)

// ManualEntryNotice is surfaced when the resume could not be read
// automatically; the applicant fills the fields in by hand instead.
const ManualEntryNotice = "We could not read your resume automatically. Please fill in the fields below manually."

// Extractor turns uploaded PDF bytes into plain text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// ResumeParser produces a structured resume from text.
type ResumeParser interface {
	Parse(ctx context.Context, resumeText string) (*models.ParsedResume, error)
}

// Scorer rates resume text against a posting's weighted requirements.
type Scorer interface {
	Score(ctx context.Context, resumeText string, reqs []models.JobRequirement) (*models.ScoreResult, error)
}

// JobStore is the read interface over job postings and their requirements.
type JobStore interface {
	ActivePostings(ctx context.Context) ([]models.JobPosting, error)
	PostingWithRequirements(ctx context.Context, id uint) (*models.JobPosting, error)
	CreatePosting(ctx context.Context, posting *models.JobPosting) error
}

// IdentityStore resolves emails to existing users. UserByEmail returns
// (nil, nil) for an unknown email.
type IdentityStore interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// CommitRequest is everything the store needs to promote a confirmed
// session into persistent records in one transaction.
type CommitRequest struct {
	User    *models.User // unsaved (ID zero) when NewUser
	NewUser bool

	JobPostingID uint
	Fields       models.ApplicantFields
	AIScore      *float64

	ResumePath string
	ResumeText string
}

// ApplicationStore performs the atomic confirm-time write. It returns
// ErrDuplicateApplication when (applicant, posting) already exists.
type ApplicationStore interface {
	CommitApplication(ctx context.Context, req CommitRequest) (*models.Application, error)
}

// ApplicationService runs the submit -> review -> confirm flow.
type ApplicationService struct {
	extractor  Extractor
	parser     ResumeParser
	scorer     Scorer
	sessions   *session.Store
	jobs       JobStore
	identities IdentityStore
	apps       ApplicationStore
	uploadsDir string
}

func NewApplicationService(
	extractor Extractor,
	resumeParser ResumeParser,
	scorer Scorer,
	sessions *session.Store,
	jobs JobStore,
	identities IdentityStore,
	apps ApplicationStore,
	uploadsDir string,
) *ApplicationService {
	return &ApplicationService{
		extractor:  extractor,
		parser:     resumeParser,
		scorer:     scorer,
		sessions:   sessions,
		jobs:       jobs,
		identities: identities,
		apps:       apps,
		uploadsDir: uploadsDir,
	}
}

// Submit runs the ingestion pipeline for one uploaded resume and opens a
// review session. Parsing and scoring degrade to warnings; only an
// unreadable upload fails the submission outright.
func (s *ApplicationService) Submit(ctx context.Context, jobID uint, data []byte) (*session.Session, error) {
	job, err := s.jobs.PostingWithRequirements(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if !job.IsActive {
		return nil, ErrJobClosed
	}

	text, err := s.extractor.Extract(data)
	if err != nil {
		return nil, err
	}

	sess := session.New(job.ID)
	sess.ResumeText = text
	sess.ResumePath = s.storeResume(data)

	// Parser and scorer consume the same text and are independent; run
	// them together, but the session only opens once both are done.
	var (
		wg       sync.WaitGroup
		parsed   *models.ParsedResume
		parseErr error
		score    *models.ScoreResult
		scoreErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		parsed, parseErr = s.parser.Parse(ctx, text)
	}()
	go func() {
		defer wg.Done()
		score, scoreErr = s.scorer.Score(ctx, text, job.Requirements)
	}()
	wg.Wait()

	if parseErr != nil {
		log.Printf("application submit: resume parse degraded for job %d: %v", job.ID, parseErr)
		sess.Warnings = append(sess.Warnings, ManualEntryNotice)
	} else {
		sess.Parsed = parsed
		sess.SetEmail(parsed.Contact.Email)
	}

	if scoreErr != nil {
		if !errors.Is(scoreErr, scoring.ErrNoRequirements) {
			log.Printf("application submit: scoring degraded for job %d: %v", job.ID, scoreErr)
			sess.Warnings = append(sess.Warnings, "Automatic fit scoring was unavailable; your application will be reviewed without an AI score.")
		}
	} else {
		sess.Score = score
	}

	if err := s.resolveIdentity(ctx, sess); err != nil {
		return nil, err
	}

	if err := sess.BeginReview(); err != nil {
		return nil, err
	}
	s.sessions.Put(sess)
	return sess, nil
}

// Review fetches a live session for display.
func (s *ApplicationService) Review(id string) (*session.Session, error) {
	sess := s.sessions.Get(id)
	if sess == nil {
		return nil, ErrSessionGone
	}
	return sess, nil
}

// Edit applies applicant corrections to a live session. Changing the
// email re-resolves the new-vs-existing identity flag.
func (s *ApplicationService) Edit(ctx context.Context, id string, fields map[string]string) (*session.Session, error) {
	sess := s.sessions.Get(id)
	if sess == nil {
		return nil, ErrSessionGone
	}
	if err := sess.Edit(fields); err != nil {
		return nil, err
	}

	if _, changed := fields["email"]; changed {
		if err := s.resolveIdentity(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// resolveIdentity refreshes the session's new-vs-existing account flag
// for its current email. No email means nothing to match, so the flag
// falls back to "new".
func (s *ApplicationService) resolveIdentity(ctx context.Context, sess *session.Session) error {
	email := sess.CurrentEmail()
	if email == "" {
		sess.SetNewUser(true)
		return nil
	}
	user, err := s.identities.UserByEmail(ctx, email)
	if err != nil {
		return err
	}
	sess.SetNewUser(user == nil)
	return nil
}

// Confirm verifies the applicant's identity and atomically promotes the
// session into Applicant and Application rows. It holds the session's
// operation lock so two concurrent confirmations cannot interleave.
func (s *ApplicationService) Confirm(ctx context.Context, id, password string) (*models.Application, error) {
	sess := s.sessions.Get(id)
	if sess == nil {
		return nil, ErrSessionGone
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.State() != session.StateUnderReview {
		return nil, ErrSessionGone
	}

	fields := sess.Fields()
	if strings.TrimSpace(fields.Email) == "" || strings.TrimSpace(fields.FirstName) == "" {
		return nil, ErrMissingIdentity
	}

	user, err := s.identities.UserByEmail(ctx, fields.Email)
	if err != nil {
		return nil, err
	}

	newUser := user == nil
	if newUser {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", auth.ErrBadCredentials, err)
		}
		user = &models.User{
			Email:        fields.Email,
			PasswordHash: hash,
			FirstName:    fields.FirstName,
			LastName:     fields.LastName,
		}
	} else if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}

	var aiScore *float64
	if sess.Score != nil {
		overall := sess.Score.Overall
		aiScore = &overall
	}

	app, err := s.apps.CommitApplication(ctx, CommitRequest{
		User:         user,
		NewUser:      newUser,
		JobPostingID: sess.JobPostingID,
		Fields:       fields,
		AIScore:      aiScore,
		ResumePath:   sess.ResumePath,
		ResumeText:   sess.ResumeText,
	})
	if err != nil {
		return nil, err
	}

	if err := sess.Confirm(); err != nil {
		// The write landed; a racing transition here is a bug worth noise.
		log.Printf("application confirm: session %s transition failed after commit: %v", sess.ID, err)
	}
	s.sessions.Delete(sess.ID)
	return app, nil
}

// Abandon discards a live session without trace.
func (s *ApplicationService) Abandon(id string) error {
	sess := s.sessions.Get(id)
	if sess == nil {
		return ErrSessionGone
	}
	_ = sess.Abandon()
	s.sessions.Delete(sess.ID)
	return nil
}

// storeResume writes the uploaded file under the uploads directory. A
// storage failure downgrades to a missing file reference rather than
// blocking the application.
func (s *ApplicationService) storeResume(data []byte) string {
	if s.uploadsDir == "" {
		return ""
	}
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		log.Printf("application submit: create uploads dir: %v", err)
		return ""
	}
	path := filepath.Join(s.uploadsDir, uuid.NewString()+".pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("application submit: store resume: %v", err)
		return ""
	}
	return path
}

var _ ResumeParser = (*parser.Parser)(nil)
var _ Scorer = (*scoring.Engine)(nil)
