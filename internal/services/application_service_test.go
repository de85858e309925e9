package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentgate/careers/internal/auth"
	"github.com/talentgate/careers/internal/models"
	"github.com/talentgate/careers/internal/session"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(data []byte) (string, error) {
	return f.text, f.err
}

type fakeParser struct {
	parsed *models.ParsedResume
	err    error
	calls  int
}

func (f *fakeParser) Parse(ctx context.Context, resumeText string) (*models.ParsedResume, error) {
	f.calls++
	return f.parsed, f.err
}

type fakeScorer struct {
	result *models.ScoreResult
	err    error
}

func (f *fakeScorer) Score(ctx context.Context, resumeText string, reqs []models.JobRequirement) (*models.ScoreResult, error) {
	return f.result, f.err
}

type fakeJobStore struct {
	postings map[uint]*models.JobPosting
	created  []*models.JobPosting
}

func (f *fakeJobStore) ActivePostings(ctx context.Context) ([]models.JobPosting, error) {
	var out []models.JobPosting
	for _, p := range f.postings {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeJobStore) PostingWithRequirements(ctx context.Context, id uint) (*models.JobPosting, error) {
	return f.postings[id], nil
}

func (f *fakeJobStore) CreatePosting(ctx context.Context, posting *models.JobPosting) error {
	f.created = append(f.created, posting)
	return nil
}

type fakeIdentityStore struct {
	users map[string]*models.User
}

func (f *fakeIdentityStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.users[email], nil
}

type fakeAppStore struct {
	commits []CommitRequest
	err     error
}

func (f *fakeAppStore) CommitApplication(ctx context.Context, req CommitRequest) (*models.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.commits = append(f.commits, req)
	return &models.Application{JobPostingID: req.JobPostingID}, nil
}

func openPosting() *models.JobPosting {
	return &models.JobPosting{
		Title:    "Backend Engineer",
		IsActive: true,
		Requirements: []models.JobRequirement{
			{Name: "Go", Weight: 2},
			{Name: "PostgreSQL", Weight: 1},
		},
	}
}

func parsedAda() *models.ParsedResume {
	return &models.ParsedResume{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Contact:   models.Contact{Email: "ada@example.com"},
		Tags:      []string{"go", "postgresql"},
	}
}

type harness struct {
	svc        *ApplicationService
	sessions   *session.Store
	extractor  *fakeExtractor
	parser     *fakeParser
	scorer     *fakeScorer
	jobs       *fakeJobStore
	identities *fakeIdentityStore
	apps       *fakeAppStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	job := openPosting()
	job.ID = 7
	h := &harness{
		sessions:  session.NewStore(30 * time.Minute),
		extractor: &fakeExtractor{text: "Ada Lovelace\nada@example.com\nGo, PostgreSQL"},
		parser:    &fakeParser{parsed: parsedAda()},
		scorer: &fakeScorer{result: &models.ScoreResult{
			Overall: 66.7,
			Breakdown: []models.ScoredRequirement{
				{Name: "Go", Weight: 2, Score: 0.8},
				{Name: "PostgreSQL", Weight: 1, Score: 0.4},
			},
		}},
		jobs:       &fakeJobStore{postings: map[uint]*models.JobPosting{7: job}},
		identities: &fakeIdentityStore{users: map[string]*models.User{}},
		apps:       &fakeAppStore{},
	}
	h.svc = NewApplicationService(h.extractor, h.parser, h.scorer, h.sessions, h.jobs, h.identities, h.apps, t.TempDir())
	return h
}

func TestSubmit_HappyPath(t *testing.T) {
	h := newHarness(t)

	sess, err := h.svc.Submit(context.Background(), 7, []byte("%PDF-1.4 stub"))
	require.NoError(t, err)

	assert.Equal(t, session.StateUnderReview, sess.State())
	assert.Equal(t, "ada@example.com", sess.CurrentEmail())
	assert.True(t, sess.IsNewUser())
	assert.Empty(t, sess.Warnings)
	require.NotNil(t, sess.Score)
	assert.InDelta(t, 66.7, sess.Score.Overall, 0.001)
	assert.NotEmpty(t, sess.ResumePath, "uploaded file should be retained")
	assert.Same(t, sess, h.sessions.Get(sess.ID))
}

func TestSubmit_KnownEmailClearsNewUserFlag(t *testing.T) {
	h := newHarness(t)
	h.identities.users["ada@example.com"] = &models.User{Email: "ada@example.com"}

	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)
	assert.False(t, sess.IsNewUser())
}

func TestSubmit_ParseFailureDegradesToManualEntry(t *testing.T) {
	h := newHarness(t)
	h.parser.err = errors.New("model returned garbage")

	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err, "a parse failure must not block the application")

	assert.Equal(t, session.StateUnderReview, sess.State())
	assert.Nil(t, sess.Parsed)
	assert.Contains(t, sess.Warnings, ManualEntryNotice)
	require.NotNil(t, sess.Score, "scoring is independent of parsing")
}

func TestSubmit_ScoreFailureDegradesToUnscored(t *testing.T) {
	h := newHarness(t)
	h.scorer.err = errors.New("llm unavailable")

	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)

	assert.Nil(t, sess.Score)
	assert.NotEmpty(t, sess.Warnings)
	require.NotNil(t, sess.Parsed)
}

func TestSubmit_UnreadableResumeFails(t *testing.T) {
	h := newHarness(t)
	h.extractor.err = errors.New("not a pdf")

	_, err := h.svc.Submit(context.Background(), 7, []byte("junk"))
	assert.Error(t, err)
	assert.Zero(t, h.parser.calls, "pipeline must not run on unreadable input")
}

func TestSubmit_ClosedAndMissingPostings(t *testing.T) {
	h := newHarness(t)
	h.jobs.postings[7].IsActive = false

	_, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	assert.ErrorIs(t, err, ErrJobClosed)

	_, err = h.svc.Submit(context.Background(), 99, []byte("pdf"))
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestEdit_EmailChangeReresolvesIdentity(t *testing.T) {
	h := newHarness(t)
	h.identities.users["grace@example.com"] = &models.User{Email: "grace@example.com"}

	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)
	require.True(t, sess.IsNewUser())

	_, err = h.svc.Edit(context.Background(), sess.ID, map[string]string{"email": "grace@example.com"})
	require.NoError(t, err)
	assert.False(t, sess.IsNewUser())
}

func TestEdit_ConcurrentEmailEdits(t *testing.T) {
	h := newHarness(t)
	h.identities.users["grace@example.com"] = &models.User{Email: "grace@example.com"}

	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)

	emails := []string{"grace@example.com", "nobody@example.com"}
	var wg sync.WaitGroup
	for _, email := range emails {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			_, err := h.svc.Edit(context.Background(), sess.ID, map[string]string{"email": email})
			assert.NoError(t, err)
		}(email)
	}
	wg.Wait()

	// Whichever edit landed last, the flag must agree with the email.
	known := sess.CurrentEmail() == "grace@example.com"
	assert.Equal(t, !known, sess.IsNewUser())
}

func TestEdit_ClearingEmailResetsNewUserFlag(t *testing.T) {
	h := newHarness(t)
	h.identities.users["ada@example.com"] = &models.User{Email: "ada@example.com"}

	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)
	require.False(t, sess.IsNewUser())

	_, err = h.svc.Edit(context.Background(), sess.ID, map[string]string{"email": ""})
	require.NoError(t, err)
	assert.True(t, sess.IsNewUser(), "no email means no known account")
}

func TestEdit_UnknownSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Edit(context.Background(), "nope", map[string]string{"email": "x@y.z"})
	assert.ErrorIs(t, err, ErrSessionGone)
}

func TestConfirm_NewUserCreatesAccount(t *testing.T) {
	h := newHarness(t)
	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)

	app, err := h.svc.Confirm(context.Background(), sess.ID, "s3cret-pass")
	require.NoError(t, err)
	require.NotNil(t, app)

	require.Len(t, h.apps.commits, 1)
	commit := h.apps.commits[0]
	assert.True(t, commit.NewUser)
	assert.Equal(t, "ada@example.com", commit.User.Email)
	assert.NoError(t, auth.VerifyPassword(commit.User.PasswordHash, "s3cret-pass"))
	require.NotNil(t, commit.AIScore)
	assert.InDelta(t, 66.7, *commit.AIScore, 0.001)

	assert.Nil(t, h.sessions.Get(sess.ID), "confirmed sessions are removed")
}

func TestConfirm_ExistingUserVerifiesPassword(t *testing.T) {
	h := newHarness(t)
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	h.identities.users["ada@example.com"] = &models.User{Email: "ada@example.com", PasswordHash: hash}

	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)

	_, err = h.svc.Confirm(context.Background(), sess.ID, "wrong")
	assert.ErrorIs(t, err, auth.ErrBadCredentials)
	assert.NotNil(t, h.sessions.Get(sess.ID), "a failed confirm keeps the session alive")

	_, err = h.svc.Confirm(context.Background(), sess.ID, "correct-horse")
	require.NoError(t, err)
	require.Len(t, h.apps.commits, 1)
	assert.False(t, h.apps.commits[0].NewUser)
}

func TestConfirm_MissingIdentity(t *testing.T) {
	h := newHarness(t)
	h.parser.err = errors.New("unparsable")

	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)

	_, err = h.svc.Confirm(context.Background(), sess.ID, "pass")
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = h.svc.Edit(context.Background(), sess.ID, map[string]string{
		"first_name": "Ada", "email": "ada@example.com",
	})
	require.NoError(t, err)

	_, err = h.svc.Confirm(context.Background(), sess.ID, "pass")
	assert.NoError(t, err)
}

func TestConfirm_DuplicateApplication(t *testing.T) {
	h := newHarness(t)
	h.apps.err = ErrDuplicateApplication

	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)

	_, err = h.svc.Confirm(context.Background(), sess.ID, "pass")
	assert.ErrorIs(t, err, ErrDuplicateApplication)
}

func TestConfirm_LostSignupRaceSurfacesEmailTaken(t *testing.T) {
	h := newHarness(t)
	h.apps.err = ErrEmailTaken

	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)

	_, err = h.svc.Confirm(context.Background(), sess.ID, "pass")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NotNil(t, h.sessions.Get(sess.ID), "the applicant gets to confirm again")
}

func TestConfirm_SessionGoneAfterConfirm(t *testing.T) {
	h := newHarness(t)
	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)

	_, err = h.svc.Confirm(context.Background(), sess.ID, "pass")
	require.NoError(t, err)

	_, err = h.svc.Confirm(context.Background(), sess.ID, "pass")
	assert.ErrorIs(t, err, ErrSessionGone)
	assert.Len(t, h.apps.commits, 1, "only one application may land")
}

func TestAbandon(t *testing.T) {
	h := newHarness(t)
	sess, err := h.svc.Submit(context.Background(), 7, []byte("pdf"))
	require.NoError(t, err)

	require.NoError(t, h.svc.Abandon(sess.ID))
	assert.Nil(t, h.sessions.Get(sess.ID))
	assert.ErrorIs(t, h.svc.Abandon(sess.ID), ErrSessionGone)
	assert.Empty(t, h.apps.commits)
}
