// Package session holds the ephemeral pending-application state between
// resume submission and confirmation. Sessions live in memory, are keyed
// by random identifiers, expire after an idle window, and are never shared
// between applicants.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talentgate/careers/internal/models"
)

// State is the review session lifecycle position.
type State string

const (
	// StateSubmitted: resume uploaded, pipeline ran. Transient; a session
	// advances to UnderReview before the applicant ever sees it.
	StateSubmitted State = "submitted"
	// StateUnderReview: applicant viewing and editing parsed data.
	StateUnderReview State = "under_review"
	// StateConfirmed: terminal; promoted to persistent records.
	StateConfirmed State = "confirmed"
	// StateAbandoned: terminal; discarded without persistent trace.
	StateAbandoned State = "abandoned"
)

var (
	// ErrTerminal rejects any mutation of a confirmed or abandoned session.
	ErrTerminal = errors.New("session is in a terminal state")
	// ErrBadTransition rejects out-of-order lifecycle moves.
	ErrBadTransition = errors.New("invalid session state transition")
)

// editableFields is the whitelist of overlay keys Edit accepts.
var editableFields = map[string]bool{
	"first_name": true, "last_name": true, "email": true,
	"phone": true, "linkedin": true,
	"degree": true, "school": true, "major": true, "graduate_year": true,
	"current_title": true, "organization": true,
	"tags": true,
}

// Session is one applicant's pending application for one job posting. The
// ParsedResume is immutable once set; applicant corrections accumulate in
// the edits overlay and are merged only when the fields are read back.
type Session struct {
	ID           string
	JobPostingID uint

	ResumeText string
	ResumePath string

	Parsed *models.ParsedResume
	Score  *models.ScoreResult

	// Warnings carries degraded-pipeline notices ("resume could not be
	// read automatically") for the review UI.
	Warnings []string

	// email is the current identity candidate: the parsed email until an
	// edit overrides it. isNewUser tracks whether that email already has
	// an account. Both change after the session is shared, so access goes
	// through the locked accessors.
	email     string
	isNewUser bool

	state   State
	edits   map[string]string
	touched time.Time

	// mu guards state, edits, and touched. op serializes multi-step
	// operations (confirm) so two concurrent confirmations of the same
	// session can never interleave around the persistence write.
	mu sync.Mutex
	op sync.Mutex
}

// New creates a session in StateSubmitted.
func New(jobPostingID uint) *Session {
	return &Session{
		ID:           uuid.NewString(),
		JobPostingID: jobPostingID,
		state:        StateSubmitted,
		edits:        make(map[string]string),
		touched:      time.Now(),
	}
}

// BeginReview advances Submitted -> UnderReview.
func (s *Session) BeginReview() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSubmitted {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, s.state, StateUnderReview)
	}
	s.state = StateUnderReview
	s.touched = time.Now()
	return nil
}

// Edit records applicant corrections for whitelisted fields. Only the
// touched fields are overlaid; everything else keeps its parsed value.
func (s *Session) Edit(fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConfirmed || s.state == StateAbandoned {
		return ErrTerminal
	}
	if s.state != StateUnderReview {
		return fmt.Errorf("%w: edit in %s", ErrBadTransition, s.state)
	}
	for k := range fields {
		if !editableFields[k] {
			return fmt.Errorf("field %q is not editable", k)
		}
	}
	for k, v := range fields {
		s.edits[k] = v
		if k == "email" {
			s.email = v
		}
	}
	s.touched = time.Now()
	return nil
}

// Confirm moves UnderReview -> Confirmed. It succeeds exactly once.
func (s *Session) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConfirmed || s.state == StateAbandoned {
		return ErrTerminal
	}
	if s.state != StateUnderReview {
		return fmt.Errorf("%w: confirm in %s", ErrBadTransition, s.state)
	}
	s.state = StateConfirmed
	return nil
}

// Abandon moves any non-terminal state to Abandoned.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConfirmed || s.state == StateAbandoned {
		return ErrTerminal
	}
	s.state = StateAbandoned
	return nil
}

// SetEmail replaces the identity candidate.
func (s *Session) SetEmail(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = v
}

// CurrentEmail returns the identity candidate: the parsed email until an
// edit overrides it.
func (s *Session) CurrentEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// SetNewUser records whether the current email belongs to an existing
// account.
func (s *Session) SetNewUser(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isNewUser = v
}

// IsNewUser reports whether confirming will create a fresh account.
func (s *Session) IsNewUser() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isNewUser
}

// State reports the current lifecycle position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fields merges the edit overlay over the parsed resume and returns the
// final applicant fields. The ParsedResume itself is never modified.
func (s *Session) Fields() models.ApplicantFields {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := models.FieldsFromParsed(s.Parsed)
	for k, v := range s.edits {
		switch k {
		case "first_name":
			f.FirstName = v
		case "last_name":
			f.LastName = v
		case "email":
			f.Email = v
		case "phone":
			f.Phone = v
		case "linkedin":
			f.LinkedIn = v
		case "degree":
			f.Degree = v
		case "school":
			f.School = v
		case "major":
			f.Major = v
		case "graduate_year":
			f.GraduateYear = atoiSafe(v)
		case "current_title":
			f.CurrentTitle = v
		case "organization":
			f.Organization = v
		case "tags":
			f.Tags = splitTags(v)
		}
	}
	return f
}

// Lock acquires the session's operation lock. Confirm handlers hold it
// across the whole verify-persist-transition sequence.
func (s *Session) Lock()   { s.op.Lock() }
func (s *Session) Unlock() { s.op.Unlock() }

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func atoiSafe(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func splitTags(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
