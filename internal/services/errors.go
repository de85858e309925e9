package services

import "errors"

// Sentinel errors the handlers map onto HTTP statuses.
var (
	ErrJobNotFound = errors.New("job posting not found")
	ErrJobClosed   = errors.New("job posting is not accepting applications")

	// ErrSessionGone covers unknown, expired, and abandoned review
	// sessions alike: there is nothing left to act on.
	ErrSessionGone = errors.New("review session not found or expired")

	// ErrDuplicateApplication enforces the one-application-per-posting
	// invariant at commit time.
	ErrDuplicateApplication = errors.New("an application for this job already exists")

	ErrMissingIdentity = errors.New("a name and email are required to apply")

	ErrInvalidPosting = errors.New("posting must have a title and positively weighted requirements")

	// ErrEmailTaken means an account for the email appeared between the
	// new-user check and the signup write. Confirming again signs in
	// against the existing account instead.
	ErrEmailTaken = errors.New("an account with this email already exists")
)
