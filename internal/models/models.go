package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the authentication identity behind an applicant profile.
// Passwords are stored as bcrypt hashes only.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

// JobPosting is a published job opening recruiters accept applications for.
type JobPosting struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Location    string     `json:"location"`
	Department  string     `json:"department"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	Deadline    *time.Time `json:"deadline,omitempty"`

	Requirements []JobRequirement `json:"requirements,omitempty"`
}

// JobRequirement is one weighted requirement the scoring engine rates
// candidates against. Weights are positive reals; the engine normalizes,
// so they need not sum to anything in particular.
type JobRequirement struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	JobPostingID uint    `gorm:"index;not null" json:"job_posting_id"`
	Name         string  `gorm:"not null" json:"name"`
	Weight       float64 `gorm:"not null" json:"weight"`
}

// Applicant is the persistent candidate profile. One per user; created or
// updated only when a review session is confirmed.
type Applicant struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `json:"user,omitempty"`

	PhoneNumber     string `json:"phone_number"`
	LinkedInProfile string `json:"linkedin_profile"`

	CurrentTitle           string `json:"current_title"`
	LatestWorkOrganization string `json:"latest_work_organization"`
	LatestDegree           string `json:"latest_degree"`
	School                 string `json:"school"`
	Major                  string `json:"major"`
	GraduateYear           int    `json:"graduate_year"`

	ResumePath string `json:"resume_path"`
	ResumeText string `gorm:"type:text" json:"-"`

	Tags []Tag `gorm:"many2many:applicant_tags;" json:"tags,omitempty"`
}

// Tag is a normalized (lowercase, unique) skill or achievement label.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// Application links an applicant to a job posting with the committed AI
// score. The composite unique index is the duplicate-application guard:
// one applicant never holds two applications for the same posting.
type Application struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ApplicantID  uint `gorm:"not null;uniqueIndex:idx_applicant_posting" json:"applicant_id"`
	JobPostingID uint `gorm:"not null;uniqueIndex:idx_applicant_posting" json:"job_posting_id"`

	AIScore         *float64  `json:"ai_score,omitempty"`
	ApplicationDate time.Time `gorm:"autoCreateTime" json:"application_date"`
}
