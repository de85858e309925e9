package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/talentgate/careers/internal/models"
	"github.com/talentgate/careers/internal/services"
)

// Repository is the gorm-backed implementation of the service layer's
// store interfaces.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ActivePostings(ctx context.Context) ([]models.JobPosting, error) {
	var postings []models.JobPosting
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&postings).Error
	if err != nil {
		return nil, fmt.Errorf("list active postings: %w", err)
	}
	return postings, nil
}

// PostingWithRequirements returns (nil, nil) for an unknown id; the
// service layer owns the not-found semantics.
func (r *Repository) PostingWithRequirements(ctx context.Context, id uint) (*models.JobPosting, error) {
	var posting models.JobPosting
	err := r.db.WithContext(ctx).
		Preload("Requirements").
		First(&posting, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load posting %d: %w", id, err)
	}
	return &posting, nil
}

func (r *Repository) CreatePosting(ctx context.Context, posting *models.JobPosting) error {
	if err := r.db.WithContext(ctx).Create(posting).Error; err != nil {
		return fmt.Errorf("create posting: %w", err)
	}
	return nil
}

// UserByEmail returns (nil, nil) when no account exists for the email.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up user by email: %w", err)
	}
	return &user, nil
}

// CommitApplication promotes a confirmed review session into persistent
// rows in a single transaction: the user account if new, the applicant
// profile (created or refreshed), the normalized tag set, and the
// application row itself. The composite unique index turns a second
// application for the same posting into ErrDuplicateApplication.
func (r *Repository) CommitApplication(ctx context.Context, req services.CommitRequest) (*models.Application, error) {
	var app *models.Application

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := req.User
		if req.NewUser {
			user.Email = strings.ToLower(strings.TrimSpace(user.Email))
			if err := tx.Create(user).Error; err != nil {
				// A concurrent confirm for the same email won the signup.
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return services.ErrEmailTaken
				}
				return fmt.Errorf("create user: %w", err)
			}
		}

		applicant, err := upsertApplicant(tx, user, req)
		if err != nil {
			return err
		}

		if err := replaceTags(tx, applicant, req.Fields.Tags); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Application{}).
			Where("applicant_id = ? AND job_posting_id = ?", applicant.ID, req.JobPostingID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check existing application: %w", err)
		}
		if existing > 0 {
			return services.ErrDuplicateApplication
		}

		app = &models.Application{
			ApplicantID:  applicant.ID,
			JobPostingID: req.JobPostingID,
			AIScore:      req.AIScore,
		}
		if err := tx.Create(app).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return services.ErrDuplicateApplication
			}
			return fmt.Errorf("create application: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// upsertApplicant creates the user's applicant profile or refreshes it
// with the latest reviewed fields. A returning applicant keeps one
// profile across applications.
func upsertApplicant(tx *gorm.DB, user *models.User, req services.CommitRequest) (*models.Applicant, error) {
	f := req.Fields

	if f.FirstName != "" || f.LastName != "" {
		if user.FirstName != f.FirstName || user.LastName != f.LastName {
			user.FirstName = f.FirstName
			user.LastName = f.LastName
			if err := tx.Model(user).Updates(map[string]interface{}{
				"first_name": f.FirstName,
				"last_name":  f.LastName,
			}).Error; err != nil {
				return nil, fmt.Errorf("update user name: %w", err)
			}
		}
	}

	var applicant models.Applicant
	err := tx.Where("user_id = ?", user.ID).First(&applicant).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		applicant = models.Applicant{UserID: user.ID}
	case err != nil:
		return nil, fmt.Errorf("load applicant: %w", err)
	}

	applicant.PhoneNumber = f.Phone
	applicant.LinkedInProfile = f.LinkedIn
	applicant.CurrentTitle = f.CurrentTitle
	applicant.LatestWorkOrganization = f.Organization
	applicant.LatestDegree = f.Degree
	applicant.School = f.School
	applicant.Major = f.Major
	applicant.GraduateYear = f.GraduateYear
	applicant.ResumePath = req.ResumePath
	applicant.ResumeText = req.ResumeText

	if err := tx.Save(&applicant).Error; err != nil {
		return nil, fmt.Errorf("save applicant: %w", err)
	}
	return &applicant, nil
}

// replaceTags swaps the applicant's tag set for the reviewed one. Tag
// names are stored lowercase and shared across applicants.
func replaceTags(tx *gorm.DB, applicant *models.Applicant, names []string) error {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		var tag models.Tag
		if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	if err := tx.Model(applicant).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("replace applicant tags: %w", err)
	}
	return nil
}

var _ services.JobStore = (*Repository)(nil)
var _ services.IdentityStore = (*Repository)(nil)
var _ services.ApplicationStore = (*Repository)(nil)
