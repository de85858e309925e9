package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/talentgate/careers/internal/models"
)

// Connect opens the Postgres connection and migrates the schema. The
// composite unique index on applications comes from the model tags and is
// what backs the duplicate-application guarantee.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.JobPosting{},
		&models.JobRequirement{},
		&models.Applicant{},
		&models.Tag{},
		&models.Application{},
	); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}
