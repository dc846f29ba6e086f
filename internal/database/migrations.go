package database

import (
	"gorm.io/gorm"

	"github.com/inkwelldata/inkwell/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Team{},
		&models.Asset{},
		&models.AssetPermission{},
		&models.AssetContainment{},
	)
}
