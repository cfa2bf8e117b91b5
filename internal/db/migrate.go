package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.LineGroup{},
		&models.Line{},
		&models.Process{},
		&models.ShiftSlot{},
		&models.Worker{},
		&models.EditLease{},
		&models.WorkLog{},
		&models.SlotConfig{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedGroups upserts LineGroup rows by name, assigning ids to new groups.
func SeedGroups(db *gorm.DB, names []string) error {
	for i, name := range names {
		group := models.LineGroup{
			ID:       uuid.NewString(),
			Name:     name,
			Position: i,
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"position"}),
		}).Create(&group)
		if result.Error != nil {
			return fmt.Errorf("db: seed group %q: %w", name, result.Error)
		}
	}
	return nil
}

// SeedConfig writes or updates SlotConfig rows from a key/value map.
func SeedConfig(db *gorm.DB, settings map[string]string) error {
	for key, value := range settings {
		sc := models.SlotConfig{Key: key, Value: value}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&sc)
		if result.Error != nil {
			return fmt.Errorf("db: seed config %q: %w", key, result.Error)
		}
	}
	return nil
}
