package db

import (
	"earnradar/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Opportunity{},
		&models.Strategy{},
		&models.SyncState{},
	)
}
