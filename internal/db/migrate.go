package db

import (
	"rumble/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Rumble{},
		&models.Bet{},
		&models.PayoutHint{},
		&models.SystemSetting{},
	)
}
