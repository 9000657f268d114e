package db

import (
	"github.com/sergiovriv/bc-p2/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}
	return db.Gorm.AutoMigrate(
		&models.OracleRound{},
		&models.RoundBet{},
	)
}
