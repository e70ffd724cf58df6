package repository

import (
	"mentorbridge/internal/database"

	"gorm.io/gorm"
)

// readDB routes reads on the shared connection to the replica when one is
// configured. Repositories built on any other handle read from it directly.
func readDB(primary *gorm.DB) *gorm.DB {
	if primary != database.DB {
		return primary
	}
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}
