package migrations

import (
	"fmt"

	"gorm.io/gorm"
)

// ConfigureSQLite applies the pragmas the single-host deployment relies on:
// WAL so the status API can read while the scheduler writes, and a busy timeout
// instead of immediate SQLITE_BUSY errors.
func ConfigureSQLite(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}
