package db

import (
	"file_portal/internal/domain" // Importing domain models
	"fmt"                         // Error wrapping

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// singletonIndexes back the one flagged row per owner rule on engines with
// partial index support
var singletonIndexes = []struct {
	name, table, column string
}{
	{"idx_addresses_one_default", "addresses", "is_default"},
	{"idx_phone_numbers_one_primary", "phone_numbers", "is_primary"},
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err := db.AutoMigrate(&domain.User{}, &domain.AuthToken{}, &domain.UploadedFile{}, &domain.Address{}, &domain.PhoneNumber{})
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	switch db.Dialector.Name() {
	case "postgres", "sqlite":
		for _, idx := range singletonIndexes {
			stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (user_id) WHERE %s", idx.name, idx.table, idx.column)
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("create index %s: %w", idx.name, err)
			}
		}
	default:
		// MySQL has no partial indexes; the transactional clear-then-set holds the rule alone
		logrus.WithField("dialect", db.Dialector.Name()).Warn("partial unique indexes unsupported, skipping")
	}
	logrus.Info("Migration completed.")
	return nil
}
