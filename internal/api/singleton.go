package api

import (
	"file_portal/internal/domain" // Importing domain models

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Row locking
)

// saveWithSingletonFlag runs persist in a transaction. When flagged is set,
// column is first cleared on every other row of the owner, so the owner never
// holds more than one flagged row once the transaction commits.
func saveWithSingletonFlag(db *gorm.DB, model any, column string, ownerID, recordID uint, flagged bool, persist func(tx *gorm.DB) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if flagged {
			if err := lockOwner(tx, ownerID); err != nil {
				return err // Rollback
			}
			err := tx.Model(model).
				Where("user_id = ? AND id <> ? AND "+column+" = ?", ownerID, recordID, true).
				Update(column, false).Error
			if err != nil {
				return err // Rollback
			}
		}
		return persist(tx)
	})
}

// lockOwner takes a row lock on the owning user so flag writes of one owner
// run one after another. SQLite has no row locks; its single connection
// already serializes transactions.
func lockOwner(tx *gorm.DB, ownerID uint) error {
	q := tx.Select("id")
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q.First(&domain.User{}, ownerID).Error
}
