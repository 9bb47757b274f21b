package models

import (
	"gorm.io/gorm"
)

// MigrateTable creates the ledger mirror tables. Only used against dev/test databases;
// in production the host platform owns this schema.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Company{}, &Currency{},
		&Account{}, &AccountJournal{},
		&Partner{},
		&AccountMove{}, &AccountMoveLine{},
	)
}
