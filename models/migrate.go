package models

import "gorm.io/gorm"

// All lists every mapped type in dependency order.
func All() []interface{} {
	return []interface{}{&Customer{}, &Product{}, &Order{}}
}

// Migrate creates missing tables, columns and indexes. Existing tables are
// never dropped or rebuilt.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
