package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// SetupTestDB opens a fresh in-memory sqlite database and migrates every
// persisted model. Unlike the Postgres instance the service runs against
// in production, this needs nothing running on the host, so package tests
// stay hermetic. glebarez/sqlite wraps the pure-Go modernc.org/sqlite
// driver, keeping the test binary cgo-free.
func SetupTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory test database: %v", err)
	}

	if err := db.AutoMigrate(models.AllTables()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}

	return db, cleanup
}

// ClearDatabase removes all rows from every persisted table, in reverse
// dependency order, so a test can reuse a connection across sub-tests.
func ClearDatabase(db *gorm.DB) error {
	tables := []interface{}{
		&models.Alert{},
		&models.Assessment{},
		&models.Location{},
		&models.Tourist{},
		&models.SafeZone{},
		&models.RestrictedZone{},
	}

	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return err
		}
	}

	return nil
}
