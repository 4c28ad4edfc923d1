// Package testutil opens throwaway SQLite databases migrated with the service schema.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/SundayYogurt/rote_service/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated file-backed SQLite database that is removed when the test ends.
// Foreign keys are enforced as they are on postgres. A single connection is used so
// transactions never see SQLITE_BUSY.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rote.db")
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
