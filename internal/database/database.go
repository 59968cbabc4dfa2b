package database

import (
	"fmt"
	"log"
	"strings"

	"content-cache-api/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens (or creates) the SQLite file backing the persistent cache tier
// and runs migrations.
// Using glebarez/sqlite which is a pure Go implementation (no CGO required)
func Open(path string, level logger.LogLevel) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		// concurrent cache writers wait for the lock instead of failing with SQLITE_BUSY
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache database %q: %w", path, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Printf("Cache database %s connected and migrated", path)
	return db, nil
}

// Migrate creates the cache tables if they don't exist.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.CacheRecord{}); err != nil {
		return fmt.Errorf("migrate cache database: %w", err)
	}
	return nil
}
