// Package dbtest opens throwaway sqlite databases for repository tests.
package dbtest

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/neumaticos/tirestore/pkg/db/models"
)

// Open returns an in-memory database with every model migrated. The pool is
// pinned to one connection so all statements see the same memory database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}
