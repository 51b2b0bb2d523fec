package database

import (
	"fmt"
	"sync/atomic"

	"deskhub/internal/config"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

// InitTestDB points DB at a fresh in-memory sqlite database with every
// table migrated, including the canonical users table.
func InitTestDB() {
	OpenTestDB()
	if err := Migrate(DB, config.DefaultsConfig{}); err != nil {
		panic("failed to migrate test database: " + err.Error())
	}
}

// OpenTestDB points DB at a fresh, empty in-memory sqlite database.
func OpenTestDB() {
	name := fmt.Sprintf("file:deskhub_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		panic("failed to connect test database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		panic("failed to open test database pool")
	}
	// One connection keeps the shared in-memory database free of lock contention.
	sqlDB.SetMaxOpenConns(1)
	DB = db
}

func CleanTestDB() {
	sqlDB, err := DB.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
}
