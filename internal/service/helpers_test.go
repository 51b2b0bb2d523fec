package service

import (
	"testing"

	"deskhub/internal/config"
	"deskhub/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	database.InitTestDB()
	t.Cleanup(database.CleanTestDB)
	return database.DB
}

// setupDriftedDB creates users with the given DDL before migrating the
// application tables, so the users table is left as declared.
func setupDriftedDB(t *testing.T, usersDDL string) *gorm.DB {
	t.Helper()
	database.OpenTestDB()
	t.Cleanup(database.CleanTestDB)
	require.NoError(t, database.DB.Exec(usersDDL).Error)
	require.NoError(t, database.Migrate(database.DB, config.DefaultsConfig{}))
	return database.DB
}

func strPtr(s string) *string { return &s }
