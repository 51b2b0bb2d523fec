package database

import (
	"testing"

	"deskhub/internal/config"
	"deskhub/internal/model"
	"deskhub/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSeedsAdminOnEmptyDatabase(t *testing.T) {
	OpenTestDB()
	defer CleanTestDB()

	err := Migrate(DB, config.DefaultsConfig{AdminUsername: "deskhubadmin", AdminPassword: "admin123"})
	require.NoError(t, err)

	var admin model.User
	require.NoError(t, DB.Where("username = ?", "deskhubadmin").First(&admin).Error)
	assert.Equal(t, model.RoleSuperAdmin, admin.Role)
	assert.True(t, admin.IsActive)
	assert.True(t, util.CheckPassword(admin.PasswordHash, "admin123"))

	for _, m := range Models {
		assert.True(t, DB.Migrator().HasTable(m))
	}
}

func TestMigrateLeavesExistingUsersTableAlone(t *testing.T) {
	OpenTestDB()
	defer CleanTestDB()

	require.NoError(t, DB.Exec(`CREATE TABLE users (user_id integer primary key, user_name text, mail text)`).Error)

	err := Migrate(DB, config.DefaultsConfig{AdminUsername: "deskhubadmin", AdminPassword: "admin123"})
	require.NoError(t, err)

	cols, err := DB.Migrator().ColumnTypes("users")
	require.NoError(t, err)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	assert.ElementsMatch(t, []string{"user_id", "user_name", "mail"}, names)

	var count int64
	require.NoError(t, DB.Table("users").Count(&count).Error)
	assert.Zero(t, count)
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	_, err := dialector(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
