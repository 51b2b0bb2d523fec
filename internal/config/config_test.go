package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestTestingDefaults(t *testing.T) {
	cfg := Testing()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 24, cfg.Server.JWTExpirationHours)
	assert.Equal(t, "deskhubadmin", cfg.Defaults.AdminUsername)
	assert.Equal(t, 30, cfg.Defaults.CalibrationWindowDays)
	assert.False(t, cfg.Server.AuthRequired)
	assert.False(t, cfg.Mail.Enabled())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", User: "u", Password: "p", Name: "deskhub", Port: "5432", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=deskhub port=5432 sslmode=disable TimeZone=UTC", d.DSN())

	d.URL = "postgres://u:p@db/deskhub"
	assert.Equal(t, "postgres://u:p@db/deskhub", d.DSN())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"hr@example.com", "boss@example.com"}, splitList(" hr@example.com, ,boss@example.com "))
	assert.Nil(t, splitList(""))
}

func TestFromViperReadsEnvKeys(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("JWT_SECRET", "s3cret")
	v.Set("AUTH_REQUIRED", "true")
	v.Set("DB_DRIVER", "SQLite")
	v.Set("SMTP_HOST", "smtp.example.com")
	v.Set("SMTP_TO", "hr@example.com")
	v.Set("SMTP_INSECURE_TLS", "1")
	v.Set("SHEETS_SPREADSHEET_ID", "sheet-1")
	v.Set("ADMIN_PASSWORD", "pw")
	v.Set("CALIBRATION_WINDOW_DAYS", "14")

	cfg := fromViper(v)

	assert.Equal(t, "s3cret", cfg.Server.JWTSecret)
	assert.True(t, cfg.Server.AuthRequired)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Mail.Enabled())
	assert.True(t, cfg.Mail.InsecureTLS)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "sheet-1", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, "Forms", cfg.Sheets.SheetName)
	assert.Equal(t, "pw", cfg.Defaults.AdminPassword)
	assert.Equal(t, 14, cfg.Defaults.CalibrationWindowDays)
}
