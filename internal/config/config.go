package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Mail     MailConfig
	Sheets   SheetsConfig
	Defaults DefaultsConfig
}

type ServerConfig struct {
	Port               string
	Env                string
	JWTSecret          string
	JWTExpirationHours int
	AuthRequired       bool
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	URL      string
	Path     string
}

type MailConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	From        string
	To          []string
	InsecureTLS bool
}

type SheetsConfig struct {
	Enabled        bool
	CredentialPath string
	SpreadsheetID  string
	SheetName      string
}

type DefaultsConfig struct {
	AdminUsername         string
	AdminPassword         string
	CalibrationWindowDays int
}

var AppConfig *Config

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && len(m.To) > 0
}

// DSN builds a postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("SERVER_ENV", "dev")
	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "deskhub")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "data/deskhub.db")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SHEETS_SHEET_NAME", "Forms")
	v.SetDefault("ADMIN_USERNAME", "deskhubadmin")
	v.SetDefault("CALIBRATION_WINDOW_DAYS", 30)
}

// LoadConfig reads .env (if present) and the process environment into AppConfig.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: .env not readable by viper: %v", err)
	}
	v.AutomaticEnv()
	v.BindEnv("SERVER_PORT", "PORT")
	setDefaults(v)

	AppConfig = fromViper(v)

	log.Printf("Configuration loaded: env=%s port=%s db_driver=%s auth_required=%t mail=%t sheets=%t",
		AppConfig.Server.Env, AppConfig.Server.Port, AppConfig.Database.Driver,
		AppConfig.Server.AuthRequired, AppConfig.Mail.Enabled(), AppConfig.Sheets.Enabled)
	return AppConfig
}

// fromViper maps the flat environment keys onto Config.
func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:               v.GetString("SERVER_PORT"),
			Env:                v.GetString("SERVER_ENV"),
			JWTSecret:          v.GetString("JWT_SECRET"),
			JWTExpirationHours: v.GetInt("JWT_EXPIRATION_HOURS"),
			AuthRequired:       v.GetBool("AUTH_REQUIRED"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			URL:      v.GetString("DATABASE_URL"),
			Path:     v.GetString("DB_PATH"),
		},
		Mail: MailConfig{
			Host:        v.GetString("SMTP_HOST"),
			Port:        v.GetInt("SMTP_PORT"),
			User:        v.GetString("SMTP_USER"),
			Password:    v.GetString("SMTP_PASSWORD"),
			From:        v.GetString("SMTP_FROM"),
			To:          splitList(v.GetString("SMTP_TO")),
			InsecureTLS: v.GetBool("SMTP_INSECURE_TLS"),
		},
		Sheets: SheetsConfig{
			Enabled:        v.GetBool("SHEETS_ENABLED"),
			CredentialPath: v.GetString("SHEETS_CREDENTIALS"),
			SpreadsheetID:  v.GetString("SHEETS_SPREADSHEET_ID"),
			SheetName:      v.GetString("SHEETS_SHEET_NAME"),
		},
		Defaults: DefaultsConfig{
			AdminUsername:         v.GetString("ADMIN_USERNAME"),
			AdminPassword:         v.GetString("ADMIN_PASSWORD"),
			CalibrationWindowDays: v.GetInt("CALIBRATION_WINDOW_DAYS"),
		},
	}
}

// Testing returns a configuration suitable for tests: sqlite, no mail, no sheets.
func Testing() *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("SERVER_ENV", "test")
	v.Set("DB_DRIVER", "sqlite")
	v.Set("JWT_SECRET", "test-secret")
	return fromViper(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
