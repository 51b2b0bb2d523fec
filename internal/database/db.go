package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"deskhub/internal/config"
	"deskhub/internal/model"
	"deskhub/internal/util"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Models owned by AutoMigrate. The users table is deliberately absent.
var Models = []interface{}{
	&model.Item{},
	&model.EquipmentModel{},
	&model.Unit{},
	&model.InventoryMovement{},
	&model.Project{},
	&model.FormRecord{},
	&model.CalendarEvent{},
	&model.OperationLog{},
	&model.LoginLog{},
}

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// Open connects using cfg and configures the pool.
func Open(cfg *config.Config) (*gorm.DB, error) {
	d, err := dialector(cfg.Database)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if cfg.Server.Env == "dev" {
		level = logger.Info
	}
	db, err := gorm.Open(d, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Migrate creates or updates the application tables, creates the users table
// when it does not exist, and seeds the configured admin account.
func Migrate(db *gorm.DB, defaults config.DefaultsConfig) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("migrating tables: %w", err)
	}
	if err := bootstrapUsers(db, defaults); err != nil {
		return fmt.Errorf("bootstrapping users: %w", err)
	}
	return nil
}

func bootstrapUsers(db *gorm.DB, defaults config.DefaultsConfig) error {
	if db.Migrator().HasTable(&model.User{}) {
		return nil
	}
	if err := db.Migrator().CreateTable(&model.User{}); err != nil {
		return err
	}
	log.Println("Created users table")

	if defaults.AdminUsername == "" || defaults.AdminPassword == "" {
		log.Println("Warning: ADMIN_PASSWORD not set, no admin account seeded")
		return nil
	}
	hash, err := util.HashPassword(defaults.AdminPassword)
	if err != nil {
		return err
	}
	admin := &model.User{
		Username:     defaults.AdminUsername,
		PasswordHash: hash,
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}
	log.Printf("Seeded admin account %q", defaults.AdminUsername)
	return nil
}

// InitDB opens the database, migrates it and stores it in DB.
func InitDB(cfg *config.Config) {
	db, err := Open(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if err := Migrate(db, cfg.Defaults); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}
	DB = db
	log.Printf("Database ready (driver=%s)", cfg.Database.Driver)
}
