package database

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

// DB is the global database instance
var DB *gorm.DB

// InitDB initializes the database connection and performs migrations
func InitDB() (*gorm.DB, error) {
	// Get database connection parameters from environment variables
	host := getEnv("DB_HOST", "")
	port := getEnv("DB_PORT", "")
	user := getEnv("DB_USER", "")
	password := getEnv("DB_PASSWORD", "")
	dbname := getEnv("DB_NAME", "")
	sslmode := getEnv("DB_SSLMODE", "disable")

	// Validate required environment variables
	if host == "" || port == "" || user == "" || password == "" || dbname == "" {
		return nil, fmt.Errorf("missing required database environment variables. Please check your .env file")
	}

	// Create DSN string
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	// Configure GORM logger
	gormLogger := logger.New(
		logrus.New(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// Open database connection
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Enable UUID generation
	err = db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
	if err != nil {
		return nil, fmt.Errorf("failed to enable UUID extension: %w", err)
	}

	// Auto migrate the schema. IVRFlow before IVRNode and Campaign before
	// CallSchedule so foreign keys resolve in order.
	err = db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.AudioFile{},
		&models.ContactGroup{},
		&models.Contact{},
		&models.IVRFlow{},
		&models.IVRNode{},
		&models.Campaign{},
		&models.Device{},
		&models.CallSchedule{},
		&models.CallLog{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Migration: earlier deployments predate the entry_node_key column
	var entryKeyColumnExists bool
	err = db.Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.columns
			WHERE table_name = 'ivr_flows'
			AND column_name = 'entry_node_key'
		)
	`).Scan(&entryKeyColumnExists).Error
	if err != nil {
		logrus.Warnf("Failed to check if entry_node_key column exists: %v", err)
	} else if !entryKeyColumnExists {
		logrus.Info("Adding entry_node_key column to ivr_flows table...")
		err = db.Exec("ALTER TABLE ivr_flows ADD COLUMN IF NOT EXISTS entry_node_key VARCHAR(255)").Error
		if err != nil {
			logrus.Warnf("Failed to add entry_node_key column: %v", err)
		}
	}

	// Migration: ensure the per-flow node key uniqueness index exists even on
	// databases migrated before it was declared on the model
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ivr_nodes_flow_key
		ON ivr_nodes(flow_id, node_key)
	`).Error
	if err != nil {
		logrus.Warnf("Failed to create unique index on ivr_nodes(flow_id, node_key): %v", err)
	}

	// Set global DB instance
	DB = db

	logrus.Info("Database connection established and migrations completed")
	return db, nil
}

// GetDB returns the global database instance
func GetDB() *gorm.DB {
	return DB
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
