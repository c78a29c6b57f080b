package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skylark/opscommand/internal/logging"
	gormModels "skylark/opscommand/internal/models/gorm"
)

// InitPostgresORM opens gorm on top of an existing sqlx pool so both share connections
func InitPostgresORM(conn *sqlx.DB) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn.DB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	logging.Info("Connected to Postgres via GORM")
	return db, nil
}

// Migrate creates or updates the tables owned by this service
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&gormModels.ToolAudit{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
