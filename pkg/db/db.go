package db

import (
	"strings"
	"sync"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/pkg/env"
	"github.com/caesium-cloud/cimon/pkg/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	conn     *gorm.DB
	connOnce sync.Once
)

// Connection returns the process-wide database handle, opening it on first use.
func Connection() *gorm.DB {
	connOnce.Do(func() {
		gdb, err := Open(env.Variables().DatabaseType, env.Variables().DatabaseDSN)
		if err != nil {
			log.Fatal("failed to connect to database", "error", err)
		}
		conn = gdb
	})

	return conn
}

// Open connects to the configured database type.
func Open(databaseType, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	switch strings.ToLower(databaseType) {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	case "sqlite", "":
		gdb, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, err
		}
		return gdb, nil
	default:
		return nil, &UnsupportedError{Type: databaseType}
	}
}

// Migrate applies the schema for every model.
func Migrate() error {
	return MigrateDB(Connection())
}

// MigrateDB applies the schema to the supplied handle.
func MigrateDB(gdb *gorm.DB) error {
	return gdb.AutoMigrate(models.All...)
}

// UnsupportedError is returned for unknown database types.
type UnsupportedError struct {
	Type string
}

func (e *UnsupportedError) Error() string {
	return "unsupported database type: " + e.Type
}
