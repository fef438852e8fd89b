package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tkao/creatorlens/internal/config"
	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/logger"
)

// InitDB opens the relational store and migrates the pipeline tables.
// SQLite is the default driver so a single-binary setup needs no external
// database; postgres is used for shared deployments.
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		db, err = openPostgres(cfg, gormCfg)
	case "sqlite", "":
		db, err = openSQLite(cfg, gormCfg)
	default:
		logger.Default().Warnf("unknown database driver %q, falling back to sqlite", cfg.Driver)
		db, err = openSQLite(cfg, gormCfg)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(
			&domain.Video{},
			&domain.GeneratedScript{},
			&IndexMeta{},
		); err != nil {
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}
	return db, nil
}

func openPostgres(cfg *config.DatabaseConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	// Simple protocol keeps transaction poolers happy, they reject
	// implicit prepared statements.
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

func openSQLite(cfg *config.DatabaseConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	// WAL lets the API read while the worker writes.
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA foreign_keys=ON")
	return db, nil
}
