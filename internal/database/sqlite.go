package database

import (
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/lunchbot/internal/lunch"
	"github.com/MarcoPoloResearchLab/lunchbot/internal/users"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
// All tables are prefixed with the application namespace, mirroring the
// per-application schema isolation of the hosted record store. Models must
// not override TableName or the prefix is bypassed.
func OpenSQLite(path, namespace string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{TablePrefix: TablePrefix(namespace)},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&users.Identity{}, &lunch.Place{}, &lunch.Proposal{}); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized",
			zap.String("path", path),
			zap.String("namespace", namespace))
	}

	return db, nil
}

// TablePrefix derives the table prefix for an application namespace.
func TablePrefix(namespace string) string {
	trimmed := strings.TrimSpace(namespace)
	if trimmed == "" {
		trimmed = "_"
	}
	return fmt.Sprintf("app_%s_", trimmed)
}
