// Package db opens the embedded libsql database backing the SQL history store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "github.com/tursodatabase/go-libsql"
)

// LibSQLEmbeddedConfig holds configuration for embedded libsql connections
type LibSQLEmbeddedConfig struct {
	DatabasePath string // Path to .db file
}

func ConnectToDB(path string) (*sql.DB, error) {
	cfg := &LibSQLEmbeddedConfig{DatabasePath: path}
	return ConnectToDBWithConfig(cfg)
}

func ConnectToDBWithConfig(config *LibSQLEmbeddedConfig) (*sql.DB, error) {
	if config.DatabasePath == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	dir := filepath.Dir(config.DatabasePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create database directory %s: %w", dir, err)
	}

	if _, err := os.Stat(config.DatabasePath); os.IsNotExist(err) {
		log.Info().Str("path", config.DatabasePath).Msg("Database not found, creating a new one")
	}

	dsn := fmt.Sprintf("file:%s", config.DatabasePath)
	log.Debug().Str("dsn", dsn).Msg("Connecting to embedded libsql")

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql connection: %w", err)
	}
	// one writer; the history is a single small document per session
	db.SetMaxOpenConns(1)

	if err := verifyConnection(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func verifyConnection(db *sql.DB) error {
	var result int
	if err := db.QueryRowContext(context.Background(), "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("basic connectivity test failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("basic connectivity test failed: unexpected result %d", result)
	}
	return nil
}
