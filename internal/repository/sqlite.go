package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opensource-health/centinela/internal/domain"
	_ "modernc.org/sqlite"
)

// sqlitePragmas tunes the embedded store for the audit workload: WAL so
// claim and audit-history reads don't block audit writes, and a busy
// timeout long enough to ride out a burst of concurrent saves.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
	"foreign_keys(ON)",
}

// openSQLite opens the embedded store used by single-node deployments.
// modernc.org/sqlite is pure Go, so the binary ships without CGO.
func openSQLite(cfg domain.RepositoryConfig) (*sql.DB, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = "./centinela.db"
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	var dsn strings.Builder
	dsn.WriteString("file:")
	dsn.WriteString(path)
	for i, pragma := range sqlitePragmas {
		if i == 0 {
			dsn.WriteString("?_pragma=")
		} else {
			dsn.WriteString("&_pragma=")
		}
		dsn.WriteString(pragma)
	}

	db, err := sql.Open("sqlite", dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY churn
	// when audits and rule edits land at the same time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return db, nil
}
