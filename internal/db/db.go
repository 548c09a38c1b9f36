package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory node store.
const MemoryPath = ":memory:"

// connPragmas must hold on every connection: freeze edges, transfer items
// and projections rely on ON DELETE CASCADE when a subtree is removed.
var connPragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// OpenDB opens the node store at path and brings its schema up to date.
// An in-memory store is limited to one connection so every caller sees the
// same database.
func OpenDB(path string) (*sql.DB, error) {
	memory := path == MemoryPath
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, memory))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := checkForeignKeys(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func dsn(path string, memory bool) string {
	pragmas := connPragmas
	if !memory {
		pragmas = append(append([]string(nil), connPragmas...), "journal_mode(WAL)")
	}
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

func checkForeignKeys(db *sql.DB) error {
	var on int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&on); err != nil {
		return fmt.Errorf("reading foreign_keys pragma: %w", err)
	}
	if on != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled; subtree deletes would leave orphans")
	}
	return nil
}
