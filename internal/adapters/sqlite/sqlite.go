// Package sqlite provides the SQLite connection backing the operation journal.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Connection manages the SQLite database connection.
type Connection struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewConnection creates a new SQLite connection.
// If dbPath is empty, it uses the default location: ~/.deskflip/history.db
func NewConnection(dbPath string) (*Connection, error) {
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, ".deskflip", "history.db")
	}

	return &Connection{dbPath: dbPath}, nil
}

// Open opens the journal, creating its directory and bringing the schema
// up to date.
func (c *Connection) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return fmt.Errorf("database already open")
	}

	if c.dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(c.dbPath), 0755); err != nil {
			return fmt.Errorf("could not create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(c.dbPath))
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}

	// One connection: the journal is written from a single process and an
	// in-memory database is per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("could not ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return fmt.Errorf("could not migrate journal schema: %w", err)
	}

	c.db = db
	return nil
}

// Close closes the database connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("could not close database: %w", err)
	}

	c.db = nil
	return nil
}

// DB returns the underlying database connection.
func (c *Connection) DB() (*sql.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return nil, fmt.Errorf("database not open")
	}
	return c.db, nil
}

// Path returns the database file path.
func (c *Connection) Path() string {
	return c.dbPath
}

// dsn adds a busy timeout so a CLI command and a running serve process can
// share the file. File databases use WAL.
func dsn(path string) string {
	if path == ":memory:" {
		return path + "?_busy_timeout=5000"
	}
	return "file:" + filepath.ToSlash(path) + "?_busy_timeout=5000&_journal_mode=WAL"
}
