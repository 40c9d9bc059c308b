// Package cache stores compiled program artifacts in SQLite, keyed by
// source hash, so unchanged sources skip the optimizer on later runs.
package cache

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/chazu/brainfrick/compiler"
)

// ErrMiss indicates the requested program is not in the cache
var ErrMiss = errors.New("cache miss")

// Cache handles SQLite storage for compiled programs
type Cache struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if needed) the cache database at the given path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// Set busy timeout for concurrent access
	_, err = db.Exec("PRAGMA busy_timeout = 5000")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		source_hash TEXT PRIMARY KEY,
		artifact BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Cache{db: db, path: path}, nil
}

// Close closes the database connection
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Put stores a compiled program, replacing any previous artifact for the
// same source.
func (c *Cache) Put(prog *compiler.Program) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := prog.Serialize()
	if err != nil {
		return err
	}

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO programs (source_hash, artifact) VALUES (?, ?)",
		hex.EncodeToString(prog.SourceHash[:]), data,
	)
	if err != nil {
		return fmt.Errorf("saving program: %w", err)
	}

	return nil
}

// Get retrieves the compiled program for the given source hash. Returns
// ErrMiss if no artifact is stored, or the deserialization error if the
// stored artifact is corrupt.
func (c *Cache) Get(sourceHash [32]byte) (*compiler.Program, error) {
	var data []byte
	err := c.db.QueryRow(
		"SELECT artifact FROM programs WHERE source_hash = ?",
		hex.EncodeToString(sourceHash[:]),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("querying program: %w", err)
	}

	return compiler.Deserialize(data)
}

// Len reports the number of cached programs.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM programs").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting programs: %w", err)
	}
	return n, nil
}
