// Package cache stores compiled chunks in SQLite, keyed by a hash of the
// source text they were compiled from.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/chazu/clox/vm"
)

// Cache is a chunk store backed by a SQLite database file.
type Cache struct {
	db     *sql.DB
	dbPath string
	log    *logrus.Entry
	mu     sync.Mutex
}

// Open opens (creating if needed) the cache database at dbPath.
func Open(dbPath string) (*Cache, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		hash TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Cache{
		db:     db,
		dbPath: dbPath,
		log:    logrus.WithFields(logrus.Fields{"component": "cache", "path": dbPath}),
	}, nil
}

// Key returns the hex SHA-256 of source.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the chunk compiled from source. A row that no longer decodes,
// for example one written by an incompatible version, is dropped and
// reported as a miss.
func (c *Cache) Get(source string) (*vm.Chunk, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(source)
	var data []byte
	err := c.db.QueryRow("SELECT data FROM chunks WHERE hash = ?", key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying chunk: %w", err)
	}

	chunk, err := vm.UnmarshalChunk(data)
	if err != nil {
		c.log.WithError(err).WithField("hash", key).Debug("dropping undecodable chunk")
		if _, err := c.db.Exec("DELETE FROM chunks WHERE hash = ?", key); err != nil {
			return nil, false, fmt.Errorf("deleting chunk: %w", err)
		}
		return nil, false, nil
	}
	return chunk, true, nil
}

// Put stores chunk under the hash of source, replacing any previous entry.
func (c *Cache) Put(source string, chunk *vm.Chunk) error {
	data, err := vm.MarshalChunk(chunk)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO chunks (hash, data, created_at) VALUES (?, ?, ?)",
		Key(source), data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}
	return nil
}

// Len returns the number of cached chunks.
func (c *Cache) Len() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Clear removes every cached chunk.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec("DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	return nil
}
