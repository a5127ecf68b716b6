// Package store provides SQLite persistence for local preferences.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/snooze/internal/model"
)

// Preference keys.
const (
	KeyHidden   = "hidden"
	KeyUsername = "username"
	KeyToken    = "token"
)

// Store is a small key/value table. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Named shared-cache database: pooled connections see the same data,
		// separate Opens do not.
		connStr = fmt.Sprintf("file:snooze-%s?mode=memory&cache=shared", uuid.NewString())
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Get returns the value stored under key. ok is false when the key is absent.
// Thread-safe: acquires read lock.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(key)
}

func (s *Store) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, overwriting any previous value.
// Thread-safe: acquires write lock.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(s.db, key, value)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) set(db execer, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
// Thread-safe: acquires write lock.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM prefs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// LoadHidden returns the persisted hidden stories. An absent key yields an
// empty, non-nil slice.
// Thread-safe: acquires read lock.
func (s *Store) LoadHidden() ([]model.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok, err := s.get(KeyHidden)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []model.Story{}, nil
	}

	var stories []model.Story
	if err := json.Unmarshal([]byte(raw), &stories); err != nil {
		return nil, fmt.Errorf("decode hidden: %w", err)
	}
	return model.Clone(stories), nil
}

// SaveHidden overwrites the hidden list.
// Thread-safe: acquires write lock.
func (s *Store) SaveHidden(stories []model.Story) error {
	data, err := json.Marshal(model.Clone(stories))
	if err != nil {
		return fmt.Errorf("encode hidden: %w", err)
	}
	return s.Set(KeyHidden, string(data))
}

// Credentials returns the persisted login. Both are empty when nobody is
// logged in.
// Thread-safe: acquires read lock.
func (s *Store) Credentials() (username, token string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username, _, err = s.get(KeyUsername)
	if err != nil {
		return "", "", err
	}
	token, _, err = s.get(KeyToken)
	if err != nil {
		return "", "", err
	}
	return username, token, nil
}

// SaveCredentials persists username and token together.
// Thread-safe: acquires write lock.
func (s *Store) SaveCredentials(username, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := s.set(tx, KeyUsername, username); err != nil {
		return err
	}
	if err := s.set(tx, KeyToken, token); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearCredentials forgets the persisted login. Hidden stories are kept.
// Thread-safe: acquires write lock.
func (s *Store) ClearCredentials() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM prefs WHERE key IN (?, ?)`, KeyUsername, KeyToken); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
