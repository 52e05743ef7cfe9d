package client

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// State manages client-side persistent state
type State struct {
	db  *sql.DB
	dir string // Directory where state is stored
}

// OpenState opens or creates the client state database
func OpenState(path string) (*State, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	// One writer is all the client needs
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &State{db: db, dir: dir}, nil
}

// migrations are applied in order; the index+1 is the schema version
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS Config (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Drafts (
		room_id    TEXT PRIMARY KEY,
		content    TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
}

func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS SchemaVersion (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema version table: %w", err)
	}

	var version int
	err := db.QueryRow(`SELECT version FROM SchemaVersion LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		if _, err := db.Exec(`INSERT INTO SchemaVersion (version) VALUES (0)`); err != nil {
			return fmt.Errorf("failed to seed schema version: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(`UPDATE SchemaVersion SET version = ?`, i+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

// Close closes the state database
func (s *State) Close() error {
	return s.db.Close()
}

// GetConfig retrieves a configuration value
func (s *State) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM Config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetConfig stores a configuration value
func (s *State) SetConfig(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO Config (key, value) VALUES (?, ?)`, key, value)
	return err
}

// GetLastRoomID returns the room that was active when the client last quit
func (s *State) GetLastRoomID() string {
	roomID, _ := s.GetConfig("last_room_id")
	return roomID
}

// SetLastRoomID remembers the active room; empty clears it
func (s *State) SetLastRoomID(roomID string) error {
	return s.SetConfig("last_room_id", roomID)
}

// GetDraft returns the unsent composer text for a room
func (s *State) GetDraft(roomID string) (string, error) {
	var content string
	err := s.db.QueryRow(`SELECT content FROM Drafts WHERE room_id = ?`, roomID).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return content, err
}

// SaveDraft stores the composer text for a room. Blank content deletes the draft.
func (s *State) SaveDraft(roomID, content string) error {
	if content == "" {
		_, err := s.db.Exec(`DELETE FROM Drafts WHERE room_id = ?`, roomID)
		return err
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO Drafts (room_id, content, updated_at) VALUES (?, ?, ?)
	`, roomID, content, time.Now().Unix())
	return err
}

// GetStateDir returns the directory where state is stored
func (s *State) GetStateDir() string {
	return s.dir
}
