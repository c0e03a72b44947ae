package pool

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists class files in a SQLite database, serving them back
// as a pool source. Agents use it to keep generated classes across
// process restarts.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenStore opens or creates a store at the given path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("pool: opening store: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pool: setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS class_files (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("pool: creating table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores class file bytes under a name, replacing any prior entry.
func (s *Store) Put(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO class_files (name, data) VALUES (?, ?)",
		name, data)
	if err != nil {
		return fmt.Errorf("pool: storing %s: %w", name, err)
	}
	return nil
}

// ClassFile reads the bytes stored under a name.
func (s *Store) ClassFile(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow(
		"SELECT data FROM class_files WHERE name = ?", name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrClassFileNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("pool: reading %s: %w", name, err)
	}
	return data, nil
}

// Delete removes the entry stored under a name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM class_files WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("pool: deleting %s: %w", name, err)
	}
	return nil
}

// Names lists the stored class names in sorted order.
func (s *Store) Names() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT name FROM class_files ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("pool: listing: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("pool: listing: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
