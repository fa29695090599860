// Package store handles the persisted JSON database file. The lifecycle is
// deliberately explicit: Load once at run start, mutate in memory, Save once
// at run end.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bundlecache/bundlecache/pkg/types"
)

// DefaultPath is where the database lives unless configured otherwise.
const DefaultPath = "data/bundles.json"

// Store reads and writes the database file at a fixed path.
type Store struct {
	path string
}

// New creates a store for the given path, falling back to DefaultPath.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the database from disk. A missing file is not an error; it
// yields an empty database.
func (s *Store) Load() (types.Database, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return types.Database{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read database %s: %w", s.path, err)
	}

	var db types.Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("failed to parse database %s: %w", s.path, err)
	}
	if db == nil {
		db = types.Database{}
	}
	return db, nil
}

// Save writes the full database back to disk, pretty-printed so the file
// stays reviewable in version control.
func (s *Store) Save(db types.Database) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal database: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write database %s: %w", s.path, err)
	}
	return nil
}
