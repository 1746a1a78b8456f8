// Package file provides a file-based config.Store: configuration persisted
// as a JSON envelope, written atomically via temp-file-then-rename.
// Grounded on the teacher's internal/config/file.Store, trading its
// user-management concerns (out of scope here, spec §1 Non-goal:
// authentication/authorization/quotas) for the bare Config shape.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"distfs/internal/config"
)

const currentVersion = 1

type envelope struct {
	Version int            `json:"version"`
	Config  *config.Config `json:"config"`
}

// Store is a file-based config.Store.
type Store struct {
	path string
}

var _ config.Store = (*Store)(nil)

// NewStore creates a Store backed by the JSON file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads and parses the config file. Returns nil, nil if the file does
// not exist yet.
func (s *Store) Load(_ context.Context) (*config.Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return env.Config, nil
}

// Save writes cfg to disk atomically: write to a temp file in the same
// directory, then rename over the target, so a crash mid-write never
// leaves a truncated config file in place.
func (s *Store) Save(_ context.Context, cfg *config.Config) error {
	env := envelope{Version: currentVersion, Config: cfg}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".config-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp config file: %w", err)
	}
	return nil
}
