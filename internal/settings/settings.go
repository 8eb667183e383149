// Package settings hosts the single user-preferences record as a
// one-element collection atop the generic Storage Substrate.
package settings

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/quillbar/launchcore/internal/storage"
)

// Settings is the sole persisted record: user-facing preferences that
// don't belong to any one subsystem.
type Settings struct {
	Theme         string `json:"theme"`
	Hotkey        string `json:"hotkey"`
	MaxResults    int    `json:"max_results"`
	LaunchAtLogin bool   `json:"launch_at_login"`
}

// defaults are applied whenever the store is empty.
var defaults = Settings{
	Theme:         "system",
	Hotkey:        "cmd+space",
	MaxResults:    10,
	LaunchAtLogin: false,
}

// Store wraps a Storage collection constrained to hold at most one
// Settings record.
type Store struct {
	backing *storage.Store[Settings]
}

// Open loads (or creates) the settings record at path.
func Open(path string, log hclog.Logger) (*Store, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	s, err := storage.New[Settings](path, storage.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("settings: open: %w", err)
	}
	return &Store{backing: s}, nil
}

// Get returns the current settings, or defaults if none have been saved.
func (s *Store) Get() Settings {
	all := s.backing.GetAll()
	if len(all) == 0 {
		return defaults
	}
	return all[0]
}

// Set replaces the sole settings record and saves synchronously.
func (s *Store) Set(next Settings) error {
	s.backing.Update(func([]Settings) ([]Settings, bool) {
		return []Settings{next}, true
	})
	return nil
}
