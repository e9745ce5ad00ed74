// Package statefile persists the daemon's latest canonical media state
// to disk so other commands can read it without talking to the daemon.
package statefile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kwarren/resonance/internal/state"
)

// persisted is the JSON representation written to disk.
type persisted struct {
	State     state.MediaState `json:"state"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// File writes the latest media state atomically via temp file + rename.
type File struct {
	mu   sync.Mutex
	path string
}

func New(path string) *File {
	return &File{path: path}
}

// Write persists st, replacing any previous state.
func (f *File) Write(st state.MediaState) error {
	if f.path == "" {
		return nil // no persistence configured
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(persisted{State: st, UpdatedAt: time.Now()}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, f.path)
}

// Remove deletes the state file. Missing files are not an error.
func (f *File) Remove() error {
	if f.path == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Read loads the persisted state from path. The second return value
// reports whether a state file was present at all.
func Read(path string) (state.MediaState, time.Time, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return state.MediaState{}, time.Time{}, false, nil
	}
	if err != nil {
		return state.MediaState{}, time.Time{}, false, err
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return state.MediaState{}, time.Time{}, false, err
	}

	return p.State, p.UpdatedAt, true, nil
}
