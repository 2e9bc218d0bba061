package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pilotlabs/pilot/internal/config"
)

// State is what a booting daemon records about itself. The daemon process
// writes it once its listener is up and removes it on graceful shutdown;
// the supervisor only ever reads it.
type State struct {
	PID       int       `json:"pid"`
	Port      int       `json:"port"`
	AgentID   string    `json:"agent_id"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
}

// StatePath returns the location of the daemon state file.
func StatePath() string {
	return filepath.Join(config.Dir(), "daemon.json")
}

// LogPath returns the file a background daemon logs to.
func LogPath() string {
	return filepath.Join(config.Dir(), "daemon.log")
}

// LoadState reads the daemon state file.
func LoadState() (State, error) {
	data, err := os.ReadFile(StatePath())
	if err != nil {
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("parsing %s: %w", StatePath(), err)
	}
	return st, nil
}

// SaveState writes the daemon state file, creating the home directory if
// needed.
func SaveState(st State) error {
	if err := config.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding daemon state: %w", err)
	}
	if err := os.WriteFile(StatePath(), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", StatePath(), err)
	}
	return nil
}

// RemoveState deletes the state file. A missing file is not an error.
func RemoveState() error {
	err := os.Remove(StatePath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
