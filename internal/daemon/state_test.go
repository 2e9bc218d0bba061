package daemon

import (
	"os"
	"testing"
	"time"
)

func TestStateRoundTrip(t *testing.T) {
	t.Setenv("PILOT_HOME", t.TempDir())

	want := State{
		PID:       4321,
		Port:      8787,
		AgentID:   "pilot-dev",
		Version:   "1.2.3",
		StartedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := SaveState(want); err != nil {
		t.Fatalf("SaveState error: %v", err)
	}

	got, err := LoadState()
	if err != nil {
		t.Fatalf("LoadState error: %v", err)
	}
	if got != want {
		t.Errorf("LoadState = %+v, want %+v", got, want)
	}
}

func TestLoadState_Missing(t *testing.T) {
	t.Setenv("PILOT_HOME", t.TempDir())

	if _, err := LoadState(); err == nil {
		t.Error("expected error when state file is missing")
	}
}

func TestLoadState_Corrupt(t *testing.T) {
	t.Setenv("PILOT_HOME", t.TempDir())

	if err := os.WriteFile(StatePath(), []byte("{not json"), 0644); err != nil {
		t.Fatalf("writing corrupt state: %v", err)
	}
	if _, err := LoadState(); err == nil {
		t.Error("expected error for corrupt state file")
	}
}

func TestRemoveState(t *testing.T) {
	t.Setenv("PILOT_HOME", t.TempDir())

	if err := SaveState(State{PID: 1}); err != nil {
		t.Fatalf("SaveState error: %v", err)
	}
	if err := RemoveState(); err != nil {
		t.Fatalf("RemoveState error: %v", err)
	}
	if _, err := os.Stat(StatePath()); !os.IsNotExist(err) {
		t.Error("state file still present after RemoveState")
	}

	// Removing again is not an error.
	if err := RemoveState(); err != nil {
		t.Errorf("RemoveState on missing file: %v", err)
	}
}
