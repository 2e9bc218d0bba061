package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/pilotlabs/pilot/internal/daemon"
	"github.com/pilotlabs/pilot/internal/run"
)

func TestActivate_PrintsAgentIdentity(t *testing.T) {
	gate := &fakeGatekeeper{health: daemon.Health{
		OK:      true,
		Agent:   run.Agent{ID: "pilot-7f3a91c2"},
		Version: "1.2.3",
	}}
	withFakes(t, gate, &fakeClient{})

	out, err := execute(t, "activate")
	if err != nil {
		t.Fatalf("activate error: %v", err)
	}
	if gate.ensureCalls != 1 {
		t.Errorf("Ensure called %d times, want 1", gate.ensureCalls)
	}
	if !strings.Contains(out, "pilot-7f3a91c2") {
		t.Errorf("output missing agent id; got:\n%s", out)
	}
	if !strings.Contains(out, "1.2.3") {
		t.Errorf("output missing daemon version; got:\n%s", out)
	}
}

func TestActivate_Idempotent(t *testing.T) {
	gate := &fakeGatekeeper{health: daemon.Health{Agent: run.Agent{ID: "pilot-aaaa0000"}}}
	withFakes(t, gate, &fakeClient{})

	if _, err := execute(t, "activate"); err != nil {
		t.Fatalf("first activate error: %v", err)
	}
	if _, err := execute(t, "activate"); err != nil {
		t.Fatalf("second activate error: %v", err)
	}
	if gate.ensureCalls != 2 {
		t.Errorf("Ensure called %d times, want one call per invocation", gate.ensureCalls)
	}
}

func TestActivate_StartFailure(t *testing.T) {
	cause := errors.New("executable not found")
	gate := &fakeGatekeeper{ensureErr: &daemon.StartError{Err: cause}}
	withFakes(t, gate, &fakeClient{})

	_, err := execute(t, "activate")
	var startErr *daemon.StartError
	if !errors.As(err, &startErr) {
		t.Fatalf("expected *daemon.StartError, got %T: %v", err, err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("StartError should wrap its cause")
	}
}
