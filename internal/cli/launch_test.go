package cli

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/pilotlabs/pilot/internal/daemon"
)

func TestPlaywrightLaunch(t *testing.T) {
	gate := &fakeGatekeeper{running: true}
	cl := &fakeClient{payload: json.RawMessage(`{"ok":true,"status":"warmed","agent":{"id":"pilot-2b4c6d8e"}}`)}
	withFakes(t, gate, cl)

	out, err := execute(t, "playwright-launch")
	if err != nil {
		t.Fatalf("playwright-launch error: %v", err)
	}

	if gate.isRunningCalls != 1 {
		t.Errorf("gate probed %d times, want 1", gate.isRunningCalls)
	}
	if cl.lastPath != "/playwright/launch" || cl.lastMethod != http.MethodPost {
		t.Errorf("request = %s %s, want POST /playwright/launch", cl.lastMethod, cl.lastPath)
	}
	if cl.lastBody != nil {
		t.Errorf("launch request body = %v, want none", cl.lastBody)
	}

	// Output is the daemon's response, indented.
	if !strings.Contains(out, "\"status\": \"warmed\"") {
		t.Errorf("output not indented JSON; got:\n%s", out)
	}
}

func TestPlaywrightLaunch_GateBlocksWithoutDaemon(t *testing.T) {
	gate := &fakeGatekeeper{running: false}
	cl := &fakeClient{}
	withFakes(t, gate, cl)

	_, err := execute(t, "playwright-launch")
	var notRunning *daemon.NotRunningError
	if !errors.As(err, &notRunning) {
		t.Fatalf("expected *daemon.NotRunningError, got %T: %v", err, err)
	}
	if cl.calls != 0 {
		t.Errorf("no request may be issued when the gate fails; got %d calls", cl.calls)
	}
}
