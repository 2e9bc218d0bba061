package cli

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/pilotlabs/pilot/internal/client"
	"github.com/pilotlabs/pilot/internal/daemon"
	"github.com/pilotlabs/pilot/internal/options"
	"github.com/pilotlabs/pilot/internal/run"
)

func TestStart_GateBlocksWithoutDaemon(t *testing.T) {
	gate := &fakeGatekeeper{running: false}
	cl := &fakeClient{}
	withFakes(t, gate, cl)

	_, err := execute(t, "start", "--prompt", "book a table")
	if err == nil {
		t.Fatal("expected error when daemon is down, got nil")
	}

	var notRunning *daemon.NotRunningError
	if !errors.As(err, &notRunning) {
		t.Fatalf("expected *daemon.NotRunningError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "pilot activate") {
		t.Errorf("error %q does not point at 'pilot activate'", err.Error())
	}
	if cl.calls != 0 {
		t.Errorf("no request may be issued when the gate fails; got %d calls", cl.calls)
	}
}

func TestStart_SubmitsRunAndRendersResult(t *testing.T) {
	gate := &fakeGatekeeper{running: true}
	cl := &fakeClient{payload: json.RawMessage(
		`{"status": "completed", "iterations": 1, "agent": {"id": "pilot-abc123"}, "timeline": []}`)}
	withFakes(t, gate, cl)

	out, err := execute(t, "start", "--prompt", "book a table", "--context", "for two")
	if err != nil {
		t.Fatalf("start error: %v", err)
	}

	if cl.lastPath != "/agent/run" || cl.lastMethod != http.MethodPost {
		t.Errorf("request = %s %s, want POST /agent/run", cl.lastMethod, cl.lastPath)
	}
	req, ok := cl.lastBody.(run.Request)
	if !ok {
		t.Fatalf("request body is %T, want run.Request", cl.lastBody)
	}
	if req.Prompt != "book a table" {
		t.Errorf("prompt = %q, want %q", req.Prompt, "book a table")
	}
	if req.ContextNotes != "for two" {
		t.Errorf("contextNotes = %q, want %q", req.ContextNotes, "for two")
	}
	if !strings.Contains(out, "Run completed (iterations: 1, agent: pilot-abc123)") {
		t.Errorf("summary line missing; output:\n%s", out)
	}
}

func TestStart_PositionalPromptWords(t *testing.T) {
	gate := &fakeGatekeeper{running: true}
	cl := &fakeClient{payload: json.RawMessage(`{"status": "completed"}`)}
	withFakes(t, gate, cl)

	_, err := execute(t, "start", "book", "a", "table")
	if err != nil {
		t.Fatalf("start error: %v", err)
	}

	req := cl.lastBody.(run.Request)
	if req.Prompt != "book a table" {
		t.Errorf("prompt = %q, want positionals joined", req.Prompt)
	}
}

func TestStart_UnrecognizedFlagBecomesPrompt(t *testing.T) {
	// start owns its argv: tokens cobra would treat as flags are prompt
	// text to the resolver.
	gate := &fakeGatekeeper{running: true}
	cl := &fakeClient{payload: json.RawMessage(`{"status": "completed"}`)}
	withFakes(t, gate, cl)

	_, err := execute(t, "start", "--help")
	if err != nil {
		t.Fatalf("start error: %v", err)
	}

	req := cl.lastBody.(run.Request)
	if req.Prompt != "--help" {
		t.Errorf("prompt = %q, want %q", req.Prompt, "--help")
	}
}

func TestStart_MissingPrompt(t *testing.T) {
	gate := &fakeGatekeeper{running: true}
	cl := &fakeClient{}
	withFakes(t, gate, cl)

	_, err := execute(t, "start")
	if !errors.Is(err, options.ErrMissingPrompt) {
		t.Fatalf("expected ErrMissingPrompt, got %v", err)
	}
	if cl.calls != 0 {
		t.Errorf("missing prompt must fail before any request; got %d calls", cl.calls)
	}
	if gate.isRunningCalls != 0 {
		t.Errorf("missing prompt must fail before the health probe; IsRunning called %d times", gate.isRunningCalls)
	}
}

func TestStart_MissingPromptWinsOverDownDaemon(t *testing.T) {
	// The resolver runs first, so the user hears about the absent prompt
	// rather than being told to activate a daemon they cannot use yet.
	gate := &fakeGatekeeper{running: false}
	cl := &fakeClient{}
	withFakes(t, gate, cl)

	_, err := execute(t, "start")
	if !errors.Is(err, options.ErrMissingPrompt) {
		t.Fatalf("expected ErrMissingPrompt, got %T: %v", err, err)
	}
	var notRunning *daemon.NotRunningError
	if errors.As(err, &notRunning) {
		t.Fatalf("gate error %v must not mask the missing prompt", err)
	}
	if gate.isRunningCalls != 0 {
		t.Errorf("IsRunning called %d times, want 0", gate.isRunningCalls)
	}
	if cl.calls != 0 {
		t.Errorf("no request may be issued; got %d calls", cl.calls)
	}
}

func TestStart_RenderFailureBecomesExitCode(t *testing.T) {
	gate := &fakeGatekeeper{running: true}
	cl := &fakeClient{payload: json.RawMessage(`{"status": "failed", "timeline": []}`)}
	withFakes(t, gate, cl)

	out, err := execute(t, "start", "--prompt", "doomed")
	if err == nil {
		t.Fatal("expected non-nil error for failed run")
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %T: %v", err, err)
	}
	if exitErr.Code != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.Code)
	}
	if exitErr.Message != "" {
		t.Errorf("message = %q, want empty: the renderer already printed the diagnostic", exitErr.Message)
	}
	if !strings.Contains(out, "Run did not complete (status: failed)") {
		t.Errorf("renderer diagnostic missing; output:\n%s", out)
	}
}

func TestStart_RequestErrorSurfaces(t *testing.T) {
	gate := &fakeGatekeeper{running: true}
	cl := &fakeClient{err: &client.RequestError{Message: "a run is already in progress"}}
	withFakes(t, gate, cl)

	_, err := execute(t, "start", "--prompt", "busy")
	var reqErr *client.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *client.RequestError, got %T: %v", err, err)
	}
	if reqErr.Message != "a run is already in progress" {
		t.Errorf("message = %q, want the daemon's message", reqErr.Message)
	}
}
