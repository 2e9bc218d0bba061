// Package daemon supervises the background agent daemon: probing whether
// one is alive, activating one when it is not, and recording the state
// handshake between the CLI and the daemon process.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/pilotlabs/pilot/internal/client"
	"github.com/pilotlabs/pilot/internal/config"
	"github.com/pilotlabs/pilot/internal/run"
)

// CommandName is the CLI command that boots the daemon in-process. The
// supervisor spawns `<self> CommandName` to activate a background daemon.
const CommandName = "agent-daemon"

const (
	probeTimeout      = 2 * time.Second
	readyPollInterval = 150 * time.Millisecond
	defaultReadyWait  = 10 * time.Second
)

// Health is the daemon's health report from GET /health.
type Health struct {
	OK            bool       `json:"ok"`
	Status        string     `json:"status"`
	Agent         run.Agent  `json:"agent"`
	Version       string     `json:"version"`
	PID           int        `json:"pid"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	RunsCompleted int        `json:"runs_completed"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
}

// Supervisor manages the lifecycle handshake with the local daemon.
// IsRunning is side-effect-free; Ensure activates a daemon when none
// answers and is idempotent when one does.
type Supervisor struct {
	settings config.Settings
	build    string
	stderr   io.Writer

	// Test seams.
	newClient func(baseURL string) client.Client
	spawn     func() (int, error)
	readyWait time.Duration
}

// New builds a supervisor for the configured daemon port. build is the CLI
// version used for the compatibility warning.
func New(settings config.Settings, build string) *Supervisor {
	s := &Supervisor{
		settings:  settings,
		build:     build,
		stderr:    os.Stderr,
		readyWait: defaultReadyWait,
	}
	s.newClient = func(baseURL string) client.Client { return client.New(baseURL) }
	s.spawn = s.spawnProcess
	return s
}

// IsRunning reports whether a daemon is alive: the state file exists and a
// health probe on its recorded port answers.
func (s *Supervisor) IsRunning(ctx context.Context) bool {
	st, err := LoadState()
	if err != nil {
		return false
	}
	_, err = s.health(ctx, st.Port)
	return err == nil
}

// Ensure returns the health report of a live daemon, activating one first
// when necessary. Calling it against an already running daemon only probes.
func (s *Supervisor) Ensure(ctx context.Context) (Health, error) {
	if st, err := LoadState(); err == nil {
		if h, err := s.health(ctx, st.Port); err == nil {
			s.warnVersionSkew(h.Version)
			return h, nil
		}
		// Stale state from a daemon that died without cleaning up.
		_ = RemoveState()
	}

	pid, err := s.spawn()
	if err != nil {
		return Health{}, &StartError{Err: err}
	}

	deadline := time.Now().Add(s.readyWait)
	for {
		h, err := s.health(ctx, s.settings.DaemonPort)
		if err == nil {
			s.warnVersionSkew(h.Version)
			return h, nil
		}
		if ctx.Err() != nil {
			return Health{}, &StartError{Err: ctx.Err()}
		}
		if time.Now().After(deadline) {
			return Health{}, &StartError{
				Err: fmt.Errorf("daemon (pid %d) not healthy after %s; see %s", pid, s.readyWait, LogPath()),
			}
		}
		time.Sleep(readyPollInterval)
	}
}

// health probes /health on the given port with a short deadline.
func (s *Supervisor) health(ctx context.Context, port int) (Health, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	c := s.newClient(fmt.Sprintf("http://127.0.0.1:%d", port))
	raw, err := c.Request(ctx, "/health", http.MethodGet, nil)
	if err != nil {
		return Health{}, err
	}
	var h Health
	if err := json.Unmarshal(raw, &h); err != nil {
		return Health{}, fmt.Errorf("decoding health response: %w", err)
	}
	return h, nil
}

// spawnProcess starts `<self> agent-daemon` detached, with output going to
// the daemon log file, and returns the child pid.
func (s *Supervisor) spawnProcess() (int, error) {
	self, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("locating own binary: %w", err)
	}
	if err := config.EnsureDir(); err != nil {
		return 0, err
	}
	logFile, err := os.OpenFile(LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", LogPath(), err)
	}
	defer logFile.Close()

	cmd := exec.Command(self, CommandName)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawning %s %s: %w", self, CommandName, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return 0, fmt.Errorf("detaching daemon process: %w", err)
	}
	return pid, nil
}

// warnVersionSkew prints a non-fatal warning when the CLI and daemon differ
// in major version, naming which side is behind.
func (s *Supervisor) warnVersionSkew(daemonVersion string) {
	if !MajorMismatch(s.build, daemonVersion) {
		return
	}
	relation := "an older"
	if cmp, err := CompareVersions(s.build, daemonVersion); err == nil && cmp < 0 {
		relation = "a newer"
	}
	fmt.Fprintf(s.stderr, "Warning: CLI version %s is talking to %s daemon (version %s, major version mismatch)\n",
		s.build, relation, daemonVersion)
}
