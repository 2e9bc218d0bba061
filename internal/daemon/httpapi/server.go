// Package httpapi hosts the agent daemon's control surface: a loopback
// HTTP server exposing health, run, and browser warm-up endpoints. The
// Runner behind it does the actual work; this package schedules one run at
// a time and records outcomes in the run history.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pilotlabs/pilot/internal/branding"
	"github.com/pilotlabs/pilot/internal/config"
	"github.com/pilotlabs/pilot/internal/daemon"
	"github.com/pilotlabs/pilot/internal/daemon/runstore"
	"github.com/pilotlabs/pilot/internal/run"
)

const (
	shutdownTimeout = 10 * time.Second

	// defaultRunsLimit bounds /runs listings when no limit is given.
	defaultRunsLimit = 20
)

// Launch statuses reported by the playwright endpoint.
const (
	LaunchWarmed      = "warmed"
	LaunchAlreadyWarm = "already-warm"
)

// ErrorResponse is the envelope every failing endpoint returns.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Issues []string `json:"issues,omitempty"`
}

// LaunchResponse reports the outcome of a browser warm-up request.
type LaunchResponse struct {
	OK     bool      `json:"ok"`
	Status string    `json:"status"`
	Agent  run.Agent `json:"agent"`
}

// RunsResponse lists persisted run history entries, newest first.
type RunsResponse struct {
	Runs []runstore.Record `json:"runs"`
}

// Server is one daemon instance: the echo router plus the state its
// handlers share.
type Server struct {
	settings  config.Settings
	version   string
	runner    Runner
	store     *runstore.Store
	log       *slog.Logger
	echo      *echo.Echo
	agentID   string
	startedAt time.Time

	mu   sync.Mutex
	busy bool
}

// NewServer assembles a daemon around the given runner and run history.
// Each instance mints a fresh agent identity.
func NewServer(settings config.Settings, version string, runner Runner, store *runstore.Store, logger *slog.Logger) *Server {
	s := &Server{
		settings:  settings,
		version:   version,
		runner:    runner,
		store:     store,
		log:       logger,
		agentID:   fmt.Sprintf("%s-%s", branding.CLIName(), uuid.NewString()[:8]),
		startedAt: time.Now(),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/health", s.handleHealth)
	e.POST("/agent/run", s.handleRun)
	e.POST("/playwright/launch", s.handleLaunch)
	e.GET("/runs", s.handleRuns)
	e.GET("/runs/:id", s.handleRunByID)

	s.echo = e
	return s
}

// AgentID returns the identity minted for this daemon instance.
func (s *Server) AgentID() string {
	return s.agentID
}

// Handler exposes the route tree for serving on a caller-owned listener.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	stats, err := s.store.Stats(c.Request().Context())
	if err != nil {
		s.log.Error("reading run stats", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "reading run stats"})
	}

	status := "idle"
	s.mu.Lock()
	if s.busy {
		status = "busy"
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, daemon.Health{
		OK:            true,
		Status:        status,
		Agent:         run.Agent{ID: s.agentID},
		Version:       s.version,
		PID:           os.Getpid(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		RunsCompleted: stats.RunsCompleted,
		LastRunAt:     stats.LastRunAt,
	})
}

func (s *Server) handleRun(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("reading request body: %v", err)})
	}

	result, err := ValidateRunRequest(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if !result.Valid {
		issues := make([]string, 0, len(result.Issues))
		for _, issue := range result.Issues {
			issues = append(issues, issue.String())
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid run request", Issues: issues})
	}

	var req run.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("decoding run request: %v", err)})
	}

	if !s.beginRun() {
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "a run is already in progress"})
	}
	defer s.endRun()

	runID := uuid.NewString()
	s.log.Info("run started", "run_id", runID, "prompt_chars", len(req.Prompt))

	res, err := s.runner.Run(c.Request().Context(), req)
	if err != nil {
		s.log.Error("run failed", "run_id", runID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("run failed: %v", err)})
	}
	res.Agent = &run.Agent{ID: s.agentID}

	s.log.Info("run finished", "run_id", runID, "status", res.EffectiveStatus())
	s.record(runID, req, res)

	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleLaunch(c echo.Context) error {
	already, err := s.runner.Warm(c.Request().Context())
	if err != nil {
		s.log.Error("warming browser runtime", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("warming browser runtime: %v", err)})
	}

	status := LaunchWarmed
	if already {
		status = LaunchAlreadyWarm
	}
	s.log.Info("browser runtime ready", "status", status)

	return c.JSON(http.StatusOK, LaunchResponse{
		OK:     true,
		Status: status,
		Agent:  run.Agent{ID: s.agentID},
	})
}

// handleRuns lists recent run history.
func (s *Server) handleRuns(c echo.Context) error {
	limit := defaultRunsLimit
	if q := c.QueryParam("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid limit %q", q)})
		}
		limit = n
	}

	records, err := s.store.Recent(c.Request().Context(), limit)
	if err != nil {
		s.log.Error("listing run history", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "listing run history"})
	}
	if records == nil {
		records = []runstore.Record{}
	}
	return c.JSON(http.StatusOK, RunsResponse{Runs: records})
}

// handleRunByID returns one persisted run.
func (s *Server) handleRunByID(c echo.Context) error {
	id := c.Param("id")

	rec, err := s.store.Get(c.Request().Context(), id)
	if err != nil {
		s.log.Error("loading run", "run_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "loading run"})
	}
	if rec == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("no run %q", id)})
	}
	return c.JSON(http.StatusOK, rec)
}

// beginRun claims the single run slot; false means another run holds it.
func (s *Server) beginRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Server) endRun() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// record persists the run outcome. The run already finished, so a storage
// failure is logged rather than returned. Uses a fresh context: the
// request context may be canceled once the client disconnects.
func (s *Server) record(runID string, req run.Request, res run.Result) {
	raw, err := json.Marshal(res)
	if err != nil {
		s.log.Error("encoding run result for history", "run_id", runID, "error", err)
		return
	}

	iterations := 0
	if res.Iterations != nil {
		iterations = *res.Iterations
	}

	rec := runstore.Record{
		RunID:      runID,
		Prompt:     req.Prompt,
		Status:     res.EffectiveStatus(),
		Iterations: iterations,
		Result:     raw,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Save(context.Background(), rec); err != nil {
		s.log.Error("saving run history", "run_id", runID, "error", err)
	}
}

// Serve runs a daemon in the foreground on the configured port. It writes
// the state file other commands probe, then blocks until the context is
// canceled or a shutdown signal arrives.
func Serve(ctx context.Context, settings config.Settings, version string) error {
	logger := newLogger(settings.LogLevel, settings.LogFormat, os.Stderr)

	if err := config.EnsureDir(); err != nil {
		return err
	}
	store, err := runstore.Open(filepath.Join(config.Dir(), "runs.db"))
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer store.Close()

	srv := NewServer(settings, version, NewLoopbackRunner(), store, logger)

	// Claim the port before writing state: a second daemon losing the bind
	// race must not clobber the live daemon's state file.
	addr := fmt.Sprintf("127.0.0.1:%d", settings.DaemonPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}
	srv.echo.Listener = ln

	if err := daemon.SaveState(daemon.State{
		PID:       os.Getpid(),
		Port:      settings.DaemonPort,
		AgentID:   srv.AgentID(),
		Version:   version,
		StartedAt: srv.startedAt,
	}); err != nil {
		ln.Close()
		return err
	}
	defer func() {
		if err := daemon.RemoveState(); err != nil {
			logger.Warn("removing state file", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("agent daemon listening", "addr", addr, "agent", srv.AgentID(), "version", version)
		if err := srv.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("daemon server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutting down", "reason", ctx.Err().Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stopping daemon server: %w", err)
	}
	return nil
}
