//go:build integration

package integration_test

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/pilotlabs/pilot/internal/config"
	"github.com/pilotlabs/pilot/internal/daemon/httpapi"
	"github.com/pilotlabs/pilot/internal/daemon/runstore"
)

// setupTestEnv points PILOT_HOME at a temp directory so state files,
// config, and logs are sandboxed. The env var is restored after the test.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("PILOT_HOME", home)
	return home
}

// startDaemon boots a real daemon (loopback runner, in-memory history) on
// an ephemeral port. Closing the returned test server stops it.
func startDaemon(t *testing.T, version string) (*httptest.Server, *httpapi.Server) {
	t.Helper()

	store, err := runstore.Open(":memory:")
	if err != nil {
		t.Fatalf("opening run store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httpapi.NewServer(config.Settings{}, version, httpapi.NewLoopbackRunner(), store, logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts, srv
}

// portOf extracts the numeric port from a test server URL.
func portOf(t *testing.T, baseURL string) int {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parsing %s: %v", baseURL, err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parsing port of %s: %v", baseURL, err)
	}
	return port
}
