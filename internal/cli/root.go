package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pilotlabs/pilot/internal/branding"
	"github.com/pilotlabs/pilot/internal/client"
	"github.com/pilotlabs/pilot/internal/config"
	"github.com/pilotlabs/pilot/internal/daemon"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// gatekeeper is the daemon precondition surface commands depend on.
type gatekeeper interface {
	IsRunning(ctx context.Context) bool
	Ensure(ctx context.Context) (daemon.Health, error)
}

// Constructors behind package vars so command tests can substitute fakes.
var (
	newGatekeeper = func(settings config.Settings) gatekeeper {
		return daemon.New(settings, buildVersion)
	}
	newClient = func(settings config.Settings) client.Client {
		return client.New(settings.BaseURL())
	}
)

// requireDaemon gates commands that submit work: they fail without issuing
// any request when the daemon is not reachable.
func requireDaemon(ctx context.Context, gate gatekeeper) error {
	if !gate.IsRunning(ctx) {
		return &daemon.NotRunningError{}
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` drives a locally running browser agent: it activates the
agent daemon on demand, submits prompts for it to run, and renders the
resulting timeline when the run finishes.

Invoked with no arguments it activates the daemon, same as 'pilot activate'.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			_ = cmd.Usage()
			return &ExitError{Code: 1, Message: fmt.Sprintf("unknown command %q", args[0])}
		}
		return runActivate(cmd)
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
