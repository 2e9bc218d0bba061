package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pilotlabs/pilot/internal/config"
)

func init() {
	rootCmd.AddCommand(activateCmd)
}

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Start the agent daemon if it is not already running",
	Long: `Probe the agent daemon and start it when absent. Activation is
idempotent: a daemon that is already healthy is reused, not restarted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActivate(cmd)
	},
}

// runActivate backs both 'pilot activate' and the bare invocation.
func runActivate(cmd *cobra.Command) error {
	settings := config.Resolve()
	health, err := newGatekeeper(settings).Ensure(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Agent daemon ready (agent: %s, version: %s)\n",
		health.Agent.ID, health.Version)
	return nil
}
