package cli

import (
	"github.com/spf13/cobra"

	"github.com/pilotlabs/pilot/internal/config"
	"github.com/pilotlabs/pilot/internal/daemon"
	"github.com/pilotlabs/pilot/internal/daemon/httpapi"
)

func init() {
	rootCmd.AddCommand(agentDaemonCmd)
}

// agentDaemonCmd is the process the supervisor spawns. Hidden: users start
// the daemon through 'pilot activate', not by invoking this directly.
var agentDaemonCmd = &cobra.Command{
	Use:    daemon.CommandName,
	Short:  "Run the agent daemon in the foreground",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return httpapi.Serve(cmd.Context(), config.Resolve(), buildVersion)
	},
}
