package cli

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pilotlabs/pilot/internal/config"
	"github.com/pilotlabs/pilot/internal/render"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the agent daemon's health report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Resolve()

		payload, err := newClient(settings).Request(cmd.Context(), "/health", http.MethodGet, nil)
		if err != nil {
			return err
		}

		render.JSON(cmd.OutOrStdout(), payload)
		return nil
	},
}
