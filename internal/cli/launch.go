package cli

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pilotlabs/pilot/internal/config"
	"github.com/pilotlabs/pilot/internal/render"
)

func init() {
	rootCmd.AddCommand(playwrightLaunchCmd)
}

var playwrightLaunchCmd = &cobra.Command{
	Use:   "playwright-launch",
	Short: "Warm up the daemon's browser runtime",
	Long: `Ask the agent daemon to launch its browser runtime ahead of the first
run. The daemon must already be running ('pilot activate').`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Resolve()

		if err := requireDaemon(cmd.Context(), newGatekeeper(settings)); err != nil {
			return err
		}

		payload, err := newClient(settings).Request(cmd.Context(), "/playwright/launch", http.MethodPost, nil)
		if err != nil {
			return err
		}

		render.JSON(cmd.OutOrStdout(), payload)
		return nil
	},
}
