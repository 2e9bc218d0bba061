package cli

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pilotlabs/pilot/internal/config"
	"github.com/pilotlabs/pilot/internal/options"
	"github.com/pilotlabs/pilot/internal/render"
)

func init() {
	rootCmd.AddCommand(startCmd)
}

// startCmd parses its own argument list: the option resolver accepts any
// token order and lets unrecognized tokens fall through as prompt words,
// which cobra's flag parser would reject.
var startCmd = &cobra.Command{
	Use:   "start [flags] [prompt words...]",
	Short: "Submit a run to the agent daemon and render the outcome",
	Long: `Submit a prompt to the agent daemon, wait for the run to finish, and
render its timeline. The daemon must already be running ('pilot activate').

Options are read as '--flag value' token pairs; anything else is taken as
part of the prompt. A flag with no following value is prompt text too.

  --prompt <text>         inline prompt (wins over --prompt-file)
  --prompt-file <path>    read the prompt from a file
  --context <text>        inline context notes
  --context-file <path>   read context notes from a file
  --critic-key <key>      critic model API key
  --assistant-key <key>   assistant model API key
  --assistant-id <id>     assistant profile to run with

Keys and ids omitted here fall back to config file / environment values.
Exits 0 only when the run reports status "completed".`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStart(cmd, args)
	},
}

func runStart(cmd *cobra.Command, args []string) error {
	settings := config.Resolve()

	// Resolve before gating: a missing prompt or unreadable file is
	// reported without any network activity, the health probe included.
	req, err := options.ParseArgs(args).BuildRunRequest(settings)
	if err != nil {
		return err
	}

	if err := requireDaemon(cmd.Context(), newGatekeeper(settings)); err != nil {
		return err
	}

	payload, err := newClient(settings).Request(cmd.Context(), "/agent/run", http.MethodPost, req)
	if err != nil {
		return err
	}

	// The renderer prints its own diagnostics; a non-zero code surfaces as
	// the process exit code with no extra error line.
	if code := render.Render(cmd.OutOrStdout(), payload); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
