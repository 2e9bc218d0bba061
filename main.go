package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pilotlabs/pilot/internal/cli"
	"github.com/pilotlabs/pilot/internal/client"
)

// version, commit, and date are set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		os.Exit(report(os.Stderr, err))
	}
}

// report prints the diagnostics for a fatal error and returns the process
// exit code. A request error carries the raw service-side error body, which
// is printed after the message line so details such as the daemon's
// validation issues reach the user.
func report(w io.Writer, err error) int {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			fmt.Fprintln(w, "Error: "+exitErr.Message)
		}
		return exitErr.Code
	}

	fmt.Fprintln(w, "Error: "+err.Error())

	var reqErr *client.RequestError
	if errors.As(err, &reqErr) {
		if diag := reqErr.Diagnostic(); diag != "" {
			fmt.Fprintln(w, diag)
		}
	}
	return 1
}
