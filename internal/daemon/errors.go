package daemon

import (
	"fmt"

	"github.com/pilotlabs/pilot/internal/branding"
)

// NotRunningError is returned by the precondition gate when a run-submitting
// command is invoked and no daemon answers. The message names the command
// that fixes it.
type NotRunningError struct{}

func (e *NotRunningError) Error() string {
	return fmt.Sprintf("agent daemon is not running; start it with '%s activate'", branding.CLIName())
}

// StartError is a failed daemon activation: the process could not be
// spawned, or it never became healthy.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("starting agent daemon: %v", e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }
