package cli

// ExitError carries a process exit code through cobra's error path.
// Message may be empty when the command already printed its diagnostics;
// main exits with Code without printing anything further.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}
