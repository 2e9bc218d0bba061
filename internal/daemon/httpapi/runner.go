package httpapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/pilotlabs/pilot/internal/run"
)

// Runner executes agent runs on behalf of the daemon. Implementations own
// the browser runtime; the daemon only schedules work and records outcomes.
type Runner interface {
	// Run carries out one run to completion. The returned result is
	// reported to the caller verbatim, so implementations fill in status,
	// iterations, and the timeline themselves.
	Run(ctx context.Context, req run.Request) (run.Result, error)

	// Warm prepares the browser runtime ahead of the first run. It reports
	// whether the runtime was already warm.
	Warm(ctx context.Context) (bool, error)
}

// LoopbackRunner is the built-in backend used when no browser runtime is
// attached. Every run completes in a single iteration that acknowledges
// the prompt, which keeps the full CLI path exercisable on any machine.
type LoopbackRunner struct {
	mu     sync.Mutex
	warmed bool
}

// NewLoopbackRunner returns a cold loopback runner.
func NewLoopbackRunner() *LoopbackRunner {
	return &LoopbackRunner{}
}

func (r *LoopbackRunner) Run(ctx context.Context, req run.Request) (run.Result, error) {
	if err := ctx.Err(); err != nil {
		return run.Result{}, err
	}

	status := run.StatusCompleted
	ok := true
	iterations := 1
	first := 1

	return run.Result{
		Status:     &status,
		OK:         &ok,
		Iterations: &iterations,
		Timeline: []run.TimelineEntry{
			{
				Iteration: &first,
				Decision: &run.Decision{
					Action: "acknowledge",
					Reason: fmt.Sprintf("received prompt: %s", truncatePrompt(req.Prompt)),
				},
				Result: &run.StepResult{
					Next:   "done",
					Reason: "loopback backend, no browser attached",
				},
			},
		},
		CompleteHistory: []string{"acknowledged prompt"},
	}, nil
}

func (r *LoopbackRunner) Warm(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.warmed {
		return true, nil
	}
	r.warmed = true
	return false, nil
}

// truncatePrompt keeps timeline reasons readable when prompts run long.
// Cuts on a rune boundary so multi-byte prompts stay valid UTF-8.
func truncatePrompt(prompt string) string {
	const max = 80
	runes := []rune(prompt)
	if len(runes) <= max {
		return prompt
	}
	return string(runes[:max]) + "..."
}
