// Package run defines the wire vocabulary shared by the CLI client and the
// agent daemon: the run request submitted by `pilot start` and the loosely
// typed run result the daemon reports back.
//
// Result and its nested records are partial records. Every field the
// daemon may omit is either a pointer, a nil-able slice, or an untyped
// value, and decoding never fails on absence; consumers degrade output
// instead of erroring.
package run

// Request is the payload POSTed to the daemon's run endpoint. It is built
// once per `start` invocation and not shared across commands.
type Request struct {
	Prompt       string `json:"prompt"`
	ContextNotes string `json:"contextNotes"`
	CriticKey    string `json:"criticKey,omitempty"`
	AssistantKey string `json:"assistantKey,omitempty"`
	AssistantID  string `json:"assistantId,omitempty"`
}

// Result is the outcome of one agent run. Borrowed read-only by the
// renderer; no field is guaranteed to be present. The json tags describe
// the producing side; consumers decode through ResultFromMap, which also
// tolerates type mismatches.
type Result struct {
	Status          *string         `json:"status,omitempty"`
	OK              *bool           `json:"ok,omitempty"`
	Iterations      *int            `json:"iterations,omitempty"`
	Agent           *Agent          `json:"agent,omitempty"`
	Timeline        []TimelineEntry `json:"timeline"`
	CompleteHistory []string        `json:"completeHistory,omitempty"`
}

// Agent identifies the daemon-side agent that executed the run.
type Agent struct {
	ID string `json:"id"`
}

// TimelineEntry records one iteration's decision, outcome, and optional
// assistant output.
type TimelineEntry struct {
	Iteration *int        `json:"iteration,omitempty"`
	Decision  *Decision   `json:"decision,omitempty"`
	Result    *StepResult `json:"result,omitempty"`
	Assistant *Assistant  `json:"assistant,omitempty"`
}

// Decision is what the agent chose to do in one iteration.
type Decision struct {
	Action  string  `json:"action,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	Summary string  `json:"summary,omitempty"`
	Target  *Target `json:"target,omitempty"`
}

// Target describes the on-page element a decision aims at.
type Target struct {
	Reason string `json:"reason,omitempty"`
	Hints  *Hints `json:"hints,omitempty"`
}

// Hints carry the exact/partial/contains text used to locate the target.
type Hints struct {
	TextExact    []string `json:"text_exact,omitempty"`
	TextPartial  string   `json:"text_partial,omitempty"`
	TextContains []string `json:"text_contains,omitempty"`
}

// StepResult is the recorded outcome of acting on a decision.
type StepResult struct {
	Next    string   `json:"next,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	Clicked *Clicked `json:"clicked,omitempty"`
}

// Clicked identifies the element that was actually clicked.
type Clicked struct {
	Name     string `json:"name,omitempty"`
	ID       string `json:"id,omitempty"`
	HitState string `json:"hit_state,omitempty"`
}

// Assistant holds optional assistant output attached to an iteration.
// Parsed is the structured form when the daemon could parse it; Raw is the
// original text otherwise. Either may be any JSON value.
type Assistant struct {
	Parsed any `json:"parsed,omitempty"`
	Raw    any `json:"raw,omitempty"`
}
