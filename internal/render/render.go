// Package render prints run reports for the CLI.
//
// Render is a pure function from response payload to report text plus exit
// code: no state survives a call, and the same payload always produces the
// same bytes. Field fallbacks follow explicit ordered chains (firstNonEmpty)
// so the precedence stays auditable.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pilotlabs/pilot/internal/run"
)

// Render writes the report for a run response and returns the process exit
// code: 0 only when the effective status is exactly "completed".
//
// A payload that is not a JSON object is printed in its serialized form and
// counts as success; the status policy applies to structured results only.
func Render(w io.Writer, payload json.RawMessage) int {
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		fmt.Fprintln(w, string(payload))
		return 0
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		fmt.Fprintln(w, run.Stringify(decoded))
		return 0
	}

	res := run.ResultFromMap(obj)
	status := res.EffectiveStatus()

	fmt.Fprintf(w, "Run %s (iterations: %s, agent: %s)\n", status, iterationCount(res), agentID(res))

	if len(res.Timeline) == 0 {
		fmt.Fprintln(w, "  (timeline empty)")
	}
	for _, entry := range res.Timeline {
		renderEntry(w, entry)
	}

	if len(res.CompleteHistory) > 0 {
		fmt.Fprintf(w, "history: %s\n", strings.Join(res.CompleteHistory, " | "))
	}

	if status != run.StatusCompleted {
		fmt.Fprintf(w, "Run did not complete (status: %s); inspect the timeline above.\n", status)
		return 1
	}
	return 0
}

func iterationCount(res run.Result) string {
	if res.Iterations == nil {
		return "n/a"
	}
	return strconv.Itoa(*res.Iterations)
}

func agentID(res run.Result) string {
	if res.Agent == nil || res.Agent.ID == "" {
		return "unknown"
	}
	return res.Agent.ID
}

func renderEntry(w io.Writer, entry run.TimelineEntry) {
	iteration := "?"
	if entry.Iteration != nil {
		iteration = strconv.Itoa(*entry.Iteration)
	}

	action := "none"
	why := ""
	if entry.Decision != nil {
		action = firstNonEmpty(entry.Decision.Action, "none")
		targetReason := ""
		if entry.Decision.Target != nil {
			targetReason = entry.Decision.Target.Reason
		}
		why = firstNonEmpty(entry.Decision.Reason, entry.Decision.Summary, targetReason)
	}

	line := fmt.Sprintf("  [%s] %s", iteration, action)
	if why != "" {
		line += ": " + why
	}
	fmt.Fprintln(w, line)

	if label := targetLabel(entry.Decision); label != "" {
		fmt.Fprintf(w, "      target: %s\n", label)
	}

	renderStepResult(w, entry.Result)

	if entry.Assistant != nil {
		value := entry.Assistant.Parsed
		if value == nil {
			value = entry.Assistant.Raw
		}
		if value != nil {
			fmt.Fprintf(w, "      assistant: %s\n", run.Stringify(value))
		}
	}
}

// targetLabel picks a display label for the decision's target element:
// the joined text_exact hints, else text_partial, else the first
// text_contains hint.
func targetLabel(d *run.Decision) string {
	if d == nil || d.Target == nil || d.Target.Hints == nil {
		return ""
	}
	hints := d.Target.Hints
	if len(hints.TextExact) > 0 {
		return strings.Join(hints.TextExact, " | ")
	}
	if hints.TextPartial != "" {
		return hints.TextPartial
	}
	if len(hints.TextContains) > 0 {
		return hints.TextContains[0]
	}
	return ""
}

// renderStepResult emits the result line unless next is the in-band
// "continue" marker, in which case only a clicked-element line (when one
// exists) is shown.
func renderStepResult(w io.Writer, sr *run.StepResult) {
	if sr == nil {
		return
	}
	if sr.Next != "" && sr.Next != "continue" {
		line := fmt.Sprintf("      result: %s", sr.Next)
		if sr.Reason != "" {
			line += fmt.Sprintf(" (%s)", sr.Reason)
		}
		fmt.Fprintln(w, line)
		return
	}
	if sr.Clicked != nil {
		label := firstNonEmpty(sr.Clicked.Name, sr.Clicked.ID, "candidate")
		hitState := firstNonEmpty(sr.Clicked.HitState, "n/a")
		fmt.Fprintf(w, "      clicked: %s (hit_state: %s)\n", label, hitState)
	}
}

// firstNonEmpty returns the first candidate that is not the empty string.
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// JSON pretty-prints a raw JSON payload, used by the commands that report
// a daemon response as-is. A payload that does not indent cleanly prints
// verbatim.
func JSON(w io.Writer, payload json.RawMessage) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		fmt.Fprintln(w, string(payload))
		return
	}
	fmt.Fprintln(w, buf.String())
}
