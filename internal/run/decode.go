package run

import "encoding/json"

// Statuses with meaning to the CLI. StatusCompleted is the only value the
// renderer treats as success; everything else fails the invocation.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusUnknown   = "unknown"
)

// EffectiveStatus applies the status defaulting rule: an explicit status
// wins even when empty, ok=true alone reads as completed, and anything
// else is unknown.
func (r Result) EffectiveStatus() string {
	if r.Status != nil {
		return *r.Status
	}
	if r.OK != nil && *r.OK {
		return StatusCompleted
	}
	return StatusUnknown
}

// ResultFromMap builds a partial Result from a decoded JSON object.
// Extraction is lenient: a field that is missing or carries an unexpected
// type reads as absent. encoding/json decodes numbers as float64, so
// integer fields go through getInt.
func ResultFromMap(m map[string]any) Result {
	res := Result{
		Status:     getStringPtr(m, "status"),
		OK:         getBoolPtr(m, "ok"),
		Iterations: getIntPtr(m, "iterations"),
	}
	if agent := getMap(m, "agent"); agent != nil {
		res.Agent = &Agent{ID: getString(agent, "id")}
	}
	if timeline, ok := m["timeline"].([]any); ok {
		res.Timeline = make([]TimelineEntry, 0, len(timeline))
		for _, raw := range timeline {
			entry, _ := raw.(map[string]any)
			res.Timeline = append(res.Timeline, entryFromMap(entry))
		}
	}
	if history, ok := m["completeHistory"].([]any); ok {
		res.CompleteHistory = make([]string, 0, len(history))
		for _, item := range history {
			res.CompleteHistory = append(res.CompleteHistory, Stringify(item))
		}
	}
	return res
}

// entryFromMap tolerates nil (a non-object timeline element degrades to an
// entry with every field absent).
func entryFromMap(m map[string]any) TimelineEntry {
	if m == nil {
		return TimelineEntry{}
	}
	entry := TimelineEntry{Iteration: getIntPtr(m, "iteration")}
	if decision := getMap(m, "decision"); decision != nil {
		entry.Decision = decisionFromMap(decision)
	}
	if result := getMap(m, "result"); result != nil {
		entry.Result = stepResultFromMap(result)
	}
	if assistant, ok := m["assistant"].(map[string]any); ok {
		entry.Assistant = &Assistant{Parsed: assistant["parsed"], Raw: assistant["raw"]}
	}
	return entry
}

func decisionFromMap(m map[string]any) *Decision {
	d := &Decision{
		Action:  getString(m, "action"),
		Reason:  getString(m, "reason"),
		Summary: getString(m, "summary"),
	}
	if target := getMap(m, "target"); target != nil {
		d.Target = &Target{Reason: getString(target, "reason")}
		if hints := getMap(target, "hints"); hints != nil {
			d.Target.Hints = &Hints{
				TextExact:    getStringSlice(hints, "text_exact"),
				TextPartial:  getString(hints, "text_partial"),
				TextContains: getStringSlice(hints, "text_contains"),
			}
		}
	}
	return d
}

func stepResultFromMap(m map[string]any) *StepResult {
	sr := &StepResult{
		Next:   getString(m, "next"),
		Reason: getString(m, "reason"),
	}
	if clicked := getMap(m, "clicked"); clicked != nil {
		sr.Clicked = &Clicked{
			Name:     getString(clicked, "name"),
			ID:       getString(clicked, "id"),
			HitState: getString(clicked, "hit_state"),
		}
	}
	return sr
}

// Stringify renders a decoded JSON value for display: strings pass through,
// everything else is re-serialized compactly.
func Stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	out, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(out)
}

// getString safely extracts a string field from a map.
func getString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

// getStringPtr extracts a string field, distinguishing absent from empty.
func getStringPtr(m map[string]any, key string) *string {
	if v, ok := m[key].(string); ok {
		return &v
	}
	return nil
}

// getBoolPtr extracts a bool field, distinguishing absent from false.
func getBoolPtr(m map[string]any, key string) *bool {
	if v, ok := m[key].(bool); ok {
		return &v
	}
	return nil
}

// getIntPtr extracts a numeric field as int. JSON numbers decode as float64.
func getIntPtr(m map[string]any, key string) *int {
	if v, ok := m[key].(float64); ok {
		n := int(v)
		return &n
	}
	return nil
}

// getMap safely extracts a nested object from a map.
func getMap(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

// getStringSlice extracts a []string, skipping non-string elements.
func getStringSlice(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
