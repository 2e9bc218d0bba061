package httpapi

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotlabs/pilot/internal/run"
)

func TestLoopbackRunner_Run(t *testing.T) {
	r := NewLoopbackRunner()

	res, err := r.Run(context.Background(), run.Request{Prompt: "book a table"})
	require.NoError(t, err)

	assert.Equal(t, run.StatusCompleted, res.EffectiveStatus())
	require.Len(t, res.Timeline, 1)
	require.NotNil(t, res.Timeline[0].Decision)
	assert.Contains(t, res.Timeline[0].Decision.Reason, "book a table")
}

func TestTruncatePrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"short prompt unchanged", "book a table", "book a table"},
		{"exactly at the limit", strings.Repeat("a", 80), strings.Repeat("a", 80)},
		{"long ascii truncated", strings.Repeat("a", 81), strings.Repeat("a", 80) + "..."},
		{"multi-byte runes stay intact", strings.Repeat("日", 100), strings.Repeat("日", 80) + "..."},
		{"multi-byte at the limit unchanged", strings.Repeat("日", 80), strings.Repeat("日", 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncatePrompt(tt.prompt)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got), "truncated prompt must stay valid UTF-8")
		})
	}
}
