// Package options turns raw command-line tokens plus configuration
// fallbacks into a normalized run request.
//
// The `start` command disables cobra's flag parsing so prompt text does not
// have to be quoted or escaped; this package implements the permissive
// token-pair scan that replaces it. Only the flags listed below are
// recognized, each consuming exactly one following token. Everything else,
// including a recognized flag with no token after it, accumulates as
// positional prompt text in order.
package options

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pilotlabs/pilot/internal/config"
	"github.com/pilotlabs/pilot/internal/run"
)

// Flags recognized by the resolver. Each consumes the single token that
// follows it.
const (
	FlagPrompt       = "--prompt"
	FlagPromptFile   = "--prompt-file"
	FlagContext      = "--context"
	FlagContextFile  = "--context-file"
	FlagCriticKey    = "--critic-key"
	FlagAssistantKey = "--assistant-key"
	FlagAssistantID  = "--assistant-id"
)

// ValueFlags lists every recognized flag, in help order.
var ValueFlags = []string{
	FlagPromptFile,
	FlagPrompt,
	FlagContext,
	FlagContextFile,
	FlagCriticKey,
	FlagAssistantKey,
	FlagAssistantID,
}

// ErrMissingPrompt is reported when no prompt source yields a non-empty
// trimmed string. It is raised before any network activity.
var ErrMissingPrompt = errors.New("no prompt given: pass --prompt, --prompt-file, or prompt text as arguments")

// FileReadError reports an unreadable --prompt-file or --context-file.
// Fatal for the whole invocation; there is no retry or partial fallback.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// ParsedOptions holds recognized flag values and the ordered positional
// tokens left over. Owned by the invocation that created it.
type ParsedOptions struct {
	Flags       map[string]string
	Positionals []string
}

// ParseArgs scans the raw argument sequence. A recognized flag immediately
// followed by a token consumes that token as its value; a recognized flag
// at the end of the sequence is kept as a positional instead. No file or
// content validation happens here.
func ParseArgs(args []string) ParsedOptions {
	opts := ParsedOptions{Flags: make(map[string]string)}
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if isValueFlag(tok) && i+1 < len(args) {
			opts.Flags[tok] = args[i+1]
			i++
			continue
		}
		opts.Positionals = append(opts.Positionals, tok)
	}
	return opts
}

func isValueFlag(tok string) bool {
	for _, f := range ValueFlags {
		if tok == f {
			return true
		}
	}
	return false
}

// BuildRunRequest resolves the request payload for the `start` flow.
//
// Prompt precedence: --prompt, else the contents of --prompt-file, else the
// positional tokens joined with single spaces; the first candidate that
// trims to a non-empty string wins. Context precedence: --context, else the
// contents of --context-file, else empty (absence is not an error). The
// credential trio falls back from flag to the resolved settings.
func (p ParsedOptions) BuildRunRequest(settings config.Settings) (run.Request, error) {
	prompt, err := p.resolvePrompt()
	if err != nil {
		return run.Request{}, err
	}
	if prompt == "" {
		return run.Request{}, ErrMissingPrompt
	}

	contextNotes, err := p.resolveContext()
	if err != nil {
		return run.Request{}, err
	}

	return run.Request{
		Prompt:       prompt,
		ContextNotes: contextNotes,
		CriticKey:    fallback(p.Flags[FlagCriticKey], settings.CriticKey),
		AssistantKey: fallback(p.Flags[FlagAssistantKey], settings.AssistantKey),
		AssistantID:  fallback(p.Flags[FlagAssistantID], settings.AssistantID),
	}, nil
}

// resolvePrompt walks the prompt precedence chain lazily: the prompt file
// is only read when --prompt did not already produce text.
func (p ParsedOptions) resolvePrompt() (string, error) {
	if v := strings.TrimSpace(p.Flags[FlagPrompt]); v != "" {
		return v, nil
	}
	if path, ok := p.Flags[FlagPromptFile]; ok {
		content, err := readFile(path)
		if err != nil {
			return "", err
		}
		if v := strings.TrimSpace(content); v != "" {
			return v, nil
		}
	}
	return strings.TrimSpace(strings.Join(p.Positionals, " ")), nil
}

func (p ParsedOptions) resolveContext() (string, error) {
	if v := p.Flags[FlagContext]; v != "" {
		return v, nil
	}
	if path, ok := p.Flags[FlagContextFile]; ok {
		return readFile(path)
	}
	return "", nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	return string(data), nil
}

func fallback(primary, secondary string) string {
	if primary != "" {
		return primary
	}
	return secondary
}
