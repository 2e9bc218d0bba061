// Package cli defines the Cobra command tree for the pilot CLI. Each file
// in this package registers one top-level command (activate, start, status,
// etc.) with the root command. Command implementations delegate to internal
// packages for business logic and only handle argument handoff, I/O
// formatting, and exit-code mapping.
package cli
