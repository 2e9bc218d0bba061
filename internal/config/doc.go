// Package config manages user-level settings stored at ~/.pilot/config.yaml.
// It provides functions to load, read, and write configuration keys (daemon
// port, credential fallbacks) and resolves them once per invocation into a
// typed Settings value that the command flows pass down explicitly.
package config
