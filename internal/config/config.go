package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pilotlabs/pilot/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"

	// DefaultDaemonPort is where the agent daemon listens unless the
	// daemon-port key or PILOT_DAEMON_PORT overrides it.
	DefaultDaemonPort = 8787
)

// Settings is the resolved configuration handed to command flows. It is
// built once per invocation at the option-resolution boundary; nothing
// deeper in the call graph reads the environment directly.
type Settings struct {
	DaemonPort   int
	CriticKey    string
	AssistantKey string
	AssistantID  string
	LogLevel     string
	LogFormat    string
}

// BaseURL returns the daemon's control endpoint. The daemon binds to
// loopback only.
func (s Settings) BaseURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", s.DaemonPort)
}

// Dir returns the path to the Pilot home directory (~/.pilot/).
// PILOT_HOME overrides it, mainly for test isolation.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.pilot/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the home directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
// Keys use dashes (critic-key); the matching env vars use underscores
// (PILOT_CRITIC_KEY).
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("daemon-port", DefaultDaemonPort)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "text")

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Resolve loads the config sources and returns the typed settings used by
// the command flows. Precedence per key: environment over config file over
// default; explicit CLI flags override later, at the resolver layer.
func Resolve() Settings {
	Load()
	return Settings{
		DaemonPort:   viper.GetInt("daemon-port"),
		CriticKey:    viper.GetString("critic-key"),
		AssistantKey: viper.GetString("assistant-key"),
		AssistantID:  viper.GetString("assistant-id"),
		LogLevel:     viper.GetString("log-level"),
		LogFormat:    viper.GetString("log-format"),
	}
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
