// Package config holds the daemon configuration. Values are layered through
// viper: built-in defaults, then the config file under the user config dir,
// then ATELIER_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete atelier daemon configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Paths   PathsConfig   `mapstructure:"paths"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Tasks   TasksConfig   `mapstructure:"tasks"`
	Docker  DockerConfig  `mapstructure:"docker"`
	Mcp     McpConfig     `mapstructure:"mcp"`
	Persist PersistConfig `mapstructure:"persist"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the IPC listener.
type ServerConfig struct {
	// SocketPath is the unix socket the renderer connects to.
	// Empty means <data_dir>/atelier.sock.
	SocketPath string `mapstructure:"socket_path"`
}

// PathsConfig controls where durable state lives.
type PathsConfig struct {
	// DataDir overrides the data directory. Empty means the ATELIER_DATA_DIR
	// environment variable when set, otherwise "atelier" under the user
	// config dir.
	DataDir string `mapstructure:"data_dir"`
}

// AgentConfig controls the coding-agent CLI used for chat and generation.
type AgentConfig struct {
	// Binary is the agent executable (default: "claude").
	Binary string `mapstructure:"binary"`
}

// TasksConfig controls the task runner.
type TasksConfig struct {
	// JustBinary is the recipe runner executable (default: "just").
	JustBinary string `mapstructure:"just_binary"`
}

// DockerConfig controls compose integration.
type DockerConfig struct {
	// Binary is the docker executable (default: "docker").
	Binary string `mapstructure:"binary"`
	// LogTail is the number of lines fetched per service log request.
	LogTail int `mapstructure:"log_tail"`
}

// McpConfig controls the per-worktree MCP server.
type McpConfig struct {
	// Command launches the MCP server inside a worktree. Empty disables
	// the feature; the daemon reports it as unconfigured.
	Command []string `mapstructure:"command"`
}

// PersistConfig controls the debounced state writer.
type PersistConfig struct {
	// DebounceMs is the quiet interval before a coalesced save.
	DebounceMs int `mapstructure:"debounce_ms"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level is the minimum log level. Options: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// MaxSizeMB is the max log file size in MB before rotation (0 disables rotation)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files
	Compress bool `mapstructure:"compress"`
}

// Debounce returns the persist debounce as a time.Duration.
func (c *PersistConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ResolveDataDir returns the resolved data directory. The config value wins
// when set, with ~ expanded; otherwise resolution falls through to fallback.
func (p *PathsConfig) ResolveDataDir(fallback func() (string, error)) (string, error) {
	if p.DataDir == "" {
		return fallback()
	}

	path := p.DataDir
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}
	return path, nil
}

// ResolveSocketPath returns the unix socket path, defaulting to
// atelier.sock under the data directory.
func (s *ServerConfig) ResolveSocketPath(dataDir string) string {
	if s.SocketPath != "" {
		return s.SocketPath
	}
	return filepath.Join(dataDir, "atelier.sock")
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			SocketPath: "", // Empty means <data_dir>/atelier.sock
		},
		Paths: PathsConfig{
			DataDir: "", // Empty means ATELIER_DATA_DIR or the user config dir
		},
		Agent: AgentConfig{
			Binary: "claude",
		},
		Tasks: TasksConfig{
			JustBinary: "just",
		},
		Docker: DockerConfig{
			Binary:  "docker",
			LogTail: 200,
		},
		Mcp: McpConfig{
			Command: []string{},
		},
		Persist: PersistConfig{
			DebounceMs: 500,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// SetDefaults registers all default values with viper
func SetDefaults() {
	defaults := Default()

	// Server defaults
	viper.SetDefault("server.socket_path", defaults.Server.SocketPath)

	// Paths defaults
	viper.SetDefault("paths.data_dir", defaults.Paths.DataDir)

	// Agent defaults
	viper.SetDefault("agent.binary", defaults.Agent.Binary)

	// Tasks defaults
	viper.SetDefault("tasks.just_binary", defaults.Tasks.JustBinary)

	// Docker defaults
	viper.SetDefault("docker.binary", defaults.Docker.Binary)
	viper.SetDefault("docker.log_tail", defaults.Docker.LogTail)

	// Mcp defaults
	viper.SetDefault("mcp.command", defaults.Mcp.Command)

	// Persist defaults
	viper.SetDefault("persist.debounce_ms", defaults.Persist.DebounceMs)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "atelier")
	}
	// Fall back to ~/.config/atelier
	home, err := os.UserHomeDir()
	if err != nil {
		return ".atelier"
	}
	return filepath.Join(home, ".config", "atelier")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
