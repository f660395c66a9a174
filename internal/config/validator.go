package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "persist.debounce_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// maxSocketPath is the portable sun_path limit. Linux allows 108 bytes,
// darwin 104; the smaller bound applies.
const maxSocketPath = 104

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateAgent()...)
	errors = append(errors, c.validateTasks()...)
	errors = append(errors, c.validateDocker()...)
	errors = append(errors, c.validatePersist()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateServer validates the ServerConfig
func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if len(c.Server.SocketPath) > maxSocketPath {
		errors = append(errors, ValidationError{
			Field:   "server.socket_path",
			Value:   c.Server.SocketPath,
			Message: fmt.Sprintf("exceeds maximum socket path length of %d bytes", maxSocketPath),
		})
	}

	return errors
}

// validateAgent validates the AgentConfig
func (c *Config) validateAgent() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Agent.Binary) == "" {
		errors = append(errors, ValidationError{
			Field:   "agent.binary",
			Value:   c.Agent.Binary,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateTasks validates the TasksConfig
func (c *Config) validateTasks() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Tasks.JustBinary) == "" {
		errors = append(errors, ValidationError{
			Field:   "tasks.just_binary",
			Value:   c.Tasks.JustBinary,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateDocker validates the DockerConfig
func (c *Config) validateDocker() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Docker.Binary) == "" {
		errors = append(errors, ValidationError{
			Field:   "docker.binary",
			Value:   c.Docker.Binary,
			Message: "must not be empty",
		})
	}

	if c.Docker.LogTail < 1 {
		errors = append(errors, ValidationError{
			Field:   "docker.log_tail",
			Value:   c.Docker.LogTail,
			Message: "must be at least 1",
		})
	}

	const maxLogTail = 100000
	if c.Docker.LogTail > maxLogTail {
		errors = append(errors, ValidationError{
			Field:   "docker.log_tail",
			Value:   c.Docker.LogTail,
			Message: fmt.Sprintf("exceeds maximum of %d", maxLogTail),
		})
	}

	return errors
}

// validatePersist validates the PersistConfig
func (c *Config) validatePersist() []ValidationError {
	var errors []ValidationError

	const minDebounce = 10    // 10ms minimum
	const maxDebounce = 60000 // 1 minute maximum

	if c.Persist.DebounceMs < minDebounce {
		errors = append(errors, ValidationError{
			Field:   "persist.debounce_ms",
			Value:   c.Persist.DebounceMs,
			Message: fmt.Sprintf("must be at least %dms", minDebounce),
		})
	}
	if c.Persist.DebounceMs > maxDebounce {
		errors = append(errors, ValidationError{
			Field:   "persist.debounce_ms",
			Value:   c.Persist.DebounceMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxDebounce),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
