// Package logging provides structured logging for the atelier daemon.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation support for debugging and post-hoc analysis. The
// daemon owns the whole state tree and runs unattended, so structured,
// filterable logs are the main way to reconstruct what happened after
// the fact.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (project ID, worktree ID, component)
//   - Log rotation with configurable size limits
//   - Optional gzip compression for rotated logs
//   - Log aggregation and filtering utilities
//   - Export to JSON, text, or CSV formats
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. The [Logger] type
// uses Go's slog internally which is designed for concurrent access. The
// [RotatingWriter] type uses a mutex to protect file operations during
// rotation. Child loggers created via With* methods share the underlying
// writer safely.
//
// # Basic Usage
//
// Create a logger for the data directory:
//
//	logger, err := logging.NewLogger(dataDir, "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Debug("detailed info", "key", "value")
//	logger.Info("operation completed", "duration_ms", 150)
//	logger.Warn("potential issue", "threshold", 100)
//	logger.Error("operation failed", "error", err.Error())
//
// # Context Propagation
//
// Create child loggers with persistent context attributes:
//
//	storeLog := logger.WithComponent("store")
//	projectLog := storeLog.WithProject("proj-abc123")
//	wtLog := projectLog.WithWorktree("wt-def456")
//
//	// All logs from wtLog include component, project_id, and worktree_id
//	wtLog.Info("task started", "task", "build")
//
// # Log Rotation
//
// The daemon is long-running, so rotation keeps atelier.log bounded:
//
//	config := logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	    Compress:   true,
//	}
//
//	logger, err := logging.NewLoggerWithRotation(dataDir, "INFO", config)
//
// Rotated files are named: atelier.log.1, atelier.log.2, etc., where .1 is
// the most recent backup. When compression is enabled, rotated files become
// atelier.log.1.gz, etc.
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output.
//
// # Log Aggregation and Filtering
//
// The `atelier logs` command reads the daemon log back:
//
//	entries, err := logging.AggregateLogs(dataDir)
//	if err != nil {
//	    return err
//	}
//
//	filter := logging.LogFilter{
//	    Level:     "WARN",
//	    Component: "proc",
//	    StartTime: time.Now().Add(-1 * time.Hour),
//	}
//	filtered := logging.FilterLogs(entries, filter)
//
//	logging.ExportLogEntries(filtered, "errors.json", "json")
//
// # Log Levels
//
// The package defines four log levels:
//
//   - [LevelDebug]: Detailed information for debugging
//   - [LevelInfo]: General operational information (default)
//   - [LevelWarn]: Warning conditions that may need attention
//   - [LevelError]: Error conditions that affect functionality
//
// Use [ValidLevels] to get the list of valid level strings, and [ParseLevel]
// to normalize user-provided level strings.
package logging
