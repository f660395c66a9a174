package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/calmren/atelier/internal/config"
	"github.com/calmren/atelier/internal/logging"
	"github.com/calmren/atelier/internal/persist"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View daemon logs",
	Long: `View and filter the daemon log.

Reads the structured log from the data directory, so it works whether
or not a daemon is currently running.

Examples:
  # Show the last 50 entries
  atelier logs

  # Show everything at warn or above
  atelier logs --level warn -n 0

  # Show entries from the last hour for one worktree
  atelier logs --since 1h --worktree 1f0c2a

  # Export the filtered log as CSV
  atelier logs --level error --export errors.csv --format csv`,
	RunE: runLogs,
}

var (
	logsTail      int
	logsLevel     string
	logsSince     string
	logsProject   string
	logsWorktree  string
	logsComponent string
	logsGrep      string
	logsExport    string
	logsFormat    string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsProject, "project", "", "Filter by project id")
	logsCmd.Flags().StringVar(&logsWorktree, "worktree", "", "Filter by worktree id")
	logsCmd.Flags().StringVar(&logsComponent, "component", "", "Filter by component")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter to messages containing this substring")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "Write the filtered entries to this file instead of stdout")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "Export format (json/text/csv)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dataDir, err := cfg.Paths.ResolveDataDir(persist.DataDir)
	if err != nil {
		return err
	}

	filter := logging.LogFilter{
		Level:           logsLevel,
		ProjectID:       logsProject,
		WorktreeID:      logsWorktree,
		Component:       logsComponent,
		MessageContains: logsGrep,
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since duration: %w", err)
		}
		filter.StartTime = time.Now().Add(-d)
	}

	entries, err := logging.AggregateLogs(dataDir)
	if err != nil {
		return err
	}
	entries = logging.FilterLogs(entries, filter)

	if logsExport != "" {
		if err := logging.ExportLogEntries(entries, logsExport, logsFormat); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", len(entries), logsExport)
		return nil
	}

	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}
	for _, e := range entries {
		fmt.Fprintln(cmd.OutOrStdout(), formatLogEntry(e))
	}
	return nil
}

// formatLogEntry renders one entry for terminal output.
func formatLogEntry(e logging.LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-5s %s", e.Timestamp.Format("2006-01-02 15:04:05.000"), e.Level, e.Message)
	if e.Component != "" {
		fmt.Fprintf(&b, " component=%s", e.Component)
	}
	if e.ProjectID != "" {
		fmt.Fprintf(&b, " project=%s", e.ProjectID)
	}
	if e.WorktreeID != "" {
		fmt.Fprintf(&b, " worktree=%s", e.WorktreeID)
	}
	for k, v := range e.Attrs {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	return b.String()
}
