package logging

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAggregateLogs(t *testing.T) {
	t.Run("parses log entries from data directory", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}

		logger.WithProject("proj-1").WithWorktree("wt-1").WithComponent("store").Info("message 1", "extra", "data")
		logger.WithProject("proj-1").WithWorktree("wt-2").WithComponent("proc").Debug("message 2")
		logger.WithProject("proj-1").Error("message 3", "code", 500)

		_ = logger.Close()

		entries, err := AggregateLogs(dir)
		if err != nil {
			t.Fatalf("AggregateLogs failed: %v", err)
		}

		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}

		if entries[0].Message != "message 1" {
			t.Errorf("expected message 'message 1', got %q", entries[0].Message)
		}
		if entries[0].Level != "INFO" {
			t.Errorf("expected level INFO, got %q", entries[0].Level)
		}
		if entries[0].ProjectID != "proj-1" {
			t.Errorf("expected project_id 'proj-1', got %q", entries[0].ProjectID)
		}
		if entries[0].WorktreeID != "wt-1" {
			t.Errorf("expected worktree_id 'wt-1', got %q", entries[0].WorktreeID)
		}
		if entries[0].Component != "store" {
			t.Errorf("expected component 'store', got %q", entries[0].Component)
		}
		if entries[0].Attrs["extra"] != "data" {
			t.Errorf("expected extra=data, got %v", entries[0].Attrs["extra"])
		}
	})

	t.Run("returns error for missing log file", func(t *testing.T) {
		dir := t.TempDir()

		_, err := AggregateLogs(dir)
		if err == nil {
			t.Error("expected error for missing log file")
		}
		if !strings.Contains(err.Error(), "no log file found") {
			t.Errorf("expected 'no log file found' error, got: %v", err)
		}
	})

	t.Run("handles empty log file", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, LogFileName)

		if err := os.WriteFile(logPath, []byte(""), 0644); err != nil {
			t.Fatalf("failed to create empty log file: %v", err)
		}

		entries, err := AggregateLogs(dir)
		if err != nil {
			t.Fatalf("AggregateLogs failed: %v", err)
		}

		if len(entries) != 0 {
			t.Errorf("expected 0 entries, got %d", len(entries))
		}
	})

	t.Run("skips malformed JSON lines", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, LogFileName)

		content := `{"time":"2024-01-01T12:00:00Z","level":"INFO","msg":"valid"}
invalid json line
{"time":"2024-01-01T12:00:01Z","level":"ERROR","msg":"also valid"}
`
		if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create log file: %v", err)
		}

		entries, err := AggregateLogs(dir)
		if err != nil {
			t.Fatalf("AggregateLogs failed: %v", err)
		}

		if len(entries) != 2 {
			t.Fatalf("expected 2 entries (malformed skipped), got %d", len(entries))
		}
	})

	t.Run("sorts entries by timestamp", func(t *testing.T) {
		dir := t.TempDir()
		logPath := filepath.Join(dir, LogFileName)

		content := `{"time":"2024-01-01T12:00:05Z","level":"INFO","msg":"third"}
{"time":"2024-01-01T12:00:01Z","level":"INFO","msg":"first"}
{"time":"2024-01-01T12:00:03Z","level":"INFO","msg":"second"}
`
		if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create log file: %v", err)
		}

		entries, err := AggregateLogs(dir)
		if err != nil {
			t.Fatalf("AggregateLogs failed: %v", err)
		}

		want := []string{"first", "second", "third"}
		for i, w := range want {
			if entries[i].Message != w {
				t.Errorf("entries[%d].Message = %q, want %q", i, entries[i].Message, w)
			}
		}
	})
}

func testEntries() []LogEntry {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return []LogEntry{
		{Timestamp: base, Level: "DEBUG", Message: "dispatch received", ProjectID: "proj-1", Component: "store"},
		{Timestamp: base.Add(1 * time.Minute), Level: "INFO", Message: "task started", ProjectID: "proj-1", WorktreeID: "wt-1", Component: "proc"},
		{Timestamp: base.Add(2 * time.Minute), Level: "WARN", Message: "slow persist", ProjectID: "proj-2", Component: "persist"},
		{Timestamp: base.Add(3 * time.Minute), Level: "ERROR", Message: "spawn failed", ProjectID: "proj-1", WorktreeID: "wt-1", Component: "proc"},
	}
}

func TestFilterLogs(t *testing.T) {
	entries := testEntries()

	tests := []struct {
		name   string
		filter LogFilter
		want   []string
	}{
		{
			name:   "empty filter returns all",
			filter: LogFilter{},
			want:   []string{"dispatch received", "task started", "slow persist", "spawn failed"},
		},
		{
			name:   "level filter",
			filter: LogFilter{Level: "WARN"},
			want:   []string{"slow persist", "spawn failed"},
		},
		{
			name:   "project filter",
			filter: LogFilter{ProjectID: "proj-2"},
			want:   []string{"slow persist"},
		},
		{
			name:   "worktree filter",
			filter: LogFilter{WorktreeID: "wt-1"},
			want:   []string{"task started", "spawn failed"},
		},
		{
			name:   "component filter",
			filter: LogFilter{Component: "proc"},
			want:   []string{"task started", "spawn failed"},
		},
		{
			name:   "message contains filter",
			filter: LogFilter{MessageContains: "persist"},
			want:   []string{"slow persist"},
		},
		{
			name: "time range filter",
			filter: LogFilter{
				StartTime: time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC),
				EndTime:   time.Date(2024, 1, 1, 12, 2, 0, 0, time.UTC),
			},
			want: []string{"task started", "slow persist"},
		},
		{
			name:   "combined filters are AND",
			filter: LogFilter{Level: "INFO", Component: "proc", ProjectID: "proj-1"},
			want:   []string{"task started", "spawn failed"},
		},
		{
			name:   "no matches",
			filter: LogFilter{ProjectID: "proj-9"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterLogs(entries, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].Message != w {
					t.Errorf("got[%d].Message = %q, want %q", i, got[i].Message, w)
				}
			}
		})
	}
}

func TestExportLogEntries(t *testing.T) {
	entries := testEntries()

	t.Run("json export", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.json")
		if err := ExportLogEntries(entries, out, "json"); err != nil {
			t.Fatalf("ExportLogEntries failed: %v", err)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}

		var parsed []LogEntry
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("export is not valid JSON: %v", err)
		}
		if len(parsed) != len(entries) {
			t.Errorf("exported %d entries, want %d", len(parsed), len(entries))
		}
	})

	t.Run("text export", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.txt")
		if err := ExportLogEntries(entries, out, "text"); err != nil {
			t.Fatalf("ExportLogEntries failed: %v", err)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}

		text := string(data)
		if !strings.Contains(text, "spawn failed") {
			t.Error("text export missing message")
		}
		if !strings.Contains(text, "project=proj-1") {
			t.Error("text export missing project context")
		}
	})

	t.Run("csv export", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.csv")
		if err := ExportLogEntries(entries, out, "csv"); err != nil {
			t.Fatalf("ExportLogEntries failed: %v", err)
		}

		f, err := os.Open(out)
		if err != nil {
			t.Fatalf("failed to open export: %v", err)
		}
		defer f.Close()

		records, err := csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatalf("export is not valid CSV: %v", err)
		}

		// Header + one row per entry
		if len(records) != len(entries)+1 {
			t.Fatalf("got %d CSV records, want %d", len(records), len(entries)+1)
		}
		if records[0][3] != "project_id" {
			t.Errorf("header[3] = %q, want project_id", records[0][3])
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.xml")
		err := ExportLogEntries(entries, out, "xml")
		if err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}

func TestExportLogs(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.WithComponent("ipc").Info("client connected")
	_ = logger.Close()

	out := filepath.Join(t.TempDir(), "logs.json")
	if err := ExportLogs(dir, out, "json"); err != nil {
		t.Fatalf("ExportLogs failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.Contains(string(data), "client connected") {
		t.Error("export missing logged message")
	}
}
