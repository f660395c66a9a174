package state

import "time"

// JustCommand is one runnable recipe discovered from the worktree's justfile.
type JustCommand struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TaskRun is the live record of one task-runner invocation, keyed by command
// name. Output accumulates line by line while the run streams.
type TaskRun struct {
	Status     TaskStatus `json:"status"`
	Output     []string   `json:"output"`
	ExitCode   int        `json:"exit_code"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at,omitzero"`
}

// TasksState is the per-worktree task-runner feature state. The constitution
// workflow, its presets, and the review gate live here because the renderer
// hosts them inside the tasks surface.
type TasksState struct {
	Commands     []JustCommand       `json:"commands"`
	Runs         map[string]*TaskRun `json:"runs"`
	Error        string              `json:"error,omitempty"`
	Constitution ConstitutionState   `json:"constitution"`
	ReviewGate   ReviewGateState     `json:"review_gate"`
}

// NewTasksState returns an empty tasks feature state.
func NewTasksState() TasksState {
	return TasksState{
		Commands:     []JustCommand{},
		Runs:         map[string]*TaskRun{},
		Constitution: NewConstitutionState(),
		ReviewGate:   NewReviewGateState(),
	}
}

// RunningTask returns the run record for name if it is currently running.
func (t *TasksState) RunningTask(name string) *TaskRun {
	run, ok := t.Runs[name]
	if !ok || run.Status != TaskRunning {
		return nil
	}
	return run
}

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// ChatMessage is one message of the per-worktree agent conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Streaming bool      `json:"streaming,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxDebugLogs caps the chat debug log ring buffer.
const MaxDebugLogs = 500

// ChatState is the per-worktree agent chat feature state.
type ChatState struct {
	Messages  []ChatMessage `json:"messages"`
	IsTyping  bool          `json:"is_typing"`
	Error     string        `json:"error,omitempty"`
	DebugLogs []string      `json:"debug_logs"`
}

// NewChatState returns an empty chat feature state.
func NewChatState() ChatState {
	return ChatState{
		Messages:  []ChatMessage{},
		DebugLogs: []string{},
	}
}

// LastAssistantMessage returns the trailing assistant message if it is still
// streaming, or nil. Streamed tokens append here.
func (c *ChatState) LastAssistantMessage() *ChatMessage {
	if len(c.Messages) == 0 {
		return nil
	}
	last := &c.Messages[len(c.Messages)-1]
	if last.Role != RoleAssistant {
		return nil
	}
	return last
}

// AppendDebugLog appends a debug line, trimming the oldest past MaxDebugLogs.
func (c *ChatState) AppendDebugLog(line string) {
	c.DebugLogs = append(c.DebugLogs, line)
	if len(c.DebugLogs) > MaxDebugLogs {
		c.DebugLogs = c.DebugLogs[len(c.DebugLogs)-MaxDebugLogs:]
	}
}

// McpLogDirection marks an MCP log entry as inbound or outbound.
type McpLogDirection string

const (
	McpLogIn  McpLogDirection = "in"
	McpLogOut McpLogDirection = "out"
)

// McpLogEntry is one protocol log line of the per-worktree MCP server.
type McpLogEntry struct {
	Direction McpLogDirection `json:"direction"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

// McpTool describes one tool the MCP server exposes.
type McpTool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// MaxMcpLogs caps the MCP protocol log ring buffer.
const MaxMcpLogs = 500

// McpState is the per-worktree MCP server feature state.
type McpState struct {
	Status McpStatus     `json:"status"`
	Port   int           `json:"port,omitempty"`
	Error  string        `json:"error,omitempty"`
	Logs   []McpLogEntry `json:"logs"`
	Tools  []McpTool     `json:"tools"`
}

// NewMcpState returns a stopped MCP feature state.
func NewMcpState() McpState {
	return McpState{
		Status: McpStopped,
		Logs:   []McpLogEntry{},
		Tools:  []McpTool{},
	}
}

// AppendLog appends a protocol log entry, trimming the oldest past MaxMcpLogs.
func (m *McpState) AppendLog(entry McpLogEntry) {
	m.Logs = append(m.Logs, entry)
	if len(m.Logs) > MaxMcpLogs {
		m.Logs = m.Logs[len(m.Logs)-MaxMcpLogs:]
	}
}

// TerminalState is the per-worktree embedded terminal feature state.
type TerminalState struct {
	SessionID string `json:"session_id,omitempty"`
	Running   bool   `json:"running"`
	Cols      int    `json:"cols,omitempty"`
	Rows      int    `json:"rows,omitempty"`
}

// ExplorerEntry is one row of the file explorer listing.
type ExplorerEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// ExplorerState is the per-worktree file explorer feature state.
type ExplorerState struct {
	CurrentDir      string          `json:"current_dir,omitempty"`
	Entries         []ExplorerEntry `json:"entries"`
	SortBy          string          `json:"sort_by"`
	Filter          string          `json:"filter,omitempty"`
	SelectedFile    string          `json:"selected_file,omitempty"`
	SelectedContent string          `json:"selected_content,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// NewExplorerState returns an empty explorer state sorted by name.
func NewExplorerState() ExplorerState {
	return ExplorerState{
		Entries: []ExplorerEntry{},
		SortBy:  "name",
	}
}

// ContextFile is one tracked living-context document.
type ContextFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Exists    bool      `json:"exists"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// ContextState is the per-worktree living-context feature state.
type ContextState struct {
	Initialized     bool          `json:"initialized"`
	Files           []ContextFile `json:"files"`
	Generating      bool          `json:"generating"`
	StreamingOutput string        `json:"streaming_output,omitempty"`
	Error           string        `json:"error,omitempty"`
	LastSyncedAt    time.Time     `json:"last_synced_at,omitzero"`
}

// NewContextState returns an uninitialized context feature state.
func NewContextState() ContextState {
	return ContextState{Files: []ContextFile{}}
}
