package action

import "github.com/calmren/atelier/internal/state"

func init() {
	register(func() Action { return &StartMcpServer{} })
	register(func() Action { return &StopMcpServer{} })
	register(func() Action { return &SetMcpStatus{} })
	register(func() Action { return &AddMcpLogEntry{} })
	register(func() Action { return &ClearMcpLogs{} })
	register(func() Action { return &UpdateMcpTools{} })
}

// StartMcpServer launches the per-worktree MCP server (effect).
type StartMcpServer struct{}

func (*StartMcpServer) ActionType() string { return "StartMcpServer" }

// StopMcpServer terminates the per-worktree MCP server.
type StopMcpServer struct{}

func (*StopMcpServer) ActionType() string { return "StopMcpServer" }

// SetMcpStatus delivers MCP server lifecycle updates.
type SetMcpStatus struct {
	Ref    WorktreeRef     `json:"ref"`
	Status state.McpStatus `json:"status"`
	Port   int             `json:"port,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (*SetMcpStatus) ActionType() string { return "SetMcpStatus" }

// AddMcpLogEntry appends one protocol log line.
type AddMcpLogEntry struct {
	Ref       WorktreeRef           `json:"ref"`
	Direction state.McpLogDirection `json:"direction"`
	Message   string                `json:"message"`
}

func (*AddMcpLogEntry) ActionType() string { return "AddMcpLogEntry" }

func (a *AddMcpLogEntry) Validate() error {
	if a.Direction != state.McpLogIn && a.Direction != state.McpLogOut {
		return requireString(a.ActionType(), "direction", "")
	}
	return nil
}

// ClearMcpLogs empties the MCP protocol log.
type ClearMcpLogs struct{}

func (*ClearMcpLogs) ActionType() string { return "ClearMcpLogs" }

// UpdateMcpTools replaces the advertised tool list.
type UpdateMcpTools struct {
	Ref   WorktreeRef     `json:"ref"`
	Tools []state.McpTool `json:"tools"`
}

func (*UpdateMcpTools) ActionType() string { return "UpdateMcpTools" }
