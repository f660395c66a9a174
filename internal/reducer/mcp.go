package reducer

import (
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

func startMcpServer(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	if wt.Mcp.Status == state.McpStarting || wt.Mcp.Status == state.McpRunning {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"MCP server is already "+string(wt.Mcp.Status)).
			WithEntity("worktree", wt.ID)
	}
	wt.Mcp.Status = state.McpStarting
	wt.Mcp.Error = ""
	return []effect.Effect{effect.StartMcp{Ref: refOf(p, wt), Dir: wt.Path}}, nil
}

// stopMcpServer requests shutdown. Stopping an already stopped server is a
// no-op.
func stopMcpServer(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	if wt.Mcp.Status == state.McpStopped {
		return nil, nil
	}
	return []effect.Effect{effect.StopMcp{Ref: refOf(p, wt)}}, nil
}

func setMcpStatus(s *state.AppState, a *action.SetMcpStatus) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	wt.Mcp.Status = a.Status
	wt.Mcp.Port = a.Port
	wt.Mcp.Error = a.Error
	if a.Status == state.McpStopped {
		wt.Mcp.Tools = []state.McpTool{}
	}
	return nil, nil
}

func addMcpLogEntry(s *state.AppState, a *action.AddMcpLogEntry, now time.Time) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	wt.Mcp.AppendLog(state.McpLogEntry{
		Direction: a.Direction,
		Message:   a.Message,
		Timestamp: now,
	})
	return nil, nil
}

func clearMcpLogs(s *state.AppState) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	wt.Mcp.Logs = []state.McpLogEntry{}
	return nil, nil
}

func updateMcpTools(s *state.AppState, a *action.UpdateMcpTools) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	wt.Mcp.Tools = wt.Mcp.Tools[:0]
	wt.Mcp.Tools = append(wt.Mcp.Tools, a.Tools...)
	return nil, nil
}
