package action

func init() {
	register(func() Action { return &SpawnTerminal{} })
	register(func() Action { return &SetTerminalSession{} })
	register(func() Action { return &ResizeTerminal{} })
	register(func() Action { return &CloseTerminal{} })
}

// SpawnTerminal starts an interactive shell in the active worktree.
type SpawnTerminal struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

func (*SpawnTerminal) ActionType() string { return "SpawnTerminal" }

func (a *SpawnTerminal) Validate() error {
	if err := requireNonNegative(a.ActionType(), "cols", a.Cols); err != nil {
		return err
	}
	return requireNonNegative(a.ActionType(), "rows", a.Rows)
}

// SetTerminalSession records the spawned session, or the spawn failure.
type SetTerminalSession struct {
	Ref       WorktreeRef `json:"ref"`
	SessionID string      `json:"session_id"`
	Error     string      `json:"error,omitempty"`
}

func (*SetTerminalSession) ActionType() string { return "SetTerminalSession" }

// ResizeTerminal forwards a window size change to the pty.
type ResizeTerminal struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

func (*ResizeTerminal) ActionType() string { return "ResizeTerminal" }

func (a *ResizeTerminal) Validate() error {
	if err := requireNonNegative(a.ActionType(), "cols", a.Cols); err != nil {
		return err
	}
	return requireNonNegative(a.ActionType(), "rows", a.Rows)
}

// CloseTerminal terminates the session for the active worktree. Closing a
// worktree with no session is a no-op.
type CloseTerminal struct{}

func (*CloseTerminal) ActionType() string { return "CloseTerminal" }
