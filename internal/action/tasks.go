package action

import "github.com/calmren/atelier/internal/state"

func init() {
	register(func() Action { return &LoadJustCommands{} })
	register(func() Action { return &SetJustCommands{} })
	register(func() Action { return &RunJustCommand{} })
	register(func() Action { return &CancelJustCommand{} })
	register(func() Action { return &AppendTaskOutput{} })
	register(func() Action { return &CompleteTask{} })
	register(func() Action { return &ClearTaskOutput{} })
	register(func() Action { return &SetTasksError{} })
}

// LoadJustCommands discovers runnable recipes for the active worktree
// (effect: shells to the task runner).
type LoadJustCommands struct{}

func (*LoadJustCommands) ActionType() string { return "LoadJustCommands" }

// SetJustCommands delivers recipe discovery results.
type SetJustCommands struct {
	Ref      WorktreeRef         `json:"ref"`
	Commands []state.JustCommand `json:"commands"`
	Error    string              `json:"error,omitempty"`
}

func (*SetJustCommands) ActionType() string { return "SetJustCommands" }

// RunJustCommand starts the named recipe in the active worktree. A second
// run request while the recipe is running is rejected, not queued.
type RunJustCommand struct {
	Name string `json:"name"`
}

func (*RunJustCommand) ActionType() string { return "RunJustCommand" }

func (a *RunJustCommand) Validate() error {
	return requireString(a.ActionType(), "name", a.Name)
}

// CancelJustCommand terminates a running recipe. Cancelling a recipe that
// is not running is a no-op.
type CancelJustCommand struct {
	Name string `json:"name"`
}

func (*CancelJustCommand) ActionType() string { return "CancelJustCommand" }

func (a *CancelJustCommand) Validate() error {
	return requireString(a.ActionType(), "name", a.Name)
}

// AppendTaskOutput streams one output line into a running task record.
type AppendTaskOutput struct {
	Ref  WorktreeRef `json:"ref"`
	Name string      `json:"name"`
	Line string      `json:"line"`
}

func (*AppendTaskOutput) ActionType() string { return "AppendTaskOutput" }

func (a *AppendTaskOutput) Validate() error {
	return requireString(a.ActionType(), "name", a.Name)
}

// CompleteTask marks a running task terminal with its outcome.
type CompleteTask struct {
	Ref      WorktreeRef      `json:"ref"`
	Name     string           `json:"name"`
	Status   state.TaskStatus `json:"status"`
	ExitCode int              `json:"exit_code"`
	Error    string           `json:"error,omitempty"`
}

func (*CompleteTask) ActionType() string { return "CompleteTask" }

func (a *CompleteTask) Validate() error {
	if err := requireString(a.ActionType(), "name", a.Name); err != nil {
		return err
	}
	return nil
}

// ClearTaskOutput discards the output buffer of a finished task.
type ClearTaskOutput struct {
	Name string `json:"name"`
}

func (*ClearTaskOutput) ActionType() string { return "ClearTaskOutput" }

func (a *ClearTaskOutput) Validate() error {
	return requireString(a.ActionType(), "name", a.Name)
}

// SetTasksError records a task-surface-level error (e.g. justfile parse
// failure).
type SetTasksError struct {
	Ref   WorktreeRef `json:"ref"`
	Error string      `json:"error"`
}

func (*SetTasksError) ActionType() string { return "SetTasksError" }
