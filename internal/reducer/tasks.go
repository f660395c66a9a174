package reducer

import (
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

func loadJustCommands(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	return []effect.Effect{effect.LoadJustCommands{Ref: refOf(p, wt), Dir: wt.Path}}, nil
}

func setJustCommands(s *state.AppState, a *action.SetJustCommands) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	wt.Tasks.Error = a.Error
	wt.Tasks.Commands = wt.Tasks.Commands[:0]
	wt.Tasks.Commands = append(wt.Tasks.Commands, a.Commands...)
	return nil, nil
}

// runJustCommand starts a recipe. A run request while the same recipe is
// running is rejected rather than queued; the caller retries once the run
// finishes. Starting a run marks the worktree modified, since recipes
// commonly touch the working copy.
func runJustCommand(s *state.AppState, a *action.RunJustCommand, now time.Time) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	if wt.Tasks.RunningTask(a.Name) != nil {
		return nil, errors.NewInvariantError(errors.CodeTaskAlreadyRunning,
			"task "+a.Name+" is already running").
			WithEntity("task", a.Name)
	}
	wt.Tasks.Runs[a.Name] = &state.TaskRun{
		Status:    state.TaskRunning,
		Output:    []string{},
		StartedAt: now,
	}
	wt.IsModified = true
	return []effect.Effect{effect.RunTask{Ref: refOf(p, wt), Dir: wt.Path, Name: a.Name}}, nil
}

// cancelJustCommand requests termination of a running recipe. Cancelling a
// recipe that is not running is a no-op; the terminal status lands via
// CompleteTask once the process dies.
func cancelJustCommand(s *state.AppState, a *action.CancelJustCommand) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	if wt.Tasks.RunningTask(a.Name) == nil {
		return nil, nil
	}
	return []effect.Effect{effect.CancelTask{Ref: refOf(p, wt), Name: a.Name}}, nil
}

func appendTaskOutput(s *state.AppState, a *action.AppendTaskOutput) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	run := wt.Tasks.Runs[a.Name]
	if run == nil || run.Status != state.TaskRunning {
		return nil, nil // output raced the completion
	}
	run.Output = append(run.Output, a.Line)
	return nil, nil
}

// completeTask records the terminal outcome of a run. Completion is
// idempotent: a second delivery for an already-terminal run is dropped.
// Reaching a terminal status clears the modified flag set by the run.
func completeTask(s *state.AppState, a *action.CompleteTask, now time.Time) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	run := wt.Tasks.Runs[a.Name]
	if run == nil || run.Status.IsTerminal() {
		return nil, nil
	}
	status := a.Status
	if !status.IsTerminal() {
		status = state.TaskFailed
	}
	run.Status = status
	run.ExitCode = a.ExitCode
	run.FinishedAt = now
	if a.Error != "" {
		run.Output = append(run.Output, a.Error)
	}
	wt.IsModified = false
	return nil, nil
}

func clearTaskOutput(s *state.AppState, a *action.ClearTaskOutput) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	run := wt.Tasks.Runs[a.Name]
	if run == nil {
		return nil, nil
	}
	if run.Status == state.TaskRunning {
		return nil, errors.NewInvariantError(errors.CodeTaskAlreadyRunning,
			"cannot clear output of a running task").
			WithEntity("task", a.Name)
	}
	delete(wt.Tasks.Runs, a.Name)
	return nil, nil
}

func setTasksError(s *state.AppState, a *action.SetTasksError) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	wt.Tasks.Error = a.Error
	return nil, nil
}
