package reducer

import (
	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

func spawnTerminal(s *state.AppState, a *action.SpawnTerminal) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	if wt.Terminal.Running {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"worktree already has a terminal session").
			WithEntity("worktree", wt.ID)
	}
	wt.Terminal.Cols = a.Cols
	wt.Terminal.Rows = a.Rows
	return []effect.Effect{effect.SpawnTerminal{
		Ref:  refOf(p, wt),
		Dir:  wt.Path,
		Cols: a.Cols,
		Rows: a.Rows,
	}}, nil
}

func setTerminalSession(s *state.AppState, a *action.SetTerminalSession) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	if a.Error != "" || a.SessionID == "" {
		wt.Terminal = state.TerminalState{}
		return nil, nil
	}
	wt.Terminal.SessionID = a.SessionID
	wt.Terminal.Running = true
	return nil, nil
}

func resizeTerminal(s *state.AppState, a *action.ResizeTerminal) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	wt.Terminal.Cols = a.Cols
	wt.Terminal.Rows = a.Rows
	if !wt.Terminal.Running {
		return nil, nil
	}
	return []effect.Effect{effect.ResizeTerminal{
		Ref:       refOf(p, wt),
		SessionID: wt.Terminal.SessionID,
		Cols:      a.Cols,
		Rows:      a.Rows,
	}}, nil
}

func closeTerminal(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	if !wt.Terminal.Running {
		return nil, nil
	}
	sessionID := wt.Terminal.SessionID
	wt.Terminal = state.TerminalState{}
	return []effect.Effect{effect.CloseTerminal{Ref: refOf(p, wt), SessionID: sessionID}}, nil
}
