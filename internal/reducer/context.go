package reducer

import (
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

func initializeContext(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	return []effect.Effect{effect.ProbeContext{Ref: refOf(p, wt), Dir: wt.Path}}, nil
}

func setContextFiles(s *state.AppState, a *action.SetContextFiles) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	ctx := &wt.Context
	if a.Error != "" {
		ctx.Error = a.Error
		return nil, nil
	}
	ctx.Initialized = true
	ctx.Error = ""
	ctx.Files = make([]state.ContextFile, 0, len(a.Files))
	for _, f := range a.Files {
		ctx.Files = append(ctx.Files, state.ContextFile{
			Name:   f.Name,
			Path:   f.Path,
			Exists: f.Exists,
		})
	}
	return nil, nil
}

func generateContext(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	if wt.Context.Generating {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"context generation is in progress").
			WithEntity("worktree", wt.ID)
	}
	wt.Context.Generating = true
	wt.Context.StreamingOutput = ""
	wt.Context.Error = ""
	return []effect.Effect{effect.GenerateContext{Ref: refOf(p, wt), Dir: wt.Path}}, nil
}

func appendContextOutput(s *state.AppState, a *action.AppendContextOutput) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil || !wt.Context.Generating {
		return nil, nil
	}
	wt.Context.StreamingOutput += a.Chunk
	return nil, nil
}

// completeGenerateContext ends generation and re-probes, since the agent
// wrote the documents to disk.
func completeGenerateContext(s *state.AppState, a *action.CompleteGenerateContext) ([]effect.Effect, error) {
	p, wt := resolveRef(s, a.Ref)
	if wt == nil || !wt.Context.Generating {
		return nil, nil
	}
	wt.Context.Generating = false
	wt.Context.StreamingOutput = ""
	return []effect.Effect{effect.ProbeContext{Ref: refOf(p, wt), Dir: wt.Path}}, nil
}

func failGenerateContext(s *state.AppState, a *action.FailGenerateContext) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	wt.Context.Generating = false
	wt.Context.Error = a.Error
	return nil, nil
}

// syncContext copies context documents from the main worktree. Syncing the
// main worktree into itself is rejected.
func syncContext(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	if wt.IsMain {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"the main worktree is the sync source").
			WithEntity("worktree", wt.ID)
	}
	var main *state.Worktree
	for _, cand := range p.Worktrees {
		if cand.IsMain {
			main = cand
			break
		}
	}
	if main == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "project has no main worktree").
			WithEntity("project", p.ID)
	}
	return []effect.Effect{effect.SyncContext{
		Ref:     refOf(p, wt),
		MainDir: main.Path,
		Dir:     wt.Path,
	}}, nil
}

func completeContextSync(s *state.AppState, a *action.CompleteContextSync, now time.Time) ([]effect.Effect, error) {
	p, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	if a.Error != "" {
		wt.Context.Error = a.Error
		return nil, nil
	}
	wt.Context.Error = ""
	wt.Context.LastSyncedAt = now
	return []effect.Effect{effect.ProbeContext{Ref: refOf(p, wt), Dir: wt.Path}}, nil
}
