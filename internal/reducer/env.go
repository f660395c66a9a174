package reducer

import (
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

func setEnvTrackedPatterns(s *state.AppState, a *action.SetEnvTrackedPatterns) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	p.Env.TrackedPatterns = append([]string{}, a.Patterns...)
	return nil, nil
}

func setEnvAutoCopy(s *state.AppState, a *action.SetEnvAutoCopy) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	p.Env.AutoCopy = a.Enabled
	return nil, nil
}

func setEnvSourceWorktree(s *state.AppState, a *action.SetEnvSourceWorktree) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	if a.WorktreeID != "" && p.WorktreeByID(a.WorktreeID) == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "worktree not found").
			WithEntity("worktree", a.WorktreeID)
	}
	p.Env.SourceWorktreeID = a.WorktreeID
	return nil, nil
}

// copyEnvFiles copies tracked env files into the target worktree. The source
// defaults to the main worktree when none is configured.
func copyEnvFiles(s *state.AppState, a *action.CopyEnvFiles) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	target := p.WorktreeByID(a.TargetWorktreeID)
	if target == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "target worktree not found").
			WithEntity("worktree", a.TargetWorktreeID)
	}
	source := envSourceWorktree(p)
	if source == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "no source worktree for env copy").
			WithEntity("project", p.ID)
	}
	if source.ID == target.ID {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"source and target worktree are the same").
			WithEntity("worktree", target.ID)
	}
	return []effect.Effect{effect.CopyEnvFiles{
		ProjectID:        p.ID,
		TargetWorktreeID: target.ID,
		SrcDir:           source.Path,
		DstDir:           target.Path,
		Patterns:         append([]string{}, p.Env.TrackedPatterns...),
	}}, nil
}

func setEnvCopyResult(s *state.AppState, a *action.SetEnvCopyResult, now time.Time) ([]effect.Effect, error) {
	for _, p := range s.Projects {
		if p.ID != a.ProjectID {
			continue
		}
		p.Env.LastCopyResult = &state.EnvCopyResult{
			SourceWorktreeID: p.Env.SourceWorktreeID,
			TargetWorktreeID: a.TargetWorktreeID,
			CopiedFiles:      append([]string{}, a.Copied...),
			Error:            a.Error,
			CopiedAt:         now,
		}
		return nil, nil
	}
	return nil, nil
}

// envSourceWorktree resolves the configured copy source, falling back to the
// main worktree.
func envSourceWorktree(p *state.Project) *state.Worktree {
	if p.Env.SourceWorktreeID != "" {
		if wt := p.WorktreeByID(p.Env.SourceWorktreeID); wt != nil {
			return wt
		}
	}
	for _, wt := range p.Worktrees {
		if wt.IsMain {
			return wt
		}
	}
	return nil
}
