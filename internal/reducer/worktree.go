package reducer

import (
	"fmt"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/builtin"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

// switchWorktree activates the worktree at index within the active project.
// An out-of-range index is rejected, never clamped.
func switchWorktree(s *state.AppState, a *action.SwitchWorktree) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	if a.Index < 0 || a.Index >= len(p.Worktrees) {
		return nil, errors.NewInvariantError(errors.CodeIndexOutOfRange,
			fmt.Sprintf("no worktree at index %d", a.Index)).
			WithEntity("project", p.ID)
	}
	p.ActiveWorktreeIndex = a.Index
	return nil, nil
}

func refreshWorktrees(s *state.AppState) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	return []effect.Effect{effect.ScanWorktrees{ProjectID: p.ID, Path: p.Path}}, nil
}

// setWorktrees replaces the project's worktree list with discovery results.
// Worktrees whose path survives keep their id and feature state; new paths
// get fresh worktrees, and the active index follows the previously active
// path where possible.
func setWorktrees(s *state.AppState, a *action.SetWorktrees) ([]effect.Effect, error) {
	var p *state.Project
	for _, cand := range s.Projects {
		if cand.ID == a.ProjectID {
			p = cand
			break
		}
	}
	if p == nil {
		return nil, nil // project closed while the scan ran
	}

	byPath := make(map[string]*state.Worktree, len(p.Worktrees))
	for _, wt := range p.Worktrees {
		byPath[wt.Path] = wt
	}
	var activePath string
	if wt := p.ActiveWorktree(); wt != nil {
		activePath = wt.Path
	}

	next := make([]*state.Worktree, 0, len(a.Worktrees))
	var effects []effect.Effect
	for _, info := range a.Worktrees {
		if existing, ok := byPath[info.Path]; ok {
			existing.Branch = info.Branch
			existing.IsMain = info.IsMain
			next = append(next, existing)
			continue
		}
		wt := state.NewWorktree(info.Path, info.Branch, info.IsMain)
		next = append(next, wt)
		ref := refOf(p, wt)
		effects = append(effects,
			effect.LoadJustCommands{Ref: ref, Dir: wt.Path},
			effect.ProbeConstitution{Ref: ref, Dir: wt.Path},
			effect.ProbeContext{Ref: ref, Dir: wt.Path},
		)
	}
	p.Worktrees = next
	builtin.Attach(p)

	p.ActiveWorktreeIndex = 0
	for i, wt := range p.Worktrees {
		if wt.Path == activePath {
			p.ActiveWorktreeIndex = i
			break
		}
	}
	return effects, nil
}

func addWorktree(s *state.AppState, a *action.AddWorktree) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	return []effect.Effect{effect.CreateWorktree{
		ProjectID: p.ID,
		RepoPath:  p.Path,
		Branch:    a.Branch,
		NewBranch: a.NewBranch,
	}}, nil
}

// removeWorktree deletes a linked worktree. The main worktree is protected.
func removeWorktree(s *state.AppState, a *action.RemoveWorktree) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	wt := p.WorktreeByID(a.WorktreeID)
	if wt == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "worktree not found").
			WithEntity("worktree", a.WorktreeID)
	}
	if wt.IsMain {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"the main worktree cannot be removed").
			WithEntity("worktree", wt.ID)
	}
	return []effect.Effect{effect.DeleteWorktree{
		ProjectID:    p.ID,
		RepoPath:     p.Path,
		WorktreePath: wt.Path,
	}}, nil
}

func fetchBranches(s *state.AppState) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	return []effect.Effect{effect.ListBranches{ProjectID: p.ID, Path: p.Path}}, nil
}

func setBranches(s *state.AppState, a *action.SetBranches) ([]effect.Effect, error) {
	for _, p := range s.Projects {
		if p.ID != a.ProjectID {
			continue
		}
		p.BranchesError = a.Error
		p.Branches = p.Branches[:0]
		for _, b := range a.Branches {
			p.Branches = append(p.Branches, state.Branch{
				Name:      b.Name,
				IsCurrent: b.IsCurrent,
				IsRemote:  b.IsRemote,
			})
		}
		return nil, nil
	}
	return nil, nil
}

func setWorktreeModified(s *state.AppState, a *action.SetWorktreeModified) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	wt.IsModified = a.Modified
	return nil, nil
}
