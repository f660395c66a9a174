package reducer

import (
	"fmt"
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/builtin"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

// openProject opens the project at the given path, or switches to it if it
// is already open. A fresh project starts with a placeholder main worktree;
// discovery effects fill in the rest.
func openProject(s *state.AppState, a *action.OpenProject, now time.Time) ([]effect.Effect, error) {
	if idx := s.ProjectIndexByPath(a.Path); idx >= 0 {
		s.ActiveProjectIndex = idx
		s.TouchRecent(a.Path, now)
		return nil, nil
	}

	p := state.NewProject(a.Path)
	builtin.Attach(p)
	s.Projects = append(s.Projects, p)
	s.ActiveProjectIndex = len(s.Projects) - 1
	s.TouchRecent(a.Path, now)

	wt := p.Worktrees[0]
	ref := refOf(p, wt)
	return []effect.Effect{
		effect.ScanWorktrees{ProjectID: p.ID, Path: p.Path},
		effect.LoadJustCommands{Ref: ref, Dir: wt.Path},
		effect.ProbeConstitution{Ref: ref, Dir: wt.Path},
		effect.ProbeClaudeMd{Ref: ref, Dir: wt.Path},
		effect.ProbeContext{Ref: ref, Dir: wt.Path},
	}, nil
}

// closeProject removes the project at index. Closing the active project
// moves the selection to the previous project, or to none.
func closeProject(s *state.AppState, a *action.CloseProject) ([]effect.Effect, error) {
	if a.Index < 0 || a.Index >= len(s.Projects) {
		return nil, errors.NewInvariantError(errors.CodeIndexOutOfRange,
			fmt.Sprintf("no project at index %d", a.Index))
	}

	s.Projects = append(s.Projects[:a.Index], s.Projects[a.Index+1:]...)
	switch {
	case len(s.Projects) == 0:
		s.ActiveProjectIndex = -1
	case s.ActiveProjectIndex > a.Index:
		s.ActiveProjectIndex--
	case s.ActiveProjectIndex == a.Index:
		if s.ActiveProjectIndex >= len(s.Projects) {
			s.ActiveProjectIndex = len(s.Projects) - 1
		}
	}
	return nil, nil
}

// switchProject makes the project at index active. An out-of-range index is
// rejected, never clamped.
func switchProject(s *state.AppState, a *action.SwitchProject) ([]effect.Effect, error) {
	if a.Index < 0 || a.Index >= len(s.Projects) {
		return nil, errors.NewInvariantError(errors.CodeIndexOutOfRange,
			fmt.Sprintf("no project at index %d", a.Index))
	}
	s.ActiveProjectIndex = a.Index
	return nil, nil
}

func setActiveView(s *state.AppState, a *action.SetActiveView) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	p.ActiveView = a.View
	return nil, nil
}

func setTheme(s *state.AppState, a *action.SetTheme) ([]effect.Effect, error) {
	s.Settings.Theme = a.Theme
	return nil, nil
}

func setDefaultProjectPath(s *state.AppState, a *action.SetDefaultProjectPath) ([]effect.Effect, error) {
	s.Settings.DefaultProjectPath = a.Path
	return nil, nil
}

// restoreProjectConfig merges the durable subset back into an open project.
// Built-in profiles and presets stay attached from the catalogue; only the
// persisted customs and scalar settings come from disk.
func restoreProjectConfig(s *state.AppState, a *action.RestoreProjectConfig) ([]effect.Effect, error) {
	idx := s.ProjectIndexByPath(a.Path)
	if idx < 0 {
		return nil, nil
	}
	p := s.Projects[idx]

	if a.ActiveView != "" {
		p.ActiveView = a.ActiveView
	}
	p.AgentRules.Enabled = a.AgentRules.Enabled
	p.AgentRules.Prompt = a.AgentRules.Prompt
	p.AgentRules.SelectedProfileID = a.AgentRules.SelectedProfileID
	for _, prof := range a.AgentRules.Profiles {
		if prof.IsBuiltin || p.AgentRules.ProfileByID(prof.ID) != nil {
			continue
		}
		p.AgentRules.Profiles = append(p.AgentRules.Profiles, prof)
	}
	if len(a.Env.TrackedPatterns) > 0 {
		p.Env.TrackedPatterns = append([]string(nil), a.Env.TrackedPatterns...)
	}
	p.Env.AutoCopy = a.Env.AutoCopy

	if main := p.MainWorktree(); main != nil {
		con := &main.Tasks.Constitution
		for _, preset := range a.Presets {
			if preset.IsBuiltin || con.PresetByID(preset.ID) != nil {
				continue
			}
			con.Presets = append(con.Presets, preset)
		}
		if a.SelectedPresetID != "" {
			con.SelectedPresetID = a.SelectedPresetID
		}
	}
	return nil, nil
}
