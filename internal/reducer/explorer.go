package reducer

import (
	"path"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

func exploreDir(s *state.AppState, a *action.ExploreDir) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	return []effect.Effect{effect.ListDir{Ref: refOf(p, wt), Dir: wt.Path, Path: a.Path}}, nil
}

func setExplorerEntries(s *state.AppState, a *action.SetExplorerEntries) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	if a.Error != "" {
		wt.Explorer.Error = a.Error
		wt.Explorer.Entries = []state.ExplorerEntry{}
		wt.Explorer.CurrentDir = a.Path
		return nil, nil
	}
	wt.Explorer.Error = ""
	wt.Explorer.CurrentDir = a.Path
	wt.Explorer.Entries = make([]state.ExplorerEntry, 0, len(a.Entries))
	for _, e := range a.Entries {
		wt.Explorer.Entries = append(wt.Explorer.Entries, state.ExplorerEntry{
			Name:  e.Name,
			Path:  path.Join(a.Path, e.Name),
			IsDir: e.IsDir,
			Size:  e.Size,
		})
	}
	return nil, nil
}

func setExplorerSort(s *state.AppState, a *action.SetExplorerSort) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	switch a.SortBy {
	case "name", "size", "modified":
	default:
		return nil, errors.NewValidationError("unknown sort key").
			WithActionType(a.ActionType()).
			WithField("sort_by").
			WithValue(a.SortBy)
	}
	wt.Explorer.SortBy = a.SortBy
	return nil, nil
}

func setExplorerFilter(s *state.AppState, a *action.SetExplorerFilter) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	wt.Explorer.Filter = a.Filter
	return nil, nil
}

func selectExplorerFile(s *state.AppState, a *action.SelectExplorerFile) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	wt.Explorer.SelectedFile = a.Path
	wt.Explorer.SelectedContent = ""
	return []effect.Effect{effect.ReadWorktreeFile{Ref: refOf(p, wt), Dir: wt.Path, Path: a.Path}}, nil
}

// setExplorerFileContent delivers a read result. Content for a file that is
// no longer selected is dropped.
func setExplorerFileContent(s *state.AppState, a *action.SetExplorerFileContent) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil || wt.Explorer.SelectedFile != a.Path {
		return nil, nil
	}
	if a.Error != "" {
		wt.Explorer.Error = a.Error
		return nil, nil
	}
	wt.Explorer.Error = ""
	wt.Explorer.SelectedContent = a.Content
	return nil, nil
}
