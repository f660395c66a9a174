package reducer

import (
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/builtin"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

// startConstitutionWorkflow opens the interview. A preset pre-fills every
// answered question but the interview still walks through them for editing.
func startConstitutionWorkflow(s *state.AppState, a *action.StartConstitutionWorkflow) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	con := &wt.Tasks.Constitution
	if con.Workflow != nil && con.Workflow.Status == state.WorkflowGenerating {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"constitution generation is in progress").
			WithEntity("worktree", wt.ID)
	}

	wf := state.NewConstitutionWorkflow()
	presetID := a.PresetID
	if presetID == "" {
		presetID = con.SelectedPresetID
	}
	if presetID != "" {
		preset := con.PresetByID(presetID)
		if preset == nil {
			return nil, errors.NewInvariantError(errors.CodeNotFound, "constitution preset not found").
				WithEntity("preset", presetID)
		}
		for k, v := range preset.Answers {
			wf.Answers[k] = v
		}
	}
	con.Workflow = wf
	con.Error = ""
	return nil, nil
}

// answerConstitutionQuestion records the current answer and advances. Blank
// answers never reach here; the decoder rejects them.
func answerConstitutionQuestion(s *state.AppState, a *action.AnswerConstitutionQuestion) ([]effect.Effect, error) {
	wt, wf, err := collectingWorkflow(s)
	if err != nil {
		return nil, err
	}
	if wf.AllAnswered() {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"every interview question is already answered").
			WithEntity("worktree", wt.ID)
	}
	wf.Answers[state.ConstitutionQuestionKeys[wf.CurrentQuestion]] = a.Answer
	wf.CurrentQuestion++
	return nil, nil
}

func generateConstitution(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	con := &wt.Tasks.Constitution
	wf := con.Workflow
	if wf == nil || wf.Status != state.WorkflowCollecting {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"no constitution interview in progress").
			WithEntity("worktree", wt.ID)
	}
	if !wf.AllAnswered() {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"not every interview question is answered").
			WithEntity("worktree", wt.ID)
	}
	wf.Status = state.WorkflowGenerating
	wf.Output = ""

	answers := make(map[string]string, len(wf.Answers))
	for k, v := range wf.Answers {
		answers[k] = v
	}
	var claudeMd string
	if con.ClaudeMdImported {
		claudeMd = con.ClaudeMdContent
	}
	return []effect.Effect{effect.GenerateConstitution{
		Ref:         refOf(p, wt),
		Dir:         wt.Path,
		Answers:     answers,
		ClaudeMd:    claudeMd,
		ReferenceMd: wf.UseClaudeMdReference,
	}}, nil
}

func appendConstitutionOutput(s *state.AppState, a *action.AppendConstitutionOutput) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	wf := wt.Tasks.Constitution.Workflow
	if wf == nil || wf.Status != state.WorkflowGenerating {
		return nil, nil
	}
	wf.Output += a.Chunk
	return nil, nil
}

// completeConstitution closes the workflow and persists the streamed
// document.
func completeConstitution(s *state.AppState, a *action.CompleteConstitution) ([]effect.Effect, error) {
	p, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	con := &wt.Tasks.Constitution
	wf := con.Workflow
	if wf == nil || wf.Status != state.WorkflowGenerating {
		return nil, nil
	}
	wf.Status = state.WorkflowComplete
	con.Exists = true
	con.Content = wf.Output
	con.Error = ""
	return []effect.Effect{effect.WriteConstitution{
		Ref:     refOf(p, wt),
		Dir:     wt.Path,
		Content: wf.Output,
	}}, nil
}

// setConstitutionError records a generation failure. The workflow returns to
// collecting so the interview can be re-run; streamed output stays visible.
func setConstitutionError(s *state.AppState, a *action.SetConstitutionError) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	con := &wt.Tasks.Constitution
	con.Error = a.Error
	if wf := con.Workflow; wf != nil && wf.Status == state.WorkflowGenerating {
		wf.Status = state.WorkflowCollecting
	}
	return nil, nil
}

func clearConstitutionWorkflow(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	con := &wt.Tasks.Constitution
	var effects []effect.Effect
	if wf := con.Workflow; wf != nil && wf.Status == state.WorkflowGenerating {
		effects = append(effects, effect.CancelAgent{Ref: refOf(p, wt), Kind: "constitution"})
	}
	con.Workflow = nil
	con.Error = ""
	return effects, nil
}

// applyDefaultConstitution writes the stock document without an interview.
func applyDefaultConstitution(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	content := builtin.DefaultConstitution()
	con := &wt.Tasks.Constitution
	con.Exists = true
	con.Content = content
	con.Workflow = nil
	con.Error = ""
	return []effect.Effect{effect.WriteConstitution{
		Ref:     refOf(p, wt),
		Dir:     wt.Path,
		Content: content,
	}}, nil
}

func setConstitutionExists(s *state.AppState, a *action.SetConstitutionExists) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	wt.Tasks.Constitution.Exists = a.Exists
	return nil, nil
}

func readConstitution(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	return []effect.Effect{effect.ProbeConstitution{Ref: refOf(p, wt), Dir: wt.Path}}, nil
}

func setConstitutionContent(s *state.AppState, a *action.SetConstitutionContent) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	con := &wt.Tasks.Constitution
	if a.Error != "" {
		con.Error = a.Error
		return nil, nil
	}
	con.Content = a.Content
	con.Exists = a.Content != ""
	con.Error = ""
	return nil, nil
}

func readClaudeMd(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	return []effect.Effect{effect.ProbeClaudeMd{Ref: refOf(p, wt), Dir: wt.Path}}, nil
}

func setClaudeMd(s *state.AppState, a *action.SetClaudeMd) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	con := &wt.Tasks.Constitution
	con.ClaudeMdExists = a.Exists
	con.ClaudeMdContent = a.Content
	return nil, nil
}

func importClaudeMd(s *state.AppState) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	con := &wt.Tasks.Constitution
	if !con.ClaudeMdExists {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "worktree has no CLAUDE.md").
			WithEntity("worktree", wt.ID)
	}
	con.ClaudeMdImported = true
	con.ImportDecided = true
	return nil, nil
}

func skipClaudeMdImport(s *state.AppState) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	con := &wt.Tasks.Constitution
	con.ClaudeMdImported = false
	con.ImportDecided = true
	return nil, nil
}

func setUseClaudeMdReference(s *state.AppState, a *action.SetUseClaudeMdReference) ([]effect.Effect, error) {
	_, wf, err := collectingWorkflow(s)
	if err != nil {
		return nil, err
	}
	wf.UseClaudeMdReference = a.Enabled
	return nil, nil
}

func createConstitutionPreset(s *state.AppState, a *action.CreateConstitutionPreset, now time.Time) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	con := &wt.Tasks.Constitution
	answers := a.Answers
	if answers == nil && con.Workflow != nil {
		answers = con.Workflow.Answers
	}
	preset := state.NewConstitutionPreset(a.Name, answers, now)
	con.Presets = append(con.Presets, preset)
	con.SelectedPresetID = preset.ID
	return nil, nil
}

func updateConstitutionPreset(s *state.AppState, a *action.UpdateConstitutionPreset, now time.Time) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	preset := wt.Tasks.Constitution.PresetByID(a.PresetID)
	if preset == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "constitution preset not found").
			WithEntity("preset", a.PresetID)
	}
	if preset.IsBuiltin {
		return nil, errors.NewInvariantError(errors.CodeBuiltinImmutable,
			"built-in presets cannot be modified").
			WithEntity("preset", preset.ID)
	}
	if a.Name != "" {
		preset.Name = a.Name
	}
	if a.Answers != nil {
		preset.Answers = map[string]string{}
		for k, v := range a.Answers {
			preset.Answers[k] = v
		}
	}
	preset.UpdatedAt = now
	return nil, nil
}

func deleteConstitutionPreset(s *state.AppState, a *action.DeleteConstitutionPreset) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	con := &wt.Tasks.Constitution
	for i := range con.Presets {
		if con.Presets[i].ID != a.PresetID {
			continue
		}
		if con.Presets[i].IsBuiltin {
			return nil, errors.NewInvariantError(errors.CodeBuiltinImmutable,
				"built-in presets cannot be deleted").
				WithEntity("preset", a.PresetID)
		}
		con.Presets = append(con.Presets[:i], con.Presets[i+1:]...)
		if con.SelectedPresetID == a.PresetID {
			con.SelectedPresetID = ""
		}
		return nil, nil
	}
	return nil, errors.NewInvariantError(errors.CodeNotFound, "constitution preset not found").
		WithEntity("preset", a.PresetID)
}

func selectConstitutionPreset(s *state.AppState, a *action.SelectConstitutionPreset) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	con := &wt.Tasks.Constitution
	if a.PresetID == "" {
		con.SelectedPresetID = ""
		return nil, nil
	}
	if con.PresetByID(a.PresetID) == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "constitution preset not found").
			WithEntity("preset", a.PresetID)
	}
	con.SelectedPresetID = a.PresetID
	return nil, nil
}

// collectingWorkflow returns the active worktree's workflow when it is in
// the collecting phase, rejecting otherwise.
func collectingWorkflow(s *state.AppState) (*state.Worktree, *state.ConstitutionWorkflow, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, nil, err
	}
	wf := wt.Tasks.Constitution.Workflow
	if wf == nil || wf.Status != state.WorkflowCollecting {
		return nil, nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"no constitution interview in progress").
			WithEntity("worktree", wt.ID)
	}
	return wt, wf, nil
}
