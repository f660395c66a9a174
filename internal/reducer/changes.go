package reducer

import (
	"strings"
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

func createChange(s *state.AppState, a *action.CreateChange, now time.Time) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	name := a.Name
	if name == "" {
		name = changeNameFromIntent(a.Intent)
	}
	if wt.Changes.ChangeByName(name) != nil {
		return nil, errors.NewInvariantError(errors.CodeDuplicateID,
			"a change named "+name+" already exists").
			WithEntity("change", name)
	}
	ch := state.NewChange(name, a.Intent, now)
	wt.Changes.Changes = append(wt.Changes.Changes, ch)
	wt.Changes.ActiveChangeID = ch.ID
	return nil, nil
}

// addChangeFromDisk inserts a change discovered by the worktree scan.
// Already-known ids are ignored so repeated scans stay idempotent.
func addChangeFromDisk(s *state.AppState, a *action.AddChange, now time.Time) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	if wt.Changes.ChangeByID(a.ID) != nil {
		return nil, nil
	}
	wt.Changes.Changes = append(wt.Changes.Changes, &state.Change{
		ID:        a.ID,
		Name:      a.Name,
		Intent:    a.Intent,
		Status:    state.ChangeStatus(a.Status),
		CreatedAt: now,
		UpdatedAt: now,
	})
	return nil, nil
}

func generateProposal(s *state.AppState, a *action.GenerateProposal, now time.Time) ([]effect.Effect, error) {
	p, wt, ch, err := changeByID(s, a.ChangeID)
	if err != nil {
		return nil, err
	}
	if ch.Status != state.ChangeProposed {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"proposal can only be generated for a proposed change").
			WithEntity("change", ch.ID)
	}
	if ch.Proposal != "" || ch.ProposalReviewID != "" {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"change already has a generated proposal under review").
			WithEntity("change", ch.ID)
	}
	ch.StreamingOutput = ""
	ch.Error = ""
	ch.UpdatedAt = now
	return []effect.Effect{effect.GenerateProposal{
		Ref:      refOf(p, wt),
		Dir:      wt.Path,
		ChangeID: ch.ID,
		Intent:   ch.Intent,
	}}, nil
}

func appendProposalOutput(s *state.AppState, a *action.AppendProposalOutput, now time.Time) ([]effect.Effect, error) {
	return appendChangeOutput(s, a.Ref, a.ChangeID, a.Chunk, now)
}

// completeProposal moves the streamed text into the proposal field and opens
// a review session gating it.
func completeProposal(s *state.AppState, a *action.CompleteProposal, now time.Time) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	ch := wt.Changes.ChangeByID(a.ChangeID)
	if ch == nil || ch.Status != state.ChangeProposed {
		return nil, nil
	}
	ch.Proposal = ch.StreamingOutput
	ch.StreamingOutput = ""
	ch.UpdatedAt = now

	session := state.NewReviewSession(ch.ID, state.ReviewContent{
		ContentType: "proposal",
		Content:     ch.Proposal,
		FileChanges: []state.FileChange{},
	}, now)
	wt.Tasks.ReviewGate.Sessions = append(wt.Tasks.ReviewGate.Sessions, session)
	wt.Tasks.ReviewGate.ActiveSessionID = session.ID
	ch.ProposalReviewID = session.ID
	return nil, nil
}

// generatePlan starts plan generation once the proposal review is approved.
func generatePlan(s *state.AppState, a *action.GeneratePlan, now time.Time) ([]effect.Effect, error) {
	p, wt, ch, err := changeByID(s, a.ChangeID)
	if err != nil {
		return nil, err
	}
	if !ch.Status.CanTransition(state.ChangePlanning) {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"change cannot move from "+string(ch.Status)+" to planning").
			WithEntity("change", ch.ID)
	}
	if err := requireApprovedReview(wt, ch.ProposalReviewID, "proposal"); err != nil {
		return nil, err
	}
	ch.Status = state.ChangePlanning
	ch.StreamingOutput = ""
	ch.Error = ""
	ch.UpdatedAt = now
	return []effect.Effect{effect.GeneratePlan{
		Ref:      refOf(p, wt),
		Dir:      wt.Path,
		ChangeID: ch.ID,
		Proposal: ch.Proposal,
	}}, nil
}

func appendPlanOutput(s *state.AppState, a *action.AppendPlanOutput, now time.Time) ([]effect.Effect, error) {
	return appendChangeOutput(s, a.Ref, a.ChangeID, a.Chunk, now)
}

func completePlan(s *state.AppState, a *action.CompletePlan, now time.Time) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	ch := wt.Changes.ChangeByID(a.ChangeID)
	if ch == nil || ch.Status != state.ChangePlanning {
		return nil, nil
	}
	ch.Status = state.ChangePlanned
	ch.Plan = ch.StreamingOutput
	ch.StreamingOutput = ""
	ch.UpdatedAt = now

	session := state.NewReviewSession(ch.ID, state.ReviewContent{
		ContentType: "plan",
		Content:     ch.Plan,
		FileChanges: []state.FileChange{},
	}, now)
	wt.Tasks.ReviewGate.Sessions = append(wt.Tasks.ReviewGate.Sessions, session)
	wt.Tasks.ReviewGate.ActiveSessionID = session.ID
	ch.PlanReviewID = session.ID
	return nil, nil
}

// approvePlan approves the plan's review session. Execution stays a separate
// explicit step.
func approvePlan(s *state.AppState, a *action.ApprovePlan, now time.Time) ([]effect.Effect, error) {
	_, wt, ch, err := changeByID(s, a.ChangeID)
	if err != nil {
		return nil, err
	}
	if ch.Status != state.ChangePlanned {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"only a planned change can have its plan approved").
			WithEntity("change", ch.ID)
	}
	session := wt.Tasks.ReviewGate.SessionByID(ch.PlanReviewID)
	if session == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "plan review session not found").
			WithEntity("change", ch.ID)
	}
	if !session.Status.CanTransition(state.ReviewApproved) {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"plan review cannot be approved from "+string(session.Status)).
			WithEntity("review", session.ID)
	}
	session.Status = state.ReviewApproved
	session.UpdatedAt = now
	ch.UpdatedAt = now
	return nil, nil
}

func executePlan(s *state.AppState, a *action.ExecutePlan, now time.Time) ([]effect.Effect, error) {
	p, wt, ch, err := changeByID(s, a.ChangeID)
	if err != nil {
		return nil, err
	}
	if !ch.Status.CanTransition(state.ChangeImplementing) {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"change cannot move from "+string(ch.Status)+" to implementing").
			WithEntity("change", ch.ID)
	}
	if err := requireApprovedReview(wt, ch.PlanReviewID, "plan"); err != nil {
		return nil, err
	}
	ch.Status = state.ChangeImplementing
	ch.StreamingOutput = ""
	ch.Error = ""
	ch.UpdatedAt = now
	return []effect.Effect{effect.ExecutePlan{
		Ref:      refOf(p, wt),
		Dir:      wt.Path,
		ChangeID: ch.ID,
		Plan:     ch.Plan,
	}}, nil
}

func appendImplementationOutput(s *state.AppState, a *action.AppendImplementationOutput, now time.Time) ([]effect.Effect, error) {
	return appendChangeOutput(s, a.Ref, a.ChangeID, a.Chunk, now)
}

func completeImplementation(s *state.AppState, a *action.CompleteImplementation, now time.Time) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	ch := wt.Changes.ChangeByID(a.ChangeID)
	if ch == nil || ch.Status != state.ChangeImplementing {
		return nil, nil
	}
	ch.Status = state.ChangeDone
	ch.StreamingOutput = ""
	ch.UpdatedAt = now
	wt.IsModified = true
	return nil, nil
}

func failChange(s *state.AppState, a *action.FailChange, now time.Time) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	ch := wt.Changes.ChangeByID(a.ChangeID)
	if ch == nil || !ch.Status.CanTransition(state.ChangeFailed) {
		return nil, nil
	}
	ch.Status = state.ChangeFailed
	ch.Error = a.Error
	ch.UpdatedAt = now
	return nil, nil
}

// cancelChange abandons a change. An implementing change cannot be
// cancelled; it must finish or fail.
func cancelChange(s *state.AppState, a *action.CancelChange, now time.Time) ([]effect.Effect, error) {
	_, _, ch, err := changeByID(s, a.ChangeID)
	if err != nil {
		return nil, err
	}
	if !ch.Status.CanTransition(state.ChangeCancelled) {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"change cannot be cancelled from "+string(ch.Status)).
			WithEntity("change", ch.ID)
	}
	ch.Status = state.ChangeCancelled
	ch.UpdatedAt = now
	return nil, nil
}

func archiveChange(s *state.AppState, a *action.ArchiveChange) ([]effect.Effect, error) {
	p, wt, ch, err := changeByID(s, a.ChangeID)
	if err != nil {
		return nil, err
	}
	if !ch.Status.CanTransition(state.ChangeArchived) {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"only a done change can be archived").
			WithEntity("change", ch.ID)
	}
	return []effect.Effect{effect.ArchiveChange{
		Ref:      refOf(p, wt),
		Dir:      wt.Path,
		ChangeID: ch.ID,
		Name:     ch.Name,
	}}, nil
}

func setChangeArchived(s *state.AppState, a *action.SetChangeArchived, now time.Time) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	if a.Error != "" {
		wt.Changes.Error = a.Error
		return nil, nil
	}
	ch := wt.Changes.ChangeByID(a.ChangeID)
	if ch == nil || !ch.Status.CanTransition(state.ChangeArchived) {
		return nil, nil
	}
	ch.Status = state.ChangeArchived
	ch.UpdatedAt = now
	if wt.Changes.ActiveChangeID == ch.ID {
		wt.Changes.ActiveChangeID = ""
	}
	return nil, nil
}

// appendChangeOutput streams generation output into a change regardless of
// which phase is producing it.
func appendChangeOutput(s *state.AppState, ref action.WorktreeRef, changeID, chunk string, now time.Time) ([]effect.Effect, error) {
	_, wt := resolveRef(s, ref)
	if wt == nil {
		return nil, nil
	}
	ch := wt.Changes.ChangeByID(changeID)
	if ch == nil || ch.Status.IsTerminal() {
		return nil, nil
	}
	ch.StreamingOutput += chunk
	ch.UpdatedAt = now
	return nil, nil
}

// changeByID locates a change in the active worktree.
func changeByID(s *state.AppState, id string) (*state.Project, *state.Worktree, *state.Change, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, nil, nil, err
	}
	ch := wt.Changes.ChangeByID(id)
	if ch == nil {
		return nil, nil, nil, errors.NewInvariantError(errors.CodeNotFound, "change not found").
			WithEntity("change", id)
	}
	return p, wt, ch, nil
}

// requireApprovedReview rejects unless the named review session exists and
// was approved.
func requireApprovedReview(wt *state.Worktree, sessionID, phase string) error {
	if sessionID == "" {
		return errors.NewInvariantError(errors.CodeInvalidTransition,
			"the "+phase+" has not been reviewed").
			WithEntity("worktree", wt.ID)
	}
	session := wt.Tasks.ReviewGate.SessionByID(sessionID)
	if session == nil {
		return errors.NewInvariantError(errors.CodeNotFound, phase+" review session not found").
			WithEntity("review", sessionID)
	}
	if session.Status != state.ReviewApproved {
		return errors.NewInvariantError(errors.CodeInvalidTransition,
			"the "+phase+" review is "+string(session.Status)+", not approved").
			WithEntity("review", session.ID)
	}
	return nil
}

// changeNameFromIntent derives a short kebab-case name from the first words
// of the intent.
func changeNameFromIntent(intent string) string {
	words := strings.Fields(strings.ToLower(intent))
	if len(words) > 5 {
		words = words[:5]
	}
	var keep []string
	for _, w := range words {
		var b strings.Builder
		for _, r := range w {
			if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			keep = append(keep, b.String())
		}
	}
	if len(keep) == 0 {
		return "change"
	}
	return strings.Join(keep, "-")
}
