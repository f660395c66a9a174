package reducer

import (
	"fmt"
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

func addReviewComment(s *state.AppState, a *action.AddReviewComment, now time.Time) ([]effect.Effect, error) {
	_, session, err := reviewSession(s, a.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"review session already reached a verdict").
			WithEntity("review", session.ID)
	}
	target := a.FilePath
	if target != "" && a.Line > 0 {
		target = fmt.Sprintf("%s:%d", a.FilePath, a.Line)
	}
	session.AddComment(target, a.Text, "user", now)
	return nil, nil
}

func resolveReviewComment(s *state.AppState, a *action.ResolveReviewComment, now time.Time) ([]effect.Effect, error) {
	_, session, err := reviewSession(s, a.SessionID)
	if err != nil {
		return nil, err
	}
	comment := session.CommentByID(a.CommentID)
	if comment == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "review comment not found").
			WithEntity("comment", a.CommentID)
	}
	comment.Resolved = true
	session.UpdatedAt = now
	return nil, nil
}

// submitReviewFeedback sends the open comments back to the agent. The
// session moves to iterating until revised content lands.
func submitReviewFeedback(s *state.AppState, a *action.SubmitReviewFeedback, now time.Time) ([]effect.Effect, error) {
	wt, session, err := reviewSession(s, a.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransition(state.ReviewIterating) {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"feedback can only be submitted while reviewing").
			WithEntity("review", session.ID)
	}
	var open []string
	for _, c := range session.Comments {
		if !c.Resolved && c.Author != "system" {
			if c.Target != "" {
				open = append(open, c.Target+": "+c.Content)
			} else {
				open = append(open, c.Content)
			}
		}
	}
	if len(open) == 0 {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"no open comments to submit").
			WithEntity("review", session.ID)
	}
	session.Status = state.ReviewIterating
	session.UpdatedAt = now

	p := s.ActiveProject()
	return []effect.Effect{effect.ReviseReview{
		Ref:       refOf(p, wt),
		Dir:       wt.Path,
		SessionID: session.ID,
		ChangeID:  session.ChangeID,
		Content:   session.Content.Content,
		Comments:  open,
	}}, nil
}

// updateReviewContent lands revised content, bumping the iteration and
// returning the session to reviewing. Open comments from the previous round
// are marked resolved; the agent addressed them.
func updateReviewContent(s *state.AppState, a *action.UpdateReviewContent, now time.Time) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	session := wt.Tasks.ReviewGate.SessionByID(a.SessionID)
	if session == nil || session.Status != state.ReviewIterating {
		return nil, nil
	}
	session.Content.Content = a.Content
	session.Status = state.ReviewReviewing
	session.Iteration++
	session.UpdatedAt = now
	for i := range session.Comments {
		session.Comments[i].Resolved = true
	}

	// Keep the gated change's artifact in step with the revision.
	if ch := wt.Changes.ChangeByID(session.ChangeID); ch != nil {
		switch session.Content.ContentType {
		case "proposal":
			ch.Proposal = a.Content
		case "plan":
			ch.Plan = a.Content
		}
		ch.UpdatedAt = now
	}
	return nil, nil
}

func approveReview(s *state.AppState, a *action.ApproveReview, now time.Time) ([]effect.Effect, error) {
	_, session, err := reviewSession(s, a.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransition(state.ReviewApproved) {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"review cannot be approved from "+string(session.Status)).
			WithEntity("review", session.ID)
	}
	session.Status = state.ReviewApproved
	session.UpdatedAt = now
	return nil, nil
}

// rejectReview refuses the content. The rejection reason is recorded as a
// system comment so the verdict survives in the session history.
func rejectReview(s *state.AppState, a *action.RejectReview, now time.Time) ([]effect.Effect, error) {
	wt, session, err := reviewSession(s, a.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransition(state.ReviewRejected) {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"review cannot be rejected from "+string(session.Status)).
			WithEntity("review", session.ID)
	}
	session.Status = state.ReviewRejected
	session.UpdatedAt = now
	if a.Reason != "" {
		session.AddSystemComment("Rejected: %s", a.Reason)
	} else {
		session.AddSystemComment("Rejected")
	}

	if ch := wt.Changes.ChangeByID(session.ChangeID); ch != nil {
		ch.Error = "review rejected"
		ch.UpdatedAt = now
	}
	return nil, nil
}

func setActiveReviewSession(s *state.AppState, a *action.SetActiveReviewSession) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	if a.SessionID == "" {
		wt.Tasks.ReviewGate.ActiveSessionID = ""
		return nil, nil
	}
	if wt.Tasks.ReviewGate.SessionByID(a.SessionID) == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "review session not found").
			WithEntity("review", a.SessionID)
	}
	wt.Tasks.ReviewGate.ActiveSessionID = a.SessionID
	return nil, nil
}

// clearReviewSession drops a session that reached a verdict.
func clearReviewSession(s *state.AppState, a *action.ClearReviewSession) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	gate := &wt.Tasks.ReviewGate
	for i, session := range gate.Sessions {
		if session.ID != a.SessionID {
			continue
		}
		if !session.Status.IsTerminal() {
			return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
				"cannot clear a review session before its verdict").
				WithEntity("review", session.ID)
		}
		gate.Sessions = append(gate.Sessions[:i], gate.Sessions[i+1:]...)
		if gate.ActiveSessionID == a.SessionID {
			gate.ActiveSessionID = ""
		}
		return nil, nil
	}
	return nil, errors.NewInvariantError(errors.CodeNotFound, "review session not found").
		WithEntity("review", a.SessionID)
}

// reviewSession locates a session in the active worktree's gate.
func reviewSession(s *state.AppState, id string) (*state.Worktree, *state.ReviewSession, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, nil, err
	}
	session := wt.Tasks.ReviewGate.SessionByID(id)
	if session == nil {
		return nil, nil, errors.NewInvariantError(errors.CodeNotFound, "review session not found").
			WithEntity("review", id)
	}
	return wt, session, nil
}
