package action

func init() {
	register(func() Action { return &AddReviewComment{} })
	register(func() Action { return &ResolveReviewComment{} })
	register(func() Action { return &SubmitReviewFeedback{} })
	register(func() Action { return &UpdateReviewContent{} })
	register(func() Action { return &ApproveReview{} })
	register(func() Action { return &RejectReview{} })
	register(func() Action { return &SetActiveReviewSession{} })
	register(func() Action { return &ClearReviewSession{} })
}

// AddReviewComment attaches a reviewer comment to a session, optionally
// anchored to a file and line.
type AddReviewComment struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	FilePath  string `json:"file_path,omitempty"`
	Line      int    `json:"line,omitempty"`
}

func (*AddReviewComment) ActionType() string { return "AddReviewComment" }

func (a *AddReviewComment) Validate() error {
	if err := requireString(a.ActionType(), "session_id", a.SessionID); err != nil {
		return err
	}
	return requireString(a.ActionType(), "text", a.Text)
}

// ResolveReviewComment marks a comment as addressed.
type ResolveReviewComment struct {
	SessionID string `json:"session_id"`
	CommentID string `json:"comment_id"`
}

func (*ResolveReviewComment) ActionType() string { return "ResolveReviewComment" }

func (a *ResolveReviewComment) Validate() error {
	if err := requireString(a.ActionType(), "session_id", a.SessionID); err != nil {
		return err
	}
	return requireString(a.ActionType(), "comment_id", a.CommentID)
}

// SubmitReviewFeedback sends the open comments back to the agent for
// another iteration.
type SubmitReviewFeedback struct {
	SessionID string `json:"session_id"`
}

func (*SubmitReviewFeedback) ActionType() string { return "SubmitReviewFeedback" }

func (a *SubmitReviewFeedback) Validate() error {
	return requireString(a.ActionType(), "session_id", a.SessionID)
}

// UpdateReviewContent replaces the reviewed content after an iteration and
// bumps the iteration counter.
type UpdateReviewContent struct {
	Ref       WorktreeRef `json:"ref"`
	SessionID string      `json:"session_id"`
	Content   string      `json:"content"`
}

func (*UpdateReviewContent) ActionType() string { return "UpdateReviewContent" }

func (a *UpdateReviewContent) Validate() error {
	return requireString(a.ActionType(), "session_id", a.SessionID)
}

// ApproveReview accepts the reviewed content and unblocks the gated
// operation.
type ApproveReview struct {
	SessionID string `json:"session_id"`
}

func (*ApproveReview) ActionType() string { return "ApproveReview" }

func (a *ApproveReview) Validate() error {
	return requireString(a.ActionType(), "session_id", a.SessionID)
}

// RejectReview refuses the reviewed content with a reason.
type RejectReview struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

func (*RejectReview) ActionType() string { return "RejectReview" }

func (a *RejectReview) Validate() error {
	return requireString(a.ActionType(), "session_id", a.SessionID)
}

// SetActiveReviewSession focuses a session in the review surface. An empty
// id clears the focus.
type SetActiveReviewSession struct {
	SessionID string `json:"session_id"`
}

func (*SetActiveReviewSession) ActionType() string { return "SetActiveReviewSession" }

// ClearReviewSession drops a terminal session from the gate.
type ClearReviewSession struct {
	SessionID string `json:"session_id"`
}

func (*ClearReviewSession) ActionType() string { return "ClearReviewSession" }

func (a *ClearReviewSession) Validate() error {
	return requireString(a.ActionType(), "session_id", a.SessionID)
}
