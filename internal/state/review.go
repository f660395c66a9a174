package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FileChange is one file-level delta attached to reviewed content.
type FileChange struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"` // "added", "modified", "deleted"
	Diff     string `json:"diff,omitempty"`
	Language string `json:"language,omitempty"`
}

// ReviewContent is the artifact under review.
type ReviewContent struct {
	ContentType string       `json:"content_type"` // "proposal", "plan", "implementation"
	Content     string       `json:"content"`
	FileChanges []FileChange `json:"file_changes"`
}

// ReviewComment is one inline or general comment on a review session.
type ReviewComment struct {
	ID        string    `json:"id"`
	Target    string    `json:"target,omitempty"` // file path or section anchor
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewSession is one human-approval checkpoint over a generated artifact.
type ReviewSession struct {
	ID        string          `json:"id"`
	ChangeID  string          `json:"change_id,omitempty"`
	Content   ReviewContent   `json:"content"`
	Status    ReviewStatus    `json:"status"`
	Comments  []ReviewComment `json:"comments"`
	Iteration int             `json:"iteration"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewReviewSession constructs a session in reviewing state. Sessions open
// directly into reviewing: the pending state exists only for sessions created
// ahead of their content.
func NewReviewSession(changeID string, content ReviewContent, now time.Time) *ReviewSession {
	return &ReviewSession{
		ID:        uuid.NewString(),
		ChangeID:  changeID,
		Content:   content,
		Status:    ReviewReviewing,
		Comments:  []ReviewComment{},
		Iteration: 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CommentByID returns the comment with the given id, or nil.
func (r *ReviewSession) CommentByID(id string) *ReviewComment {
	for i := range r.Comments {
		if r.Comments[i].ID == id {
			return &r.Comments[i]
		}
	}
	return nil
}

// AddComment appends a comment with a fresh id and returns it.
func (r *ReviewSession) AddComment(target, content, author string, now time.Time) *ReviewComment {
	r.Comments = append(r.Comments, ReviewComment{
		ID:        uuid.NewString(),
		Target:    target,
		Content:   content,
		Author:    author,
		CreatedAt: now,
	})
	r.UpdatedAt = now
	return &r.Comments[len(r.Comments)-1]
}

// AddSystemComment records a verdict annotation, e.g. a rejection reason.
func (r *ReviewSession) AddSystemComment(format string, args ...any) {
	r.Comments = append(r.Comments, ReviewComment{
		ID:        uuid.NewString(),
		Content:   fmt.Sprintf(format, args...),
		Author:    "system",
		CreatedAt: r.UpdatedAt,
	})
}

// ReviewGateState is the per-worktree review-gate feature state.
type ReviewGateState struct {
	Sessions        []*ReviewSession `json:"sessions"`
	ActiveSessionID string           `json:"active_session_id,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// NewReviewGateState returns an empty review-gate feature state.
func NewReviewGateState() ReviewGateState {
	return ReviewGateState{Sessions: []*ReviewSession{}}
}

// SessionByID returns the session with the given id, or nil.
func (g *ReviewGateState) SessionByID(id string) *ReviewSession {
	for _, s := range g.Sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ActiveSession returns the session selected for display, or nil.
func (g *ReviewGateState) ActiveSession() *ReviewSession {
	if g.ActiveSessionID == "" {
		return nil
	}
	return g.SessionByID(g.ActiveSessionID)
}
