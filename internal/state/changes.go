package state

import (
	"time"

	"github.com/google/uuid"
)

// Change is one change-management record: an intent that moves through
// proposal, planning, and implementation under review-gate control.
type Change struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Intent          string       `json:"intent"`
	Status          ChangeStatus `json:"status"`
	Proposal        string       `json:"proposal,omitempty"`
	Plan            string       `json:"plan,omitempty"`
	StreamingOutput string       `json:"streaming_output,omitempty"`
	// Review sessions gating the generated proposal and plan.
	ProposalReviewID string    `json:"proposal_review_id,omitempty"`
	PlanReviewID     string    `json:"plan_review_id,omitempty"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewChange constructs a proposed change with a fresh id.
func NewChange(name, intent string, now time.Time) *Change {
	return &Change{
		ID:        uuid.NewString(),
		Name:      name,
		Intent:    intent,
		Status:    ChangeProposed,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ChangesState is the per-worktree change-management feature state.
type ChangesState struct {
	Changes        []*Change `json:"changes"`
	ActiveChangeID string    `json:"active_change_id,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// NewChangesState returns an empty changes feature state.
func NewChangesState() ChangesState {
	return ChangesState{Changes: []*Change{}}
}

// ChangeByID returns the change with the given id, or nil.
func (c *ChangesState) ChangeByID(id string) *Change {
	for _, ch := range c.Changes {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

// ChangeByName returns the change with the given name, or nil.
func (c *ChangesState) ChangeByName(name string) *Change {
	for _, ch := range c.Changes {
		if ch.Name == name {
			return ch
		}
	}
	return nil
}
