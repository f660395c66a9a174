package state

import "testing"

func TestChangeStatusTransitions(t *testing.T) {
	tests := []struct {
		from ChangeStatus
		to   ChangeStatus
		want bool
	}{
		{ChangeProposed, ChangePlanning, true},
		{ChangePlanning, ChangePlanned, true},
		{ChangePlanned, ChangeImplementing, true},
		{ChangeImplementing, ChangeDone, true},
		{ChangeDone, ChangeArchived, true},

		// No skipping
		{ChangeProposed, ChangePlanned, false},
		{ChangeProposed, ChangeImplementing, false},
		{ChangePlanning, ChangeImplementing, false},
		{ChangePlanned, ChangeDone, false},

		// No going back
		{ChangePlanned, ChangeProposed, false},
		{ChangeDone, ChangeImplementing, false},

		// Failed reachable from any non-terminal
		{ChangeProposed, ChangeFailed, true},
		{ChangePlanning, ChangeFailed, true},
		{ChangeImplementing, ChangeFailed, true},

		// Cancelled reachable except from implementing
		{ChangeProposed, ChangeCancelled, true},
		{ChangePlanned, ChangeCancelled, true},
		{ChangeImplementing, ChangeCancelled, false},

		// Terminal states are absorbing
		{ChangeArchived, ChangeProposed, false},
		{ChangeCancelled, ChangeFailed, false},
		{ChangeFailed, ChangeCancelled, false},
		{ChangeArchived, ChangeFailed, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: CanTransition = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestChangeStatusIsTerminal(t *testing.T) {
	terminal := []ChangeStatus{ChangeArchived, ChangeCancelled, ChangeFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", s)
		}
	}
	nonTerminal := []ChangeStatus{ChangeProposed, ChangePlanning, ChangePlanned, ChangeImplementing, ChangeDone}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", s)
		}
	}
}

func TestReviewStatusTransitions(t *testing.T) {
	tests := []struct {
		from ReviewStatus
		to   ReviewStatus
		want bool
	}{
		{ReviewPending, ReviewReviewing, true},
		{ReviewReviewing, ReviewIterating, true},
		{ReviewReviewing, ReviewApproved, true},
		{ReviewReviewing, ReviewRejected, true},
		{ReviewIterating, ReviewReviewing, true},

		{ReviewPending, ReviewApproved, false},
		{ReviewPending, ReviewIterating, false},
		{ReviewIterating, ReviewApproved, false},
		{ReviewIterating, ReviewRejected, false},
		{ReviewApproved, ReviewReviewing, false},
		{ReviewRejected, ReviewReviewing, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: CanTransition = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestWorkflowStatusTransitions(t *testing.T) {
	tests := []struct {
		from WorkflowStatus
		to   WorkflowStatus
		want bool
	}{
		{WorkflowCollecting, WorkflowGenerating, true},
		{WorkflowGenerating, WorkflowComplete, true},

		{WorkflowCollecting, WorkflowComplete, false},
		{WorkflowGenerating, WorkflowCollecting, false},
		{WorkflowComplete, WorkflowCollecting, false},
		{WorkflowComplete, WorkflowGenerating, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: CanTransition = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTaskStatusIsTerminal(t *testing.T) {
	if TaskRunning.IsTerminal() || TaskIdle.IsTerminal() {
		t.Error("idle/running should not be terminal")
	}
	for _, s := range []TaskStatus{TaskSucceeded, TaskFailed, TaskCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", s)
		}
	}
}
