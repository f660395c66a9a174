package state

// ChangeStatus is the lifecycle status of a change record.
type ChangeStatus string

const (
	ChangeProposed     ChangeStatus = "proposed"
	ChangePlanning     ChangeStatus = "planning"
	ChangePlanned      ChangeStatus = "planned"
	ChangeImplementing ChangeStatus = "implementing"
	ChangeDone         ChangeStatus = "done"
	ChangeArchived     ChangeStatus = "archived"
	ChangeCancelled    ChangeStatus = "cancelled"
	ChangeFailed       ChangeStatus = "failed"
)

// changeTransitions is the forward edge set of the change state machine.
// Cancelled and failed are absorbing and handled separately in CanTransition.
var changeTransitions = map[ChangeStatus][]ChangeStatus{
	ChangeProposed:     {ChangePlanning},
	ChangePlanning:     {ChangePlanned},
	ChangePlanned:      {ChangeImplementing},
	ChangeImplementing: {ChangeDone},
	ChangeDone:         {ChangeArchived},
}

// IsTerminal reports whether no further transitions are possible.
func (s ChangeStatus) IsTerminal() bool {
	switch s {
	case ChangeArchived, ChangeCancelled, ChangeFailed:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal edge of the
// change state machine. Any non-terminal status may move to failed. Any
// non-terminal status except implementing may move to cancelled: an
// implementation run must finish or fail, it cannot be abandoned midway.
func (s ChangeStatus) CanTransition(next ChangeStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == ChangeFailed {
		return true
	}
	if next == ChangeCancelled {
		return s != ChangeImplementing
	}
	for _, t := range changeTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ReviewStatus is the status of a review session.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewReviewing ReviewStatus = "reviewing"
	ReviewIterating ReviewStatus = "iterating"
	ReviewApproved  ReviewStatus = "approved"
	ReviewRejected  ReviewStatus = "rejected"
)

// CanTransition reports whether moving from s to next is a legal edge of the
// review state machine. Approve, reject, and feedback submission are only
// valid from reviewing; iterating loops back to reviewing once revised
// content lands.
func (s ReviewStatus) CanTransition(next ReviewStatus) bool {
	switch s {
	case ReviewPending:
		return next == ReviewReviewing
	case ReviewReviewing:
		return next == ReviewIterating || next == ReviewApproved || next == ReviewRejected
	case ReviewIterating:
		return next == ReviewReviewing
	}
	return false
}

// IsTerminal reports whether the session reached a final verdict.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewApproved || s == ReviewRejected
}

// WorkflowStatus is the status of a constitution workflow.
type WorkflowStatus string

const (
	WorkflowCollecting WorkflowStatus = "collecting"
	WorkflowGenerating WorkflowStatus = "generating"
	WorkflowComplete   WorkflowStatus = "complete"
)

// CanTransition reports whether moving from s to next is legal. The workflow
// never skips a state.
func (s WorkflowStatus) CanTransition(next WorkflowStatus) bool {
	switch s {
	case WorkflowCollecting:
		return next == WorkflowGenerating
	case WorkflowGenerating:
		return next == WorkflowComplete
	}
	return false
}

// TaskStatus is the status of a task-runner command.
type TaskStatus string

const (
	TaskIdle      TaskStatus = "idle"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether the run finished, one way or another.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskSucceeded, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

// McpStatus is the status of the per-worktree MCP server.
type McpStatus string

const (
	McpStopped  McpStatus = "stopped"
	McpStarting McpStatus = "starting"
	McpRunning  McpStatus = "running"
	McpError    McpStatus = "error"
)

// ServiceStatus is the status of a docker compose service.
type ServiceStatus string

const (
	ServiceStopped  ServiceStatus = "stopped"
	ServiceStarting ServiceStatus = "starting"
	ServiceRunning  ServiceStatus = "running"
	ServiceStopping ServiceStatus = "stopping"
	ServiceError    ServiceStatus = "error"
)
