package action

func init() {
	register(func() Action { return &CreateChange{} })
	register(func() Action { return &AddChange{} })
	register(func() Action { return &GenerateProposal{} })
	register(func() Action { return &AppendProposalOutput{} })
	register(func() Action { return &CompleteProposal{} })
	register(func() Action { return &GeneratePlan{} })
	register(func() Action { return &AppendPlanOutput{} })
	register(func() Action { return &CompletePlan{} })
	register(func() Action { return &ApprovePlan{} })
	register(func() Action { return &ExecutePlan{} })
	register(func() Action { return &AppendImplementationOutput{} })
	register(func() Action { return &CompleteImplementation{} })
	register(func() Action { return &FailChange{} })
	register(func() Action { return &CancelChange{} })
	register(func() Action { return &ArchiveChange{} })
	register(func() Action { return &SetChangeArchived{} })
}

// CreateChange starts a new change from an intent. The name is derived from
// the intent if empty.
type CreateChange struct {
	Name   string `json:"name,omitempty"`
	Intent string `json:"intent"`
}

func (*CreateChange) ActionType() string { return "CreateChange" }

func (a *CreateChange) Validate() error {
	return requireString(a.ActionType(), "intent", a.Intent)
}

// AddChange inserts a change loaded from disk, as found by the worktree
// scan.
type AddChange struct {
	Ref    WorktreeRef `json:"ref"`
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Intent string      `json:"intent"`
	Status string      `json:"status"`
}

func (*AddChange) ActionType() string { return "AddChange" }

func (a *AddChange) Validate() error {
	return requireString(a.ActionType(), "id", a.ID)
}

// GenerateProposal asks the agent to draft a proposal for a proposed change.
type GenerateProposal struct {
	ChangeID string `json:"change_id"`
}

func (*GenerateProposal) ActionType() string { return "GenerateProposal" }

func (a *GenerateProposal) Validate() error {
	return requireString(a.ActionType(), "change_id", a.ChangeID)
}

// AppendProposalOutput streams proposal text into the change.
type AppendProposalOutput struct {
	Ref      WorktreeRef `json:"ref"`
	ChangeID string      `json:"change_id"`
	Chunk    string      `json:"chunk"`
}

func (*AppendProposalOutput) ActionType() string { return "AppendProposalOutput" }

// CompleteProposal finalizes the streamed proposal and opens a review
// session for it.
type CompleteProposal struct {
	Ref      WorktreeRef `json:"ref"`
	ChangeID string      `json:"change_id"`
}

func (*CompleteProposal) ActionType() string { return "CompleteProposal" }

// GeneratePlan asks the agent to draft an implementation plan for a change
// whose proposal was approved.
type GeneratePlan struct {
	ChangeID string `json:"change_id"`
}

func (*GeneratePlan) ActionType() string { return "GeneratePlan" }

func (a *GeneratePlan) Validate() error {
	return requireString(a.ActionType(), "change_id", a.ChangeID)
}

// AppendPlanOutput streams plan text into the change.
type AppendPlanOutput struct {
	Ref      WorktreeRef `json:"ref"`
	ChangeID string      `json:"change_id"`
	Chunk    string      `json:"chunk"`
}

func (*AppendPlanOutput) ActionType() string { return "AppendPlanOutput" }

// CompletePlan finalizes the streamed plan and opens a review session for
// it.
type CompletePlan struct {
	Ref      WorktreeRef `json:"ref"`
	ChangeID string      `json:"change_id"`
}

func (*CompletePlan) ActionType() string { return "CompletePlan" }

// ApprovePlan moves a planned change toward execution once its plan review
// is approved.
type ApprovePlan struct {
	ChangeID string `json:"change_id"`
}

func (*ApprovePlan) ActionType() string { return "ApprovePlan" }

func (a *ApprovePlan) Validate() error {
	return requireString(a.ActionType(), "change_id", a.ChangeID)
}

// ExecutePlan starts implementing a planned change.
type ExecutePlan struct {
	ChangeID string `json:"change_id"`
}

func (*ExecutePlan) ActionType() string { return "ExecutePlan" }

func (a *ExecutePlan) Validate() error {
	return requireString(a.ActionType(), "change_id", a.ChangeID)
}

// AppendImplementationOutput streams implementation output into the change.
type AppendImplementationOutput struct {
	Ref      WorktreeRef `json:"ref"`
	ChangeID string      `json:"change_id"`
	Chunk    string      `json:"chunk"`
}

func (*AppendImplementationOutput) ActionType() string { return "AppendImplementationOutput" }

// CompleteImplementation marks the change done.
type CompleteImplementation struct {
	Ref      WorktreeRef `json:"ref"`
	ChangeID string      `json:"change_id"`
}

func (*CompleteImplementation) ActionType() string { return "CompleteImplementation" }

// FailChange moves a change to the failed state with a reason.
type FailChange struct {
	Ref      WorktreeRef `json:"ref"`
	ChangeID string      `json:"change_id"`
	Error    string      `json:"error"`
}

func (*FailChange) ActionType() string { return "FailChange" }

// CancelChange abandons a change that has not started implementing.
type CancelChange struct {
	ChangeID string `json:"change_id"`
}

func (*CancelChange) ActionType() string { return "CancelChange" }

func (a *CancelChange) Validate() error {
	return requireString(a.ActionType(), "change_id", a.ChangeID)
}

// ArchiveChange moves a done change's files into the archive.
type ArchiveChange struct {
	ChangeID string `json:"change_id"`
}

func (*ArchiveChange) ActionType() string { return "ArchiveChange" }

func (a *ArchiveChange) Validate() error {
	return requireString(a.ActionType(), "change_id", a.ChangeID)
}

// SetChangeArchived records the archive outcome.
type SetChangeArchived struct {
	Ref      WorktreeRef `json:"ref"`
	ChangeID string      `json:"change_id"`
	Error    string      `json:"error,omitempty"`
}

func (*SetChangeArchived) ActionType() string { return "SetChangeArchived" }
