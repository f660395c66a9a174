package action

func init() {
	register(func() Action { return &InitializeContext{} })
	register(func() Action { return &SetContextFiles{} })
	register(func() Action { return &GenerateContext{} })
	register(func() Action { return &AppendContextOutput{} })
	register(func() Action { return &CompleteGenerateContext{} })
	register(func() Action { return &FailGenerateContext{} })
	register(func() Action { return &SyncContext{} })
	register(func() Action { return &CompleteContextSync{} })
}

// InitializeContext probes the worktree for context documents (effect).
type InitializeContext struct{}

func (*InitializeContext) ActionType() string { return "InitializeContext" }

// SetContextFiles delivers the discovered context documents.
type SetContextFiles struct {
	Ref   WorktreeRef   `json:"ref"`
	Files []ContextFile `json:"files"`
	Error string        `json:"error,omitempty"`
}

// ContextFile is one discovered context document.
type ContextFile struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

func (*SetContextFiles) ActionType() string { return "SetContextFiles" }

// GenerateContext asks the agent to produce context documents for the
// worktree.
type GenerateContext struct{}

func (*GenerateContext) ActionType() string { return "GenerateContext" }

// AppendContextOutput streams generation output.
type AppendContextOutput struct {
	Ref   WorktreeRef `json:"ref"`
	Chunk string      `json:"chunk"`
}

func (*AppendContextOutput) ActionType() string { return "AppendContextOutput" }

// CompleteGenerateContext marks generation finished and re-probes the files.
type CompleteGenerateContext struct {
	Ref WorktreeRef `json:"ref"`
}

func (*CompleteGenerateContext) ActionType() string { return "CompleteGenerateContext" }

// FailGenerateContext records a generation failure.
type FailGenerateContext struct {
	Ref   WorktreeRef `json:"ref"`
	Error string      `json:"error"`
}

func (*FailGenerateContext) ActionType() string { return "FailGenerateContext" }

// SyncContext copies context documents from the main worktree into this one.
type SyncContext struct{}

func (*SyncContext) ActionType() string { return "SyncContext" }

// CompleteContextSync records the sync outcome.
type CompleteContextSync struct {
	Ref   WorktreeRef `json:"ref"`
	Error string      `json:"error,omitempty"`
}

func (*CompleteContextSync) ActionType() string { return "CompleteContextSync" }
