package action

func init() {
	register(func() Action { return &SetEnvTrackedPatterns{} })
	register(func() Action { return &SetEnvAutoCopy{} })
	register(func() Action { return &SetEnvSourceWorktree{} })
	register(func() Action { return &CopyEnvFiles{} })
	register(func() Action { return &SetEnvCopyResult{} })
}

// SetEnvTrackedPatterns replaces the glob patterns matched when copying env
// files between worktrees.
type SetEnvTrackedPatterns struct {
	Patterns []string `json:"patterns"`
}

func (*SetEnvTrackedPatterns) ActionType() string { return "SetEnvTrackedPatterns" }

// SetEnvAutoCopy toggles copying env files into freshly added worktrees.
type SetEnvAutoCopy struct {
	Enabled bool `json:"enabled"`
}

func (*SetEnvAutoCopy) ActionType() string { return "SetEnvAutoCopy" }

// SetEnvSourceWorktree picks which worktree env files are copied from. An
// empty id means the main worktree.
type SetEnvSourceWorktree struct {
	WorktreeID string `json:"worktree_id"`
}

func (*SetEnvSourceWorktree) ActionType() string { return "SetEnvSourceWorktree" }

// CopyEnvFiles copies tracked env files from the source worktree into the
// target one.
type CopyEnvFiles struct {
	TargetWorktreeID string `json:"target_worktree_id"`
}

func (*CopyEnvFiles) ActionType() string { return "CopyEnvFiles" }

func (a *CopyEnvFiles) Validate() error {
	return requireString(a.ActionType(), "target_worktree_id", a.TargetWorktreeID)
}

// SetEnvCopyResult records the outcome of the last copy.
type SetEnvCopyResult struct {
	ProjectID        string   `json:"project_id"`
	TargetWorktreeID string   `json:"target_worktree_id"`
	Copied           []string `json:"copied"`
	Error            string   `json:"error,omitempty"`
}

func (*SetEnvCopyResult) ActionType() string { return "SetEnvCopyResult" }
