package action

// Worktree discovery results are follow-ups produced by the git effect, so
// they carry an explicit project id.

func init() {
	register(func() Action { return &SwitchWorktree{} })
	register(func() Action { return &RefreshWorktrees{} })
	register(func() Action { return &SetWorktrees{} })
	register(func() Action { return &AddWorktree{} })
	register(func() Action { return &RemoveWorktree{} })
	register(func() Action { return &FetchBranches{} })
	register(func() Action { return &SetBranches{} })
	register(func() Action { return &SetWorktreeModified{} })
}

// SwitchWorktree activates the worktree at Index within the active project.
type SwitchWorktree struct {
	Index int `json:"index"`
}

func (*SwitchWorktree) ActionType() string { return "SwitchWorktree" }

func (a *SwitchWorktree) Validate() error {
	return requireNonNegative(a.ActionType(), "index", a.Index)
}

// RefreshWorktrees re-runs worktree discovery for the active project.
type RefreshWorktrees struct{}

func (*RefreshWorktrees) ActionType() string { return "RefreshWorktrees" }

// WorktreeInfo is one discovered worktree, as reported by git.
type WorktreeInfo struct {
	Path   string `json:"path"`
	Branch string `json:"branch"`
	IsMain bool   `json:"is_main"`
}

// SetWorktrees replaces the project's worktree list with discovery results,
// preserving feature state for worktrees whose path survives.
type SetWorktrees struct {
	ProjectID string         `json:"project_id"`
	Worktrees []WorktreeInfo `json:"worktrees"`
}

func (*SetWorktrees) ActionType() string { return "SetWorktrees" }

func (a *SetWorktrees) Validate() error {
	return requireString(a.ActionType(), "project_id", a.ProjectID)
}

// AddWorktree creates a new worktree for Branch. When NewBranch is set the
// branch is created from the main worktree's HEAD first.
type AddWorktree struct {
	Branch    string `json:"branch"`
	NewBranch bool   `json:"new_branch"`
}

func (*AddWorktree) ActionType() string { return "AddWorktree" }

func (a *AddWorktree) Validate() error {
	return requireString(a.ActionType(), "branch", a.Branch)
}

// RemoveWorktree deletes the worktree with the given id. The main worktree
// cannot be removed.
type RemoveWorktree struct {
	WorktreeID string `json:"worktree_id"`
}

func (*RemoveWorktree) ActionType() string { return "RemoveWorktree" }

func (a *RemoveWorktree) Validate() error {
	return requireString(a.ActionType(), "worktree_id", a.WorktreeID)
}

// FetchBranches lists branches of the active project (effect).
type FetchBranches struct{}

func (*FetchBranches) ActionType() string { return "FetchBranches" }

// BranchInfo is one branch as reported by git.
type BranchInfo struct {
	Name      string `json:"name"`
	IsCurrent bool   `json:"is_current"`
	IsRemote  bool   `json:"is_remote"`
}

// SetBranches delivers branch listing results. The list is not part of the
// durable tree; it feeds the add-worktree dialog via the snapshot.
type SetBranches struct {
	ProjectID string       `json:"project_id"`
	Branches  []BranchInfo `json:"branches"`
	Error     string       `json:"error,omitempty"`
}

func (*SetBranches) ActionType() string { return "SetBranches" }

func (a *SetBranches) Validate() error {
	return requireString(a.ActionType(), "project_id", a.ProjectID)
}

// SetWorktreeModified updates the VCS-dirty flag, dispatched by the
// filesystem watcher and by task completion.
type SetWorktreeModified struct {
	Ref      WorktreeRef `json:"ref"`
	Modified bool        `json:"modified"`
}

func (*SetWorktreeModified) ActionType() string { return "SetWorktreeModified" }
