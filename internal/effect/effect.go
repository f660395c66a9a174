// Package effect declares the side-effect commands reducers emit.
//
// Reducers are pure: they mutate the state snapshot and describe any I/O as
// Effect values. The store hands effects to the runner after the commit, so
// an effect is only ever executed for state that was actually published.
// Results re-enter the dispatcher as follow-up actions carrying explicit
// worktree refs.
package effect

import "github.com/calmren/atelier/internal/action"

// Effect is one deferred side effect.
type Effect interface {
	// EffectKind returns a stable name for logging and dispatch.
	EffectKind() string
	// Key identifies the serialization lane. Effects with equal keys run
	// in emission order; distinct keys may run concurrently.
	Key() string
}

// ScanWorktrees lists git worktrees under a project checkout.
type ScanWorktrees struct {
	ProjectID string
	Path      string
}

func (ScanWorktrees) EffectKind() string { return "scan_worktrees" }
func (e ScanWorktrees) Key() string      { return "git/" + e.ProjectID }

// ListBranches lists local and remote branches of a project checkout.
type ListBranches struct {
	ProjectID string
	Path      string
}

func (ListBranches) EffectKind() string { return "list_branches" }
func (e ListBranches) Key() string      { return "git/" + e.ProjectID }

// CreateWorktree adds a linked git worktree for a branch.
type CreateWorktree struct {
	ProjectID string
	RepoPath  string
	Branch    string
	NewBranch bool
}

func (CreateWorktree) EffectKind() string { return "create_worktree" }
func (e CreateWorktree) Key() string      { return "git/" + e.ProjectID }

// DeleteWorktree removes a linked git worktree.
type DeleteWorktree struct {
	ProjectID    string
	RepoPath     string
	WorktreePath string
}

func (DeleteWorktree) EffectKind() string { return "delete_worktree" }
func (e DeleteWorktree) Key() string      { return "git/" + e.ProjectID }

// LoadJustCommands parses the worktree's justfile.
type LoadJustCommands struct {
	Ref action.WorktreeRef
	Dir string
}

func (LoadJustCommands) EffectKind() string { return "load_just_commands" }
func (e LoadJustCommands) Key() string      { return "just/" + e.Ref.WorktreeID }

// RunTask spawns a just recipe and streams its output.
type RunTask struct {
	Ref  action.WorktreeRef
	Dir  string
	Name string
}

func (RunTask) EffectKind() string { return "run_task" }
func (e RunTask) Key() string      { return "task/" + e.Ref.WorktreeID + "/" + e.Name }

// CancelTask stops a running task process.
type CancelTask struct {
	Ref  action.WorktreeRef
	Name string
}

func (CancelTask) EffectKind() string { return "cancel_task" }
func (e CancelTask) Key() string      { return "task/" + e.Ref.WorktreeID + "/" + e.Name }

// StreamAgent sends a prompt to the agent process and streams tokens back.
type StreamAgent struct {
	Ref    action.WorktreeRef
	Dir    string
	Prompt string
	Rules  string
}

func (StreamAgent) EffectKind() string { return "stream_agent" }
func (e StreamAgent) Key() string      { return "agent/" + e.Ref.WorktreeID }

// CancelAgent interrupts one running agent stream for a worktree. Kind
// selects which stream: "constitution" targets the constitution generation,
// anything else the chat stream. The key matches the launching effect so the
// cancel serializes behind the start on the same lane.
type CancelAgent struct {
	Ref  action.WorktreeRef
	Kind string
}

func (CancelAgent) EffectKind() string { return "cancel_agent" }
func (e CancelAgent) Key() string {
	if e.Kind == "constitution" {
		return "constitution/" + e.Ref.WorktreeID
	}
	return "agent/" + e.Ref.WorktreeID
}

// StartMcp launches the MCP server for a worktree.
type StartMcp struct {
	Ref action.WorktreeRef
	Dir string
}

func (StartMcp) EffectKind() string { return "start_mcp" }
func (e StartMcp) Key() string      { return "mcp/" + e.Ref.WorktreeID }

// StopMcp stops the worktree's MCP server.
type StopMcp struct {
	Ref action.WorktreeRef
}

func (StopMcp) EffectKind() string { return "stop_mcp" }
func (e StopMcp) Key() string      { return "mcp/" + e.Ref.WorktreeID }

// CheckDocker probes for a reachable docker daemon.
type CheckDocker struct{}

func (CheckDocker) EffectKind() string { return "check_docker" }
func (CheckDocker) Key() string        { return "docker" }

// ListDockerServices enumerates compose services and their state.
type ListDockerServices struct {
	Dir string
}

func (ListDockerServices) EffectKind() string { return "list_docker_services" }
func (ListDockerServices) Key() string        { return "docker" }

// DockerServiceOp starts, stops or restarts one compose service. Op is
// "start", "stop" or "restart".
type DockerServiceOp struct {
	Dir          string
	Service      string
	Op           string
	PortOverride int
}

func (DockerServiceOp) EffectKind() string { return "docker_service_op" }
func (e DockerServiceOp) Key() string      { return "docker/" + e.Service }

// FetchDockerLogs tails a service's logs.
type FetchDockerLogs struct {
	Dir     string
	Service string
	Tail    int
}

func (FetchDockerLogs) EffectKind() string { return "fetch_docker_logs" }
func (e FetchDockerLogs) Key() string      { return "docker/" + e.Service }

// SpawnTerminal opens a pty shell in the worktree.
type SpawnTerminal struct {
	Ref  action.WorktreeRef
	Dir  string
	Cols int
	Rows int
}

func (SpawnTerminal) EffectKind() string { return "spawn_terminal" }
func (e SpawnTerminal) Key() string      { return "term/" + e.Ref.WorktreeID }

// ResizeTerminal propagates a window size change to the pty.
type ResizeTerminal struct {
	Ref       action.WorktreeRef
	SessionID string
	Cols      int
	Rows      int
}

func (ResizeTerminal) EffectKind() string { return "resize_terminal" }
func (e ResizeTerminal) Key() string      { return "term/" + e.Ref.WorktreeID }

// CloseTerminal terminates the pty session.
type CloseTerminal struct {
	Ref       action.WorktreeRef
	SessionID string
}

func (CloseTerminal) EffectKind() string { return "close_terminal" }
func (e CloseTerminal) Key() string      { return "term/" + e.Ref.WorktreeID }

// ListDir reads a directory inside the worktree.
type ListDir struct {
	Ref  action.WorktreeRef
	Dir  string
	Path string
}

func (ListDir) EffectKind() string { return "list_dir" }
func (e ListDir) Key() string      { return "fs/" + e.Ref.WorktreeID }

// ReadWorktreeFile reads one file inside the worktree with the scoped-path
// checks applied.
type ReadWorktreeFile struct {
	Ref  action.WorktreeRef
	Dir  string
	Path string
}

func (ReadWorktreeFile) EffectKind() string { return "read_worktree_file" }
func (e ReadWorktreeFile) Key() string      { return "fs/" + e.Ref.WorktreeID }

// ProbeConstitution checks for the constitution document and loads it.
type ProbeConstitution struct {
	Ref action.WorktreeRef
	Dir string
}

func (ProbeConstitution) EffectKind() string { return "probe_constitution" }
func (e ProbeConstitution) Key() string      { return "constitution/" + e.Ref.WorktreeID }

// ProbeClaudeMd checks for a CLAUDE.md in the worktree root.
type ProbeClaudeMd struct {
	Ref action.WorktreeRef
	Dir string
}

func (ProbeClaudeMd) EffectKind() string { return "probe_claude_md" }
func (e ProbeClaudeMd) Key() string      { return "constitution/" + e.Ref.WorktreeID }

// GenerateConstitution streams a constitution draft from the agent.
type GenerateConstitution struct {
	Ref         action.WorktreeRef
	Dir         string
	Answers     map[string]string
	ClaudeMd    string
	ReferenceMd bool
}

func (GenerateConstitution) EffectKind() string { return "generate_constitution" }
func (e GenerateConstitution) Key() string      { return "constitution/" + e.Ref.WorktreeID }

// WriteConstitution persists the constitution document.
type WriteConstitution struct {
	Ref     action.WorktreeRef
	Dir     string
	Content string
}

func (WriteConstitution) EffectKind() string { return "write_constitution" }
func (e WriteConstitution) Key() string      { return "constitution/" + e.Ref.WorktreeID }

// WriteAgentRules materializes the active rules prompt into the shared
// rules file consumed by agent sessions.
type WriteAgentRules struct {
	ProjectID string
	Rules     string
}

func (WriteAgentRules) EffectKind() string { return "write_agent_rules" }
func (e WriteAgentRules) Key() string      { return "rules/" + e.ProjectID }

// CopyEnvFiles copies tracked env files between worktrees.
type CopyEnvFiles struct {
	ProjectID        string
	TargetWorktreeID string
	SrcDir           string
	DstDir           string
	Patterns         []string
}

func (CopyEnvFiles) EffectKind() string { return "copy_env_files" }
func (e CopyEnvFiles) Key() string      { return "env/" + e.ProjectID }

// ProbeContext discovers context documents in the worktree.
type ProbeContext struct {
	Ref action.WorktreeRef
	Dir string
}

func (ProbeContext) EffectKind() string { return "probe_context" }
func (e ProbeContext) Key() string      { return "context/" + e.Ref.WorktreeID }

// GenerateContext streams context documents from the agent.
type GenerateContext struct {
	Ref action.WorktreeRef
	Dir string
}

func (GenerateContext) EffectKind() string { return "generate_context" }
func (e GenerateContext) Key() string      { return "context/" + e.Ref.WorktreeID }

// SyncContext copies context documents from the main worktree.
type SyncContext struct {
	Ref     action.WorktreeRef
	MainDir string
	Dir     string
}

func (SyncContext) EffectKind() string { return "sync_context" }
func (e SyncContext) Key() string      { return "context/" + e.Ref.WorktreeID }

// GenerateProposal streams a change proposal from the agent.
type GenerateProposal struct {
	Ref      action.WorktreeRef
	Dir      string
	ChangeID string
	Intent   string
}

func (GenerateProposal) EffectKind() string { return "generate_proposal" }
func (e GenerateProposal) Key() string      { return "change/" + e.ChangeID }

// GeneratePlan streams an implementation plan from the agent.
type GeneratePlan struct {
	Ref      action.WorktreeRef
	Dir      string
	ChangeID string
	Proposal string
}

func (GeneratePlan) EffectKind() string { return "generate_plan" }
func (e GeneratePlan) Key() string      { return "change/" + e.ChangeID }

// ExecutePlan runs the agent against an approved plan.
type ExecutePlan struct {
	Ref      action.WorktreeRef
	Dir      string
	ChangeID string
	Plan     string
}

func (ExecutePlan) EffectKind() string { return "execute_plan" }
func (e ExecutePlan) Key() string      { return "change/" + e.ChangeID }

// ReviseReview sends open review comments back to the agent for another
// iteration.
type ReviseReview struct {
	Ref       action.WorktreeRef
	Dir       string
	SessionID string
	ChangeID  string
	Content   string
	Comments  []string
}

func (ReviseReview) EffectKind() string { return "revise_review" }
func (e ReviseReview) Key() string      { return "review/" + e.SessionID }

// ArchiveChange moves a change's files under the archive directory.
type ArchiveChange struct {
	Ref      action.WorktreeRef
	Dir      string
	ChangeID string
	Name     string
}

func (ArchiveChange) EffectKind() string { return "archive_change" }
func (e ArchiveChange) Key() string      { return "change/" + e.ChangeID }
