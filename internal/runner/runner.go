// Package runner executes effect descriptors against the outside world:
// git, the task runner, docker compose, pty shells, the filesystem and the
// coding-agent CLI. Results re-enter the store as follow-up actions.
//
// Long-running work (tasks, agent generations, the MCP server) is started
// and released so cancel effects on the same lane can reach it; completion
// callbacks dispatch the terminal action whenever the process ends.
package runner

import (
	"context"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/justfile"
	"github.com/calmren/atelier/internal/logging"
	"github.com/calmren/atelier/internal/proc"
	"github.com/calmren/atelier/internal/scopedfile"
	"github.com/calmren/atelier/internal/state"
	"github.com/calmren/atelier/internal/term"
	"github.com/calmren/atelier/internal/worktree"
)

// Options configures a Runner. Zero-value fields get working defaults;
// tests swap in fakes.
type Options struct {
	Logger *logging.Logger
	Git    *worktree.Git
	Just   justfile.Loader
	Agent  Agent
	Docker *ComposeCLI
	Term   *term.Manager
	// JustBinary is the task-runner binary used to run recipes.
	JustBinary string
	// McpCommand launches the per-worktree MCP server. Empty means the
	// feature reports unconfigured instead of spawning.
	McpCommand []string
	// TerminalData receives raw pty output. Terminal bytes bypass the
	// state tree; the IPC layer forwards them straight to the renderer.
	TerminalData func(ref action.WorktreeRef, sessionID string, data []byte)
}

// Runner translates effects into process and filesystem work.
type Runner struct {
	logger *logging.Logger
	git    *worktree.Git
	just   justfile.Loader
	agent  Agent
	docker *ComposeCLI
	term   *term.Manager
	opts   Options

	mu     sync.Mutex
	tasks  map[string]*proc.Handle
	agents map[string]AgentHandle // keyed by effect lane
	mcps   map[string]*proc.Handle
}

func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.WithComponent("runner")
	r := &Runner{
		logger: logger,
		git:    opts.Git,
		just:   opts.Just,
		agent:  opts.Agent,
		docker: opts.Docker,
		term:   opts.Term,
		opts:   opts,
		tasks:  map[string]*proc.Handle{},
		agents: map[string]AgentHandle{},
		mcps:   map[string]*proc.Handle{},
	}
	if r.git == nil {
		r.git = worktree.NewGit()
	}
	if r.just == nil {
		r.just = &justfile.CommandLoader{Logger: logger}
	}
	if r.agent == nil {
		r.agent = &CLIAgent{Logger: logger}
	}
	if r.docker == nil {
		r.docker = &ComposeCLI{Logger: logger}
	}
	if r.term == nil {
		r.term = term.NewManager(logger)
	}
	if r.opts.JustBinary == "" {
		r.opts.JustBinary = "just"
	}
	return r
}

// Close stops everything the runner started. Follow-up actions from the
// teardown are dispatched as usual; the closed store drops them.
func (r *Runner) Close() {
	r.mu.Lock()
	handles := make([]*proc.Handle, 0, len(r.tasks)+len(r.mcps))
	for _, h := range r.tasks {
		handles = append(handles, h)
	}
	for _, h := range r.mcps {
		handles = append(handles, h)
	}
	agents := make([]AgentHandle, 0, len(r.agents))
	for _, h := range r.agents {
		agents = append(agents, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
	for _, h := range agents {
		h.Cancel()
	}
	r.term.CloseAll()
}

// Handle runs one effect. The store serializes calls per effect key, so
// anything long-running must detach before returning.
func (r *Runner) Handle(ctx context.Context, e effect.Effect, dispatch func(action.Action)) {
	switch e := e.(type) {
	case effect.ScanWorktrees:
		r.scanWorktrees(e.ProjectID, e.Path, dispatch)
	case effect.ListBranches:
		r.listBranches(e, dispatch)
	case effect.CreateWorktree:
		r.createWorktree(e, dispatch)
	case effect.DeleteWorktree:
		r.deleteWorktree(e, dispatch)
	case effect.LoadJustCommands:
		r.loadJustCommands(ctx, e, dispatch)
	case effect.RunTask:
		r.runTask(ctx, e, dispatch)
	case effect.CancelTask:
		r.cancelTask(e)
	case effect.StreamAgent:
		r.streamChat(ctx, e, dispatch)
	case effect.CancelAgent:
		r.cancelAgent(e.Key())
	case effect.StartMcp:
		r.startMcp(ctx, e, dispatch)
	case effect.StopMcp:
		r.stopMcp(e)
	case effect.CheckDocker:
		available, probeErr := r.docker.Available(ctx)
		dispatch(&action.SetDockerAvailable{Available: available, Error: probeErr})
	case effect.ListDockerServices:
		r.listDockerServices(ctx, e, dispatch)
	case effect.DockerServiceOp:
		r.dockerServiceOp(ctx, e, dispatch)
	case effect.FetchDockerLogs:
		r.fetchDockerLogs(ctx, e, dispatch)
	case effect.SpawnTerminal:
		r.spawnTerminal(e, dispatch)
	case effect.ResizeTerminal:
		if err := r.term.Resize(e.SessionID, e.Cols, e.Rows); err != nil {
			r.logger.Debug("terminal resize failed", "session", e.SessionID, "error", err)
		}
	case effect.CloseTerminal:
		r.term.Close(e.SessionID)
	case effect.ListDir:
		r.listDir(e, dispatch)
	case effect.ReadWorktreeFile:
		r.readWorktreeFile(e, dispatch)
	case effect.ProbeConstitution:
		r.probeConstitution(e, dispatch)
	case effect.ProbeClaudeMd:
		r.probeClaudeMd(e, dispatch)
	case effect.GenerateConstitution:
		r.generateConstitution(ctx, e, dispatch)
	case effect.WriteConstitution:
		r.writeConstitutionEffect(e, dispatch)
	case effect.WriteAgentRules:
		if _, err := writeAgentRules(e.ProjectID, e.Rules); err != nil {
			r.logger.Warn("agent rules write failed", "project", e.ProjectID, "error", err)
		}
	case effect.CopyEnvFiles:
		copied, err := copyEnvFiles(e.SrcDir, e.DstDir, e.Patterns)
		dispatch(&action.SetEnvCopyResult{
			ProjectID:        e.ProjectID,
			TargetWorktreeID: e.TargetWorktreeID,
			Copied:           copied,
			Error:            errString(err),
		})
	case effect.ProbeContext:
		dispatch(&action.SetContextFiles{Ref: e.Ref, Files: probeContextFiles(e.Dir)})
	case effect.GenerateContext:
		r.generateContext(ctx, e, dispatch)
	case effect.SyncContext:
		err := syncContextFiles(e.MainDir, e.Dir)
		dispatch(&action.CompleteContextSync{Ref: e.Ref, Error: errString(err)})
	case effect.GenerateProposal:
		r.streamChange(ctx, e.Ref, e.Dir, e.ChangeID, proposalPrompt(e.Intent), dispatch,
			func(chunk string) action.Action {
				return &action.AppendProposalOutput{Ref: e.Ref, ChangeID: e.ChangeID, Chunk: chunk}
			},
			&action.CompleteProposal{Ref: e.Ref, ChangeID: e.ChangeID})
	case effect.GeneratePlan:
		r.streamChange(ctx, e.Ref, e.Dir, e.ChangeID, planPrompt(e.Proposal), dispatch,
			func(chunk string) action.Action {
				return &action.AppendPlanOutput{Ref: e.Ref, ChangeID: e.ChangeID, Chunk: chunk}
			},
			&action.CompletePlan{Ref: e.Ref, ChangeID: e.ChangeID})
	case effect.ExecutePlan:
		r.streamChange(ctx, e.Ref, e.Dir, e.ChangeID, executePrompt(e.Plan), dispatch,
			func(chunk string) action.Action {
				return &action.AppendImplementationOutput{Ref: e.Ref, ChangeID: e.ChangeID, Chunk: chunk}
			},
			&action.CompleteImplementation{Ref: e.Ref, ChangeID: e.ChangeID})
	case effect.ReviseReview:
		r.reviseReview(ctx, e, dispatch)
	case effect.ArchiveChange:
		err := archiveChangeDir(e.Dir, e.Name, time.Now())
		dispatch(&action.SetChangeArchived{Ref: e.Ref, ChangeID: e.ChangeID, Error: errString(err)})
	default:
		r.logger.Warn("unhandled effect", "kind", e.EffectKind())
	}
}

func (r *Runner) scanWorktrees(projectID, repoPath string, dispatch func(action.Action)) {
	infos, err := r.git.List(repoPath)
	if err != nil {
		r.logger.Warn("worktree scan failed", "project", projectID, "error", err)
		dispatch(&action.AddNotification{
			Level:   "error",
			Title:   "Worktree scan failed",
			Message: err.Error(),
		})
		return
	}
	dispatch(&action.SetWorktrees{ProjectID: projectID, Worktrees: worktreeInfos(infos)})
}

func (r *Runner) listBranches(e effect.ListBranches, dispatch func(action.Action)) {
	branches, err := r.git.Branches(e.Path)
	if err != nil {
		dispatch(&action.SetBranches{ProjectID: e.ProjectID, Error: err.Error()})
		return
	}
	out := make([]action.BranchInfo, 0, len(branches))
	for _, b := range branches {
		out = append(out, action.BranchInfo{
			Name:      b.Name,
			IsCurrent: b.IsCurrent,
			IsRemote:  b.IsRemote,
		})
	}
	dispatch(&action.SetBranches{ProjectID: e.ProjectID, Branches: out})
}

func (r *Runner) createWorktree(e effect.CreateWorktree, dispatch func(action.Action)) {
	if _, err := r.git.Add(e.RepoPath, e.Branch, e.NewBranch); err != nil {
		dispatch(&action.AddNotification{
			Level:   "error",
			Title:   "Add worktree failed",
			Message: err.Error(),
		})
		return
	}
	r.scanWorktrees(e.ProjectID, e.RepoPath, dispatch)
}

func (r *Runner) deleteWorktree(e effect.DeleteWorktree, dispatch func(action.Action)) {
	if err := r.git.Remove(e.RepoPath, e.WorktreePath); err != nil {
		dispatch(&action.AddNotification{
			Level:   "error",
			Title:   "Remove worktree failed",
			Message: err.Error(),
		})
		return
	}
	r.scanWorktrees(e.ProjectID, e.RepoPath, dispatch)
}

func (r *Runner) loadJustCommands(ctx context.Context, e effect.LoadJustCommands, dispatch func(action.Action)) {
	commands, err := r.just.Load(ctx, e.Dir)
	if err != nil {
		dispatch(&action.SetJustCommands{Ref: e.Ref, Error: err.Error()})
		return
	}
	dispatch(&action.SetJustCommands{Ref: e.Ref, Commands: commands})
}

func (r *Runner) runTask(ctx context.Context, e effect.RunTask, dispatch func(action.Action)) {
	key := e.Ref.WorktreeID + "/" + e.Name
	h, err := proc.Spawn(ctx, proc.Spec{
		Command: r.opts.JustBinary,
		Args:    []string{e.Name},
		Dir:     e.Dir,
	}, r.logger, func(ln proc.Line) {
		dispatch(&action.AppendTaskOutput{Ref: e.Ref, Name: e.Name, Line: ln.Text})
	}, func(res proc.Result) {
		r.dropTask(key)
		dispatch(&action.CompleteTask{
			Ref:      e.Ref,
			Name:     e.Name,
			Status:   taskStatus(res),
			ExitCode: res.ExitCode,
			Error:    errString(res.Err),
		})
	})
	if err != nil {
		dispatch(&action.CompleteTask{
			Ref:      e.Ref,
			Name:     e.Name,
			Status:   state.TaskFailed,
			ExitCode: -1,
			Error:    err.Error(),
		})
		return
	}
	r.mu.Lock()
	r.tasks[key] = h
	r.mu.Unlock()
}

func (r *Runner) cancelTask(e effect.CancelTask) {
	key := e.Ref.WorktreeID + "/" + e.Name
	r.mu.Lock()
	h := r.tasks[key]
	r.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}

func (r *Runner) dropTask(key string) {
	r.mu.Lock()
	delete(r.tasks, key)
	r.mu.Unlock()
}

// startAgent launches a generation registered under its lane so a later
// cancel on the same lane can reach it. Chat, constitution, context, change,
// and review generations on one worktree each get their own lane, so none
// of them clobbers another's handle. A stale handle left on the lane is
// cancelled before the new one replaces it.
func (r *Runner) startAgent(ctx context.Context, lane string, req AgentRequest, onToken func(string), onDone func(error)) {
	var registered AgentHandle
	h, err := r.agent.Start(ctx, req, onToken, func(streamErr error) {
		r.mu.Lock()
		if registered != nil && r.agents[lane] == registered {
			delete(r.agents, lane)
		}
		r.mu.Unlock()
		onDone(streamErr)
	})
	if err != nil {
		onDone(err)
		return
	}
	r.mu.Lock()
	prev := r.agents[lane]
	r.agents[lane] = h
	registered = h
	r.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
}

func (r *Runner) cancelAgent(lane string) {
	r.mu.Lock()
	h := r.agents[lane]
	r.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}

func (r *Runner) streamChat(ctx context.Context, e effect.StreamAgent, dispatch func(action.Action)) {
	r.startAgent(ctx, e.Key(), AgentRequest{Dir: e.Dir, Prompt: e.Prompt, Rules: e.Rules},
		func(token string) {
			dispatch(&action.AppendChatToken{Ref: e.Ref, Token: token})
		},
		func(err error) {
			switch {
			case err == nil, errors.IsCanceled(err):
				dispatch(&action.CompleteChatMessage{Ref: e.Ref})
			default:
				dispatch(&action.SetChatError{Ref: e.Ref, Error: err.Error()})
			}
		})
}

func (r *Runner) generateConstitution(ctx context.Context, e effect.GenerateConstitution, dispatch func(action.Action)) {
	prompt := constitutionPrompt(e.Answers, e.ClaudeMd, e.ReferenceMd)
	r.startAgent(ctx, e.Key(), AgentRequest{Dir: e.Dir, Prompt: prompt},
		func(token string) {
			dispatch(&action.AppendConstitutionOutput{Ref: e.Ref, Chunk: token})
		},
		func(err error) {
			switch {
			case err == nil:
				dispatch(&action.CompleteConstitution{Ref: e.Ref})
			case errors.IsCanceled(err):
				r.logger.Debug("constitution generation cancelled", "worktree", e.Ref.WorktreeID)
			default:
				dispatch(&action.SetConstitutionError{Ref: e.Ref, Error: err.Error()})
			}
		})
}

func (r *Runner) generateContext(ctx context.Context, e effect.GenerateContext, dispatch func(action.Action)) {
	r.startAgent(ctx, e.Key(), AgentRequest{Dir: e.Dir, Prompt: contextPrompt()},
		func(token string) {
			dispatch(&action.AppendContextOutput{Ref: e.Ref, Chunk: token})
		},
		func(err error) {
			switch {
			case err == nil:
				dispatch(&action.CompleteGenerateContext{Ref: e.Ref})
			case errors.IsCanceled(err):
				r.logger.Debug("context generation cancelled", "worktree", e.Ref.WorktreeID)
			default:
				dispatch(&action.FailGenerateContext{Ref: e.Ref, Error: err.Error()})
			}
		})
}

// streamChange drives one stage of the change pipeline. Any failure,
// including a launch failure, moves the change to failed.
func (r *Runner) streamChange(ctx context.Context, ref action.WorktreeRef, dir, changeID, prompt string,
	dispatch func(action.Action), appendAction func(string) action.Action, complete action.Action) {
	r.startAgent(ctx, "change/"+changeID, AgentRequest{Dir: dir, Prompt: prompt},
		func(token string) {
			dispatch(appendAction(token))
		},
		func(err error) {
			switch {
			case err == nil:
				dispatch(complete)
			case errors.IsCanceled(err):
				r.logger.Debug("change generation cancelled", "change", changeID)
			default:
				dispatch(&action.FailChange{Ref: ref, ChangeID: changeID, Error: err.Error()})
			}
		})
}

func (r *Runner) reviseReview(ctx context.Context, e effect.ReviseReview, dispatch func(action.Action)) {
	var out []byte
	var outMu sync.Mutex
	r.startAgent(ctx, "review/"+e.SessionID,
		AgentRequest{Dir: e.Dir, Prompt: revisePrompt(e.Content, e.Comments)},
		func(token string) {
			outMu.Lock()
			out = append(out, token...)
			outMu.Unlock()
		},
		func(err error) {
			switch {
			case err == nil:
				outMu.Lock()
				content := string(out)
				outMu.Unlock()
				dispatch(&action.UpdateReviewContent{Ref: e.Ref, SessionID: e.SessionID, Content: content})
			case errors.IsCanceled(err):
				r.logger.Debug("review revision cancelled", "session", e.SessionID)
			default:
				dispatch(&action.AddNotification{
					Level:   "error",
					Title:   "Review revision failed",
					Message: err.Error(),
				})
			}
		})
}

var mcpListenRe = regexp.MustCompile(`listen\w*\b.*:(\d+)`)

func (r *Runner) startMcp(ctx context.Context, e effect.StartMcp, dispatch func(action.Action)) {
	if len(r.opts.McpCommand) == 0 {
		dispatch(&action.SetMcpStatus{
			Ref:    e.Ref,
			Status: state.McpError,
			Error:  "mcp server command not configured",
		})
		return
	}
	dispatch(&action.SetMcpStatus{Ref: e.Ref, Status: state.McpStarting})
	running := false
	h, err := proc.Spawn(ctx, proc.Spec{
		Command: r.opts.McpCommand[0],
		Args:    r.opts.McpCommand[1:],
		Dir:     e.Dir,
	}, r.logger, func(ln proc.Line) {
		dispatch(&action.AddMcpLogEntry{Ref: e.Ref, Direction: state.McpLogOut, Message: ln.Text})
		if running {
			return
		}
		if m := mcpListenRe.FindStringSubmatch(ln.Text); m != nil {
			port, convErr := strconv.Atoi(m[1])
			if convErr == nil {
				running = true
				dispatch(&action.SetMcpStatus{Ref: e.Ref, Status: state.McpRunning, Port: port})
			}
		}
	}, func(res proc.Result) {
		r.mu.Lock()
		delete(r.mcps, e.Ref.WorktreeID)
		r.mu.Unlock()
		if res.Canceled || (res.Err == nil && res.ExitCode == 0) {
			dispatch(&action.SetMcpStatus{Ref: e.Ref, Status: state.McpStopped})
			return
		}
		msg := "mcp server exited with status " + strconv.Itoa(res.ExitCode)
		if res.Err != nil {
			msg = res.Err.Error()
		}
		dispatch(&action.SetMcpStatus{Ref: e.Ref, Status: state.McpError, Error: msg})
	})
	if err != nil {
		dispatch(&action.SetMcpStatus{Ref: e.Ref, Status: state.McpError, Error: err.Error()})
		return
	}
	r.mu.Lock()
	r.mcps[e.Ref.WorktreeID] = h
	r.mu.Unlock()
}

func (r *Runner) stopMcp(e effect.StopMcp) {
	r.mu.Lock()
	h := r.mcps[e.Ref.WorktreeID]
	r.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}

func (r *Runner) listDockerServices(ctx context.Context, e effect.ListDockerServices, dispatch func(action.Action)) {
	services, err := r.docker.Services(ctx, e.Dir)
	if err != nil {
		dispatch(&action.SetDockerServices{Error: err.Error()})
		return
	}
	dispatch(&action.SetDockerServices{Services: services})
}

func (r *Runner) dockerServiceOp(ctx context.Context, e effect.DockerServiceOp, dispatch func(action.Action)) {
	out, err := r.docker.ServiceOp(ctx, e.Dir, e.Service, e.Op, e.PortOverride)
	if err != nil {
		if port, ok := ParsePortConflict(out); ok {
			dispatch(&action.ReportPortConflict{Name: e.Service, Port: port})
			dispatch(&action.SetDockerServiceStatus{Name: e.Service, Status: state.ServiceStopped})
			return
		}
		dispatch(&action.SetDockerServiceStatus{
			Name:   e.Service,
			Status: state.ServiceError,
			Error:  err.Error(),
		})
		return
	}
	status := state.ServiceRunning
	if e.Op == "stop" {
		status = state.ServiceStopped
	}
	dispatch(&action.SetDockerServiceStatus{Name: e.Service, Status: status})
}

func (r *Runner) fetchDockerLogs(ctx context.Context, e effect.FetchDockerLogs, dispatch func(action.Action)) {
	lines, err := r.docker.Logs(ctx, e.Dir, e.Service, e.Tail)
	if err != nil {
		dispatch(&action.SetDockerLogs{Name: e.Service, Error: err.Error()})
		return
	}
	dispatch(&action.SetDockerLogs{Name: e.Service, Lines: lines})
}

func (r *Runner) spawnTerminal(e effect.SpawnTerminal, dispatch func(action.Action)) {
	// The reader goroutine can deliver output before Spawn returns the
	// session, so the id is published to the callback under a lock.
	var idMu sync.Mutex
	var sessionID string
	sess, err := r.term.Spawn(e.Dir, e.Cols, e.Rows, func(data []byte) {
		if r.opts.TerminalData == nil {
			return
		}
		idMu.Lock()
		id := sessionID
		idMu.Unlock()
		r.opts.TerminalData(e.Ref, id, data)
	}, func() {
		dispatch(&action.SetTerminalSession{Ref: e.Ref, SessionID: ""})
	})
	if err != nil {
		dispatch(&action.SetTerminalSession{Ref: e.Ref, Error: err.Error()})
		return
	}
	idMu.Lock()
	sessionID = sess.ID
	idMu.Unlock()
	dispatch(&action.SetTerminalSession{Ref: e.Ref, SessionID: sess.ID})
}

func (r *Runner) listDir(e effect.ListDir, dispatch func(action.Action)) {
	entries, err := scopedfile.ListDir(e.Dir, e.Path)
	if err != nil {
		dispatch(&action.SetExplorerEntries{Ref: e.Ref, Path: e.Path, Error: err.Error()})
		return
	}
	out := make([]action.ExplorerEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, action.ExplorerEntry{
			Name:  entry.Name,
			IsDir: entry.IsDir,
			Size:  entry.Size,
		})
	}
	dispatch(&action.SetExplorerEntries{Ref: e.Ref, Path: e.Path, Entries: out})
}

func (r *Runner) readWorktreeFile(e effect.ReadWorktreeFile, dispatch func(action.Action)) {
	content, err := scopedfile.Read(e.Dir, e.Path)
	if err != nil {
		dispatch(&action.SetExplorerFileContent{Ref: e.Ref, Path: e.Path, Error: err.Error()})
		return
	}
	dispatch(&action.SetExplorerFileContent{Ref: e.Ref, Path: e.Path, Content: content})
}

func (r *Runner) probeConstitution(e effect.ProbeConstitution, dispatch func(action.Action)) {
	content, err := scopedfile.Read(e.Dir, constitutionPath)
	if err != nil {
		dispatch(&action.SetConstitutionExists{Ref: e.Ref, Exists: false})
		if errors.CodeOf(err) != errors.CodeFileNotFound {
			dispatch(&action.SetConstitutionContent{Ref: e.Ref, Error: err.Error()})
		}
		return
	}
	dispatch(&action.SetConstitutionExists{Ref: e.Ref, Exists: true})
	dispatch(&action.SetConstitutionContent{Ref: e.Ref, Content: content})
}

func (r *Runner) probeClaudeMd(e effect.ProbeClaudeMd, dispatch func(action.Action)) {
	content, err := scopedfile.Read(e.Dir, claudeMdPath)
	if err != nil {
		dispatch(&action.SetClaudeMd{Ref: e.Ref, Exists: false})
		return
	}
	dispatch(&action.SetClaudeMd{Ref: e.Ref, Exists: true, Content: content})
}

func (r *Runner) writeConstitutionEffect(e effect.WriteConstitution, dispatch func(action.Action)) {
	if err := writeConstitution(e.Dir, e.Content); err != nil {
		dispatch(&action.SetConstitutionError{Ref: e.Ref, Error: err.Error()})
		return
	}
	dispatch(&action.SetConstitutionExists{Ref: e.Ref, Exists: true})
}

func worktreeInfos(infos []worktree.Info) []action.WorktreeInfo {
	out := make([]action.WorktreeInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, action.WorktreeInfo{
			Path:   info.Path,
			Branch: info.Branch,
			IsMain: info.IsMain,
		})
	}
	return out
}

func taskStatus(res proc.Result) state.TaskStatus {
	switch {
	case res.Canceled:
		return state.TaskCancelled
	case res.Err != nil:
		return state.TaskFailed
	case res.ExitCode == 0:
		return state.TaskSucceeded
	default:
		return state.TaskFailed
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
