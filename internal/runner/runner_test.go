package runner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
	"github.com/calmren/atelier/internal/worktree"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder collects dispatched follow-up actions.
type recorder struct {
	mu      sync.Mutex
	actions []action.Action
}

func (r *recorder) dispatch(a action.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
}

func (r *recorder) last(actionType string) action.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.actions) - 1; i >= 0; i-- {
		if r.actions[i].ActionType() == actionType {
			return r.actions[i]
		}
	}
	return nil
}

func (r *recorder) all(actionType string) []action.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []action.Action
	for _, a := range r.actions {
		if a.ActionType() == actionType {
			out = append(out, a)
		}
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

var testRef = action.WorktreeRef{ProjectID: "p1", WorktreeID: "wt1"}

type fakeGitExec struct {
	output []byte
	err    error
}

func (f fakeGitExec) Run(dir, name string, args ...string) ([]byte, error) {
	return f.output, f.err
}

func TestScanWorktreesDispatchesDiscovery(t *testing.T) {
	porcelain := "worktree /work/demo\nHEAD abc\nbranch refs/heads/main\n\n" +
		"worktree /work/demo-worktrees/feature-x\nHEAD def\nbranch refs/heads/feature/x\n\n"
	r := New(Options{Git: worktree.NewGitWithExecutor(fakeGitExec{output: []byte(porcelain)})})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.ScanWorktrees{ProjectID: "p1", Path: "/work/demo"}, rec.dispatch)

	a, ok := rec.last("SetWorktrees").(*action.SetWorktrees)
	if !ok {
		t.Fatal("no SetWorktrees dispatched")
	}
	if a.ProjectID != "p1" || len(a.Worktrees) != 2 {
		t.Fatalf("SetWorktrees = %+v", a)
	}
	if !a.Worktrees[0].IsMain || a.Worktrees[1].Branch != "feature/x" {
		t.Fatalf("worktrees = %+v", a.Worktrees)
	}
}

func TestScanWorktreesFailureNotifies(t *testing.T) {
	r := New(Options{Git: worktree.NewGitWithExecutor(fakeGitExec{err: os.ErrPermission})})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.ScanWorktrees{ProjectID: "p1", Path: "/work/demo"}, rec.dispatch)

	if rec.last("SetWorktrees") != nil {
		t.Fatal("should not dispatch SetWorktrees on failure")
	}
	n, ok := rec.last("AddNotification").(*action.AddNotification)
	if !ok || n.Level != "error" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestListBranchesFailureCarriesError(t *testing.T) {
	r := New(Options{Git: worktree.NewGitWithExecutor(fakeGitExec{err: os.ErrPermission})})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.ListBranches{ProjectID: "p1", Path: "/work/demo"}, rec.dispatch)

	a, ok := rec.last("SetBranches").(*action.SetBranches)
	if !ok || a.Error == "" {
		t.Fatalf("SetBranches = %+v", a)
	}
}

// scriptedAgent replays a fixed token stream.
type scriptedAgent struct {
	tokens []string
	err    error
	done   chan struct{}
}

type nopHandle struct{}

func (nopHandle) Cancel() {}

func (a *scriptedAgent) Start(ctx context.Context, req AgentRequest, onToken func(string), onDone func(error)) (AgentHandle, error) {
	go func() {
		for _, tok := range a.tokens {
			onToken(tok)
		}
		onDone(a.err)
		if a.done != nil {
			close(a.done)
		}
	}()
	return nopHandle{}, nil
}

func TestStreamChatTokensThenCompletion(t *testing.T) {
	agent := &scriptedAgent{tokens: []string{"hello ", "world"}, done: make(chan struct{})}
	r := New(Options{Agent: agent})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.StreamAgent{Ref: testRef, Dir: "/tmp", Prompt: "hi"}, rec.dispatch)
	<-agent.done

	waitFor(t, "completion", func() bool { return rec.last("CompleteChatMessage") != nil })
	tokens := rec.all("AppendChatToken")
	if len(tokens) != 2 {
		t.Fatalf("token count = %d, want 2", len(tokens))
	}
	if got := tokens[0].(*action.AppendChatToken).Token; got != "hello " {
		t.Fatalf("first token = %q", got)
	}
}

func TestStreamChatFailureSetsError(t *testing.T) {
	agent := &scriptedAgent{
		err:  errors.NewResourceError(errors.CodeSpawnFailed, "agent exploded", nil),
		done: make(chan struct{}),
	}
	r := New(Options{Agent: agent})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.StreamAgent{Ref: testRef, Dir: "/tmp", Prompt: "hi"}, rec.dispatch)
	<-agent.done

	waitFor(t, "chat error", func() bool { return rec.last("SetChatError") != nil })
	if rec.last("CompleteChatMessage") != nil {
		t.Fatal("failed stream must not complete the message")
	}
}

// blockingAgent streams nothing until cancelled.
type blockingAgent struct {
	cancelOnce sync.Once
	cancelled  chan struct{}
}

type blockingHandle struct{ a *blockingAgent }

func (h blockingHandle) Cancel() {
	h.a.cancelOnce.Do(func() { close(h.a.cancelled) })
}

func (a *blockingAgent) Start(ctx context.Context, req AgentRequest, onToken func(string), onDone func(error)) (AgentHandle, error) {
	go func() {
		<-a.cancelled
		onDone(errors.NewCanceledError("agent generation"))
	}()
	return blockingHandle{a}, nil
}

func TestCancelAgentFinalizesChat(t *testing.T) {
	agent := &blockingAgent{cancelled: make(chan struct{})}
	r := New(Options{Agent: agent})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.StreamAgent{Ref: testRef, Dir: "/tmp", Prompt: "hi"}, rec.dispatch)
	r.Handle(context.Background(), effect.CancelAgent{Ref: testRef}, rec.dispatch)

	waitFor(t, "completion after cancel", func() bool { return rec.last("CompleteChatMessage") != nil })
	if rec.last("SetChatError") != nil {
		t.Fatal("cancel is not an error")
	}
}

// multiAgent hands out one independently cancellable handle per Start.
type multiAgent struct {
	mu      sync.Mutex
	handles []*multiHandle
}

type multiHandle struct {
	once      sync.Once
	onDone    func(error)
	cancelled bool
}

func (h *multiHandle) Cancel() {
	h.once.Do(func() {
		h.cancelled = true
		h.onDone(errors.NewCanceledError("agent generation"))
	})
}

func (a *multiAgent) Start(ctx context.Context, req AgentRequest, onToken func(string), onDone func(error)) (AgentHandle, error) {
	h := &multiHandle{onDone: onDone}
	a.mu.Lock()
	a.handles = append(a.handles, h)
	a.mu.Unlock()
	return h, nil
}

func (a *multiAgent) handle(i int) *multiHandle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handles[i]
}

func TestAgentLanesAreIndependent(t *testing.T) {
	agent := &multiAgent{}
	r := New(Options{Agent: agent})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.StreamAgent{Ref: testRef, Dir: "/tmp", Prompt: "hi"}, rec.dispatch)
	r.Handle(context.Background(), effect.GenerateConstitution{Ref: testRef, Dir: "/tmp"}, rec.dispatch)

	// Cancelling the constitution stream must leave the chat stream alone.
	r.Handle(context.Background(), effect.CancelAgent{Ref: testRef, Kind: "constitution"}, rec.dispatch)
	if !agent.handle(1).cancelled {
		t.Fatal("constitution stream not cancelled")
	}
	if agent.handle(0).cancelled {
		t.Fatal("chat stream cancelled by the constitution cancel")
	}
	if rec.last("CompleteChatMessage") != nil {
		t.Fatal("chat completed before its own cancel")
	}

	r.Handle(context.Background(), effect.CancelAgent{Ref: testRef}, rec.dispatch)
	waitFor(t, "chat completion", func() bool { return rec.last("CompleteChatMessage") != nil })
	if !agent.handle(0).cancelled {
		t.Fatal("chat stream not cancelled")
	}
}

func TestGenerateConstitutionStreams(t *testing.T) {
	agent := &scriptedAgent{tokens: []string{"# Constitution\n"}, done: make(chan struct{})}
	r := New(Options{Agent: agent})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.GenerateConstitution{
		Ref:     testRef,
		Dir:     "/tmp",
		Answers: map[string]string{"tech_stack": "Go"},
	}, rec.dispatch)
	<-agent.done

	waitFor(t, "constitution completion", func() bool { return rec.last("CompleteConstitution") != nil })
	chunk := rec.last("AppendConstitutionOutput").(*action.AppendConstitutionOutput)
	if chunk.Chunk != "# Constitution\n" {
		t.Fatalf("chunk = %q", chunk.Chunk)
	}
}

func TestGenerateProposalFailureFailsChange(t *testing.T) {
	agent := &scriptedAgent{
		err:  errors.NewResourceError(errors.CodeSpawnFailed, "agent exploded", nil),
		done: make(chan struct{}),
	}
	r := New(Options{Agent: agent})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.GenerateProposal{
		Ref:      testRef,
		Dir:      "/tmp",
		ChangeID: "c1",
		Intent:   "add auth",
	}, rec.dispatch)
	<-agent.done

	waitFor(t, "failed change", func() bool { return rec.last("FailChange") != nil })
	fail := rec.last("FailChange").(*action.FailChange)
	if fail.ChangeID != "c1" || fail.Error == "" {
		t.Fatalf("FailChange = %+v", fail)
	}
}

func TestReviseReviewCollectsOutput(t *testing.T) {
	agent := &scriptedAgent{tokens: []string{"revised ", "document"}, done: make(chan struct{})}
	r := New(Options{Agent: agent})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.ReviseReview{
		Ref:       testRef,
		Dir:       "/tmp",
		SessionID: "s1",
		ChangeID:  "c1",
		Content:   "old",
		Comments:  []string{"fix the title"},
	}, rec.dispatch)
	<-agent.done

	waitFor(t, "review update", func() bool { return rec.last("UpdateReviewContent") != nil })
	upd := rec.last("UpdateReviewContent").(*action.UpdateReviewContent)
	if upd.SessionID != "s1" || upd.Content != "revised document" {
		t.Fatalf("UpdateReviewContent = %+v", upd)
	}
}

func TestRunTaskStreamsAndCompletes(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "task.sh")
	if err := os.WriteFile(script, []byte("echo one\necho two\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := New(Options{JustBinary: "sh"})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.RunTask{Ref: testRef, Dir: dir, Name: "task.sh"}, rec.dispatch)

	waitFor(t, "task completion", func() bool { return rec.last("CompleteTask") != nil })
	done := rec.last("CompleteTask").(*action.CompleteTask)
	if done.Status != state.TaskSucceeded || done.ExitCode != 0 {
		t.Fatalf("CompleteTask = %+v", done)
	}
	lines := rec.all("AppendTaskOutput")
	if len(lines) != 2 || lines[1].(*action.AppendTaskOutput).Line != "two" {
		t.Fatalf("output = %+v", lines)
	}
}

func TestRunTaskSpawnFailure(t *testing.T) {
	r := New(Options{JustBinary: "/does/not/exist"})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.RunTask{Ref: testRef, Dir: t.TempDir(), Name: "build"}, rec.dispatch)

	waitFor(t, "task failure", func() bool { return rec.last("CompleteTask") != nil })
	done := rec.last("CompleteTask").(*action.CompleteTask)
	if done.Status != state.TaskFailed || done.Error == "" {
		t.Fatalf("CompleteTask = %+v", done)
	}
}

func TestCancelTask(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "slow.sh")
	if err := os.WriteFile(script, []byte("sleep 30\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := New(Options{JustBinary: "sh"})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.RunTask{Ref: testRef, Dir: dir, Name: "slow.sh"}, rec.dispatch)
	r.Handle(context.Background(), effect.CancelTask{Ref: testRef, Name: "slow.sh"}, rec.dispatch)

	waitFor(t, "cancelled task", func() bool { return rec.last("CompleteTask") != nil })
	done := rec.last("CompleteTask").(*action.CompleteTask)
	if done.Status != state.TaskCancelled {
		t.Fatalf("status = %q, want cancelled", done.Status)
	}
}

func TestDockerServiceOpPortConflict(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "docker-stub")
	script := "#!/bin/sh\necho 'Bind for 0.0.0.0:5432 failed: port is already allocated' >&2\nexit 1\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	r := New(Options{Docker: &ComposeCLI{Binary: stub}})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.DockerServiceOp{Dir: dir, Service: "db", Op: "start"}, rec.dispatch)

	conflict, ok := rec.last("ReportPortConflict").(*action.ReportPortConflict)
	if !ok || conflict.Port != 5432 || conflict.Name != "db" {
		t.Fatalf("ReportPortConflict = %+v", conflict)
	}
	status := rec.last("SetDockerServiceStatus").(*action.SetDockerServiceStatus)
	if status.Status != state.ServiceStopped {
		t.Fatalf("status = %q, want stopped", status.Status)
	}
}

func TestDockerServiceOpSuccess(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "docker-stub")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := New(Options{Docker: &ComposeCLI{Binary: stub}})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.DockerServiceOp{Dir: dir, Service: "db", Op: "stop"}, rec.dispatch)

	status := rec.last("SetDockerServiceStatus").(*action.SetDockerServiceStatus)
	if status.Status != state.ServiceStopped || status.Error != "" {
		t.Fatalf("status = %+v", status)
	}
}

func TestProbeConstitution(t *testing.T) {
	dir := t.TempDir()
	r := New(Options{})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.ProbeConstitution{Ref: testRef, Dir: dir}, rec.dispatch)
	exists := rec.last("SetConstitutionExists").(*action.SetConstitutionExists)
	if exists.Exists {
		t.Fatal("constitution should not exist yet")
	}

	if err := writeConstitution(dir, "# Rules"); err != nil {
		t.Fatal(err)
	}
	r.Handle(context.Background(), effect.ProbeConstitution{Ref: testRef, Dir: dir}, rec.dispatch)
	exists = rec.last("SetConstitutionExists").(*action.SetConstitutionExists)
	content := rec.last("SetConstitutionContent").(*action.SetConstitutionContent)
	if !exists.Exists || content.Content != "# Rules" {
		t.Fatalf("probe = %+v / %+v", exists, content)
	}
}

func TestStartMcpUnconfigured(t *testing.T) {
	r := New(Options{})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.StartMcp{Ref: testRef, Dir: t.TempDir()}, rec.dispatch)

	status := rec.last("SetMcpStatus").(*action.SetMcpStatus)
	if status.Status != state.McpError || status.Error == "" {
		t.Fatalf("SetMcpStatus = %+v", status)
	}
}

func TestStartMcpReportsListeningPort(t *testing.T) {
	dir := t.TempDir()
	server := filepath.Join(dir, "mcp.sh")
	if err := os.WriteFile(server, []byte("echo 'listening on 127.0.0.1:7423'\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := New(Options{McpCommand: []string{"sh", server}})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.StartMcp{Ref: testRef, Dir: dir}, rec.dispatch)

	waitFor(t, "mcp stop", func() bool {
		a := rec.last("SetMcpStatus")
		return a != nil && a.(*action.SetMcpStatus).Status == state.McpStopped
	})
	var sawRunning bool
	for _, a := range rec.all("SetMcpStatus") {
		s := a.(*action.SetMcpStatus)
		if s.Status == state.McpRunning && s.Port == 7423 {
			sawRunning = true
		}
	}
	if !sawRunning {
		t.Fatal("never reported running with the advertised port")
	}
	if rec.last("AddMcpLogEntry") == nil {
		t.Fatal("no protocol log entries")
	}
}

func TestListDirAndReadFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := New(Options{})
	defer r.Close()
	rec := &recorder{}

	r.Handle(context.Background(), effect.ListDir{Ref: testRef, Dir: dir, Path: ""}, rec.dispatch)
	entries := rec.last("SetExplorerEntries").(*action.SetExplorerEntries)
	if len(entries.Entries) != 1 || entries.Entries[0].Name != "main.go" {
		t.Fatalf("entries = %+v", entries.Entries)
	}

	r.Handle(context.Background(), effect.ReadWorktreeFile{Ref: testRef, Dir: dir, Path: "main.go"}, rec.dispatch)
	content := rec.last("SetExplorerFileContent").(*action.SetExplorerFileContent)
	if content.Content != "package main\n" {
		t.Fatalf("content = %+v", content)
	}

	r.Handle(context.Background(), effect.ReadWorktreeFile{Ref: testRef, Dir: dir, Path: "../escape"}, rec.dispatch)
	escape := rec.last("SetExplorerFileContent").(*action.SetExplorerFileContent)
	if escape.Error == "" {
		t.Fatal("scope escape must surface an error")
	}
}
