package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/config"
	"github.com/calmren/atelier/internal/ipc"
	"github.com/calmren/atelier/internal/justfile"
	"github.com/calmren/atelier/internal/logging"
	"github.com/calmren/atelier/internal/persist"
	"github.com/calmren/atelier/internal/runner"
	"github.com/calmren/atelier/internal/state"
	"github.com/calmren/atelier/internal/store"
	"github.com/calmren/atelier/internal/term"
	"github.com/calmren/atelier/internal/watch"
	"github.com/calmren/atelier/internal/worktree"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the atelier daemon",
	Long: `Run the atelier daemon in the foreground.

The daemon loads durable state from the data directory, binds the unix
socket, and serves until interrupted. Exactly one daemon may run per
data directory; a second serve against the same directory fails on the
lock file.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dataDir, err := cfg.Paths.ResolveDataDir(persist.DataDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	logger, err := logging.NewLoggerWithRotation(dataDir, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	persister, err := persist.Open(dataDir, cfg.Persist.Debounce(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = persister.Close() }()

	initial := persister.Load()

	// The runner needs the IPC server for terminal output, and the server
	// needs the store, which needs the runner. The atomic breaks the
	// cycle; terminal bytes dropped before the server exists lose nothing
	// because no client can have spawned a terminal yet.
	var srvRef atomic.Pointer[ipc.Server]

	tm := term.NewManager(logger)
	rnr := runner.New(runner.Options{
		Logger: logger,
		Git:    worktree.NewGit(),
		Just:   &justfile.CommandLoader{Binary: cfg.Tasks.JustBinary, Logger: logger},
		Agent:  &runner.CLIAgent{Binary: cfg.Agent.Binary, Logger: logger},
		Docker: &runner.ComposeCLI{
			Binary:      cfg.Docker.Binary,
			Logger:      logger,
			DefaultTail: cfg.Docker.LogTail,
		},
		Term:       tm,
		JustBinary: cfg.Tasks.JustBinary,
		McpCommand: cfg.Mcp.Command,
		TerminalData: func(ref action.WorktreeRef, sessionID string, data []byte) {
			if srv := srvRef.Load(); srv != nil {
				srv.PushTerminal(ref, sessionID, data)
			}
		},
	})
	defer rnr.Close()

	st := store.New(store.Options{
		Initial: initial,
		Handler: rnr,
		Logger:  logger,
		OnCommit: func(s *state.AppState, seq uint64) {
			persister.Request(s)
		},
	})
	defer st.Close()

	socketPath := cfg.Server.ResolveSocketPath(dataDir)
	srv, err := ipc.Listen(socketPath, st, logger)
	if err != nil {
		return err
	}
	srvRef.Store(srv)
	defer srv.Close()

	watcher, err := watch.New(logger, func(ref action.WorktreeRef) {
		_ = st.Dispatch(context.Background(), &action.SetWorktreeModified{Ref: ref, Modified: true})
	})
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	superviseDone := make(chan struct{})
	go supervise(st, watcher, persister, superviseDone)

	if path := initial.Settings.DefaultProjectPath; path != "" {
		_ = st.Dispatch(context.Background(), &action.OpenProject{Path: path})
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	logger.Info("daemon ready", "socket", socketPath, "data_dir", dataDir)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Error("serve failed", "error", err)
			return err
		}
	}

	_ = watcher.Close()
	srv.Close()
	st.Close()
	<-superviseDone
	rnr.Close()
	if err := persister.Flush(); err != nil {
		logger.Warn("final flush failed", "error", err)
	}
	return nil
}

// supervise follows committed snapshots and keeps the ambient machinery in
// step with the tree: worktree roots are registered with the filesystem
// watcher, and a freshly opened project gets its durable config merged back
// in. Runs until the store closes the subscription.
func supervise(st *store.Store, watcher *watch.Watcher, persister *persist.Persister, done chan<- struct{}) {
	defer close(done)

	sub := st.Subscribe()
	defer sub.Close()

	watched := map[string]string{} // worktree id -> root
	restored := map[string]bool{}  // project path -> config merged

	for snap := range sub.C {
		live := map[string]bool{}
		for _, proj := range snap.State.Projects {
			if !restored[proj.Path] {
				restored[proj.Path] = true
				if pc, ok := persister.ProjectConfigFor(proj.Path); ok {
					_ = st.Dispatch(context.Background(), &action.RestoreProjectConfig{
						Path:             pc.Path,
						ActiveView:       pc.ActiveView,
						AgentRules:       pc.AgentRules,
						Env:              pc.Env,
						Presets:          pc.Presets,
						SelectedPresetID: pc.SelectedPresetID,
					})
				}
			}
			for _, wt := range proj.Worktrees {
				live[wt.ID] = true
				if watched[wt.ID] == wt.Path {
					continue
				}
				if watched[wt.ID] != "" {
					watcher.Remove(wt.ID)
				}
				ref := action.WorktreeRef{ProjectID: proj.ID, WorktreeID: wt.ID}
				if err := watcher.Add(ref, wt.Path); err == nil {
					watched[wt.ID] = wt.Path
				}
			}
		}
		for id := range watched {
			if !live[id] {
				watcher.Remove(id)
				delete(watched, id)
			}
		}
	}
}
