// Package term manages interactive pty shell sessions, one per worktree.
// Output bytes stream to a callback; input and resize calls go to the pty.
// The session registry is the single owner of pty file handles.
package term

import (
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/logging"
)

// Session is one live pty shell.
type Session struct {
	ID  string
	Dir string

	mu     sync.Mutex
	ptmx   *os.File
	cmd    *exec.Cmd
	closed bool
}

// Manager owns all pty sessions.
type Manager struct {
	logger *logging.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session registry.
func NewManager(logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Manager{
		logger:   logger.WithComponent("term"),
		sessions: make(map[string]*Session),
	}
}

// Spawn starts the user's shell in dir with the given window size. onData
// receives raw output bytes from a dedicated reader goroutine; onExit fires
// once when the shell dies, including after Close.
func (m *Manager) Spawn(dir string, cols, rows int, onData func([]byte), onExit func()) (*Session, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.Command(shell)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	winsize := &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
	ptmx, err := pty.StartWithSize(cmd, winsize)
	if err != nil {
		return nil, errors.NewResourceError(errors.CodeSpawnFailed, "start shell", err).WithCommand(shell)
	}

	s := &Session{
		ID:   uuid.NewString(),
		Dir:  dir,
		ptmx: ptmx,
		cmd:  cmd,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	go m.pump(s, onData, onExit)
	return s, nil
}

// pump copies pty output to the callback until the shell exits.
func (m *Manager) pump(s *Session, onData func([]byte), onExit func()) {
	buf := make([]byte, 16*1024)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 && onData != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			onData(chunk)
		}
		if err != nil {
			if err != io.EOF {
				m.logger.Debug("pty read ended", "session_id", s.ID, "error", err)
			}
			break
		}
	}
	s.cmd.Wait()
	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	s.teardown()
	if onExit != nil {
		onExit()
	}
}

// Write sends input bytes to the session's pty.
func (m *Manager) Write(sessionID string, data []byte) error {
	s, err := m.session(sessionID)
	if err != nil {
		return err
	}
	if _, err := s.ptmx.Write(data); err != nil {
		return errors.NewResourceError(errors.CodeIOFailed, "write to pty", err)
	}
	return nil
}

// Resize changes the pty window size.
func (m *Manager) Resize(sessionID string, cols, rows int) error {
	s, err := m.session(sessionID)
	if err != nil {
		return err
	}
	winsize := &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
	if err := pty.Setsize(s.ptmx, winsize); err != nil {
		return errors.NewResourceError(errors.CodeIOFailed, "resize pty", err)
	}
	return nil
}

// Close terminates a session. Closing an unknown or already dead session is
// a no-op.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	s := m.sessions[sessionID]
	m.mu.Unlock()
	if s == nil {
		return
	}
	s.teardown()
}

// CloseAll terminates every live session, for shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()
	for _, s := range sessions {
		s.teardown()
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) session(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "terminal session not found").
			WithEntity("terminal", sessionID)
	}
	return s, nil
}

// teardown kills the shell and closes the pty. Idempotent; the pump
// goroutine finishes the registry cleanup.
func (s *Session) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.ptmx.Close()
}
