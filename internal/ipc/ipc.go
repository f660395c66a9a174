// Package ipc serves the store over a unix socket speaking
// newline-delimited JSON. Each request line carries an id echoed on the
// response; subscribed connections additionally receive push frames for
// every committed snapshot and for raw terminal output.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"sync"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/logging"
	"github.com/calmren/atelier/internal/scopedfile"
	"github.com/calmren/atelier/internal/state"
	"github.com/calmren/atelier/internal/store"
)

// maxLine bounds one request line.
const maxLine = 4 << 20

// Request is one client frame.
type Request struct {
	ID     string           `json:"id"`
	Method string           `json:"method"`
	Action *action.Envelope `json:"action,omitempty"`

	// readFile parameters.
	Path  string `json:"path,omitempty"`
	Scope string `json:"scope,omitempty"`
}

// WireError is the error shape crossing the socket.
type WireError struct {
	Kind    string      `json:"kind"`
	Code    errors.Code `json:"code,omitempty"`
	Message string      `json:"message"`
}

// Response answers one request.
type Response struct {
	ID      string          `json:"id"`
	OK      bool            `json:"ok"`
	Seq     uint64          `json:"seq,omitempty"`
	State   *state.AppState `json:"state,omitempty"`
	Content string          `json:"content,omitempty"`
	Error   *WireError      `json:"error,omitempty"`
}

// Push is an unsolicited server frame.
type Push struct {
	Event string          `json:"event"`
	Seq   uint64          `json:"seq,omitempty"`
	State *state.AppState `json:"state,omitempty"`

	// Terminal frames.
	WorktreeID string `json:"worktree_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Data       string `json:"data,omitempty"`
}

// Server accepts connections on a unix socket and bridges them to the
// store.
type Server struct {
	store  *store.Store
	logger *logging.Logger
	path   string
	ln     net.Listener

	mu     sync.Mutex
	conns  map[*conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

type conn struct {
	netConn net.Conn

	writeMu sync.Mutex
	enc     *json.Encoder

	subMu sync.Mutex
	sub   interface{ Close() }
}

// Listen binds the socket, removing a stale socket file first. The caller
// runs Serve.
func Listen(path string, st *store.Store, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errors.NewResourceError(errors.CodeIOFailed, "remove stale socket", err).
			WithPath(path)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, errors.NewResourceError(errors.CodeIOFailed, "bind socket", err).
			WithPath(path)
	}
	return &Server{
		store:  st,
		logger: logger.WithComponent("ipc"),
		path:   path,
		ln:     ln,
		conns:  map[*conn]struct{}{},
	}, nil
}

// Serve accepts connections until Close. It always returns nil after a
// clean shutdown.
func (s *Server) Serve() error {
	for {
		netConn, err := s.ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return err
		}
		c := &conn{netConn: netConn, enc: json.NewEncoder(netConn)}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = netConn.Close()
			return nil
		}
		s.conns[c] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()
		go s.handle(c)
	}
}

// Close stops accepting, drops every connection and removes the socket
// file. Safe to call more than once.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	_ = s.ln.Close()
	for _, c := range conns {
		_ = c.netConn.Close()
	}
	s.wg.Wait()
	_ = os.Remove(s.path)
}

// PushTerminal forwards raw pty output to every subscribed connection.
// Terminal bytes never enter the state tree.
func (s *Server) PushTerminal(ref action.WorktreeRef, sessionID string, data []byte) {
	frame := Push{
		Event:      "terminal",
		WorktreeID: ref.WorktreeID,
		SessionID:  sessionID,
		Data:       string(data),
	}
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		if c.subscribed() {
			c.write(frame)
		}
	}
}

func (s *Server) handle(c *conn) {
	defer func() {
		c.unsubscribe()
		_ = c.netConn.Close()
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		s.wg.Done()
	}()

	scanner := bufio.NewScanner(c.netConn)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			c.write(Response{OK: false, Error: &WireError{
				Kind:    "validation",
				Code:    errors.CodeInvalidPayload,
				Message: "malformed request frame",
			}})
			continue
		}
		s.dispatch(c, req)
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("connection read ended", "error", err)
	}
}

func (s *Server) dispatch(c *conn, req Request) {
	switch req.Method {
	case "dispatch":
		s.handleDispatch(c, req)
	case "getState":
		c.write(Response{ID: req.ID, OK: true, Seq: s.store.Seq(), State: s.store.State()})
	case "subscribe":
		s.handleSubscribe(c, req)
	case "readFile":
		s.handleReadFile(c, req)
	case "unsubscribe":
		c.unsubscribe()
		c.write(Response{ID: req.ID, OK: true})
	default:
		c.write(Response{ID: req.ID, OK: false, Error: &WireError{
			Kind:    "validation",
			Code:    errors.CodeInvalidPayload,
			Message: "unknown method " + req.Method,
		}})
	}
}

func (s *Server) handleDispatch(c *conn, req Request) {
	if req.Action == nil {
		c.write(Response{ID: req.ID, OK: false, Error: &WireError{
			Kind:    "validation",
			Code:    errors.CodeInvalidPayload,
			Message: "dispatch needs an action",
		}})
		return
	}
	a, err := action.DecodeEnvelope(*req.Action)
	if err != nil {
		c.write(Response{ID: req.ID, OK: false, Error: wireError(err)})
		return
	}
	if err := s.store.Dispatch(context.Background(), a); err != nil {
		c.write(Response{ID: req.ID, OK: false, Error: wireError(err)})
		return
	}
	c.write(Response{ID: req.ID, OK: true, Seq: s.store.Seq()})
}

// handleReadFile serves a scoped file read. Terminal bytes and file
// contents are the only payloads that bypass the state tree; the scope root
// keeps reads inside a worktree the client already knows about.
func (s *Server) handleReadFile(c *conn, req Request) {
	if req.Path == "" || req.Scope == "" {
		c.write(Response{ID: req.ID, OK: false, Error: &WireError{
			Kind:    "validation",
			Code:    errors.CodeInvalidPayload,
			Message: "readFile needs path and scope",
		}})
		return
	}
	content, err := scopedfile.Read(req.Scope, req.Path)
	if err != nil {
		c.write(Response{ID: req.ID, OK: false, Error: wireError(err)})
		return
	}
	c.write(Response{ID: req.ID, OK: true, Content: content})
}

// handleSubscribe attaches the connection to the snapshot stream. A second
// subscribe on the same connection is a no-op; the client already gets
// every commit.
func (s *Server) handleSubscribe(c *conn, req Request) {
	c.subMu.Lock()
	already := c.sub != nil
	c.subMu.Unlock()
	if already {
		c.write(Response{ID: req.ID, OK: true})
		return
	}

	sub := s.store.Subscribe()
	c.subMu.Lock()
	c.sub = sub
	c.subMu.Unlock()
	c.write(Response{ID: req.ID, OK: true})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for snap := range sub.C {
			c.write(Push{Event: "state", Seq: snap.Seq, State: snap.State})
		}
	}()
}

func (c *conn) subscribed() bool {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return c.sub != nil
}

// unsubscribe is idempotent; it also runs on connection teardown.
func (c *conn) unsubscribe() {
	c.subMu.Lock()
	sub := c.sub
	c.sub = nil
	c.subMu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

func (c *conn) write(frame any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.enc.Encode(frame); err != nil {
		_ = c.netConn.Close()
	}
}

// wireError maps a dispatch or decode failure onto the wire shape.
func wireError(err error) *WireError {
	we := &WireError{
		Kind:    "internal",
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	}
	var verr *errors.ValidationError
	var ierr *errors.InvariantError
	var rerr *errors.ResourceError
	var cerr *errors.CanceledError
	switch {
	case errors.As(err, &verr):
		we.Kind = "validation"
	case errors.As(err, &ierr):
		we.Kind = "invariant"
	case errors.As(err, &rerr):
		we.Kind = "resource"
	case errors.As(err, &cerr):
		we.Kind = "canceled"
	case errors.Is(err, errors.ErrStoreClosed):
		we.Kind = "shutdown"
	}
	return we
}
