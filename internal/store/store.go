// Package store owns the application state tree.
//
// All mutation flows through a single dispatch loop: an action is applied to
// a clone of the committed state, and the clone replaces the committed tree
// only when the reducer returns no error. Rejected actions leave the tree
// untouched. Effects returned by a commit run on serialized lanes keyed by
// effect.Key, and their results come back through Dispatch like any other
// action.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/broadcast"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/logging"
	"github.com/calmren/atelier/internal/reducer"
	"github.com/calmren/atelier/internal/state"
)

// EffectHandler executes one effect. Implementations report results by
// calling dispatch, usually once with a completion action. Handle runs on a
// lane goroutine and must return when ctx is canceled.
type EffectHandler interface {
	Handle(ctx context.Context, e effect.Effect, dispatch func(action.Action))
}

// EffectHandlerFunc adapts a function to EffectHandler.
type EffectHandlerFunc func(ctx context.Context, e effect.Effect, dispatch func(action.Action))

func (f EffectHandlerFunc) Handle(ctx context.Context, e effect.Effect, dispatch func(action.Action)) {
	f(ctx, e, dispatch)
}

// Options configures a Store.
type Options struct {
	// Initial is the starting state tree. Nil means a fresh tree.
	Initial *state.AppState
	// Handler runs effects. Nil drops effects on the floor, which is only
	// useful in tests.
	Handler EffectHandler
	// Logger receives dispatch and rejection logs. Nil means no logging.
	Logger *logging.Logger
	// OnCommit is called after each commit with the committed tree, which
	// the callee must treat as read-only. Persistence hangs off this.
	OnCommit func(st *state.AppState, seq uint64)
	// DevLogSize bounds the in-memory dispatch record. Zero uses a default.
	DevLogSize int
}

const defaultDevLogSize = 500

// Record is one dev-log entry describing a processed dispatch.
type Record struct {
	Time     time.Time
	Type     string
	Rejected bool
	Err      string
	Effects  int
}

type dispatchReq struct {
	action action.Action
	reply  chan error
}

// Store is the single writer of the state tree.
type Store struct {
	logger   *logging.Logger
	handler  EffectHandler
	onCommit func(*state.AppState, uint64)

	mu  sync.Mutex // guards st, seq, and subscribe-vs-commit atomicity
	st  *state.AppState
	seq uint64

	bc      *broadcast.Broadcaster
	mailbox chan dispatchReq
	quit    chan struct{}
	loopWG  sync.WaitGroup

	laneMu sync.Mutex
	lanes  map[string]*lane
	laneWG sync.WaitGroup

	effectCtx    context.Context
	effectCancel context.CancelFunc

	devMu   sync.Mutex
	devLog  []Record
	devCap  int
	devNext int
	devFull bool

	closeOnce sync.Once
}

// New starts a store and its dispatch loop.
func New(opts Options) *Store {
	st := opts.Initial
	if st == nil {
		st = state.NewAppState()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	devCap := opts.DevLogSize
	if devCap <= 0 {
		devCap = defaultDevLogSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		logger:       logger.WithComponent("store"),
		handler:      opts.Handler,
		onCommit:     opts.OnCommit,
		st:           st,
		bc:           broadcast.NewBroadcaster(),
		mailbox:      make(chan dispatchReq, 64),
		quit:         make(chan struct{}),
		lanes:        make(map[string]*lane),
		effectCtx:    ctx,
		effectCancel: cancel,
		devLog:       make([]Record, devCap),
		devCap:       devCap,
	}
	s.loopWG.Add(1)
	go s.loop()
	return s
}

// Dispatch applies a through the store loop and returns the reducer's
// verdict. A nil return means the action committed; errors satisfying
// errors.IsRejection mean the tree is unchanged.
func (s *Store) Dispatch(ctx context.Context, a action.Action) error {
	req := dispatchReq{action: a, reply: make(chan error, 1)}
	select {
	case s.mailbox <- req:
	case <-s.quit:
		return errors.ErrStoreClosed
	case <-ctx.Done():
		return errors.NewCanceledError("dispatch " + a.ActionType())
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return errors.NewCanceledError("dispatch " + a.ActionType())
	}
}

// State returns an isolated copy of the committed tree.
func (s *Store) State() *state.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

// Seq returns the current commit sequence number.
func (s *Store) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Subscribe registers for snapshots. The first delivery is the tree as of
// the call; no commit can slip between that snapshot and later pushes.
// Snapshots share the committed tree and must be treated as read-only.
func (s *Store) Subscribe() *broadcast.Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bc.Subscribe(broadcast.Snapshot{Seq: s.seq, State: s.st})
}

// DevLog returns the retained dispatch records, oldest first.
func (s *Store) DevLog() []Record {
	s.devMu.Lock()
	defer s.devMu.Unlock()
	if !s.devFull {
		out := make([]Record, s.devNext)
		copy(out, s.devLog[:s.devNext])
		return out
	}
	out := make([]Record, 0, s.devCap)
	out = append(out, s.devLog[s.devNext:]...)
	out = append(out, s.devLog[:s.devNext]...)
	return out
}

// Close stops the dispatch loop, cancels running effects, and shuts down
// subscribers. Dispatches in flight get ErrStoreClosed.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		s.loopWG.Wait()
		s.effectCancel()
		s.laneWG.Wait()
		s.laneMu.Lock()
		s.lanes = map[string]*lane{}
		s.laneMu.Unlock()
		s.bc.Close()
	})
}

func (s *Store) loop() {
	defer s.loopWG.Done()
	for {
		select {
		case <-s.quit:
			s.drainMailbox()
			return
		case req := <-s.mailbox:
			req.reply <- s.process(req.action)
		}
	}
}

func (s *Store) drainMailbox() {
	for {
		select {
		case req := <-s.mailbox:
			req.reply <- errors.ErrStoreClosed
		default:
			return
		}
	}
}

func (s *Store) process(a action.Action) error {
	now := time.Now()
	// Programmatic dispatches skip the envelope decode, so payload
	// constraints are checked again here.
	if v, ok := a.(action.Validator); ok {
		if err := v.Validate(); err != nil {
			s.logger.Debug("action rejected", "type", a.ActionType(), "error", err)
			s.record(Record{Time: now, Type: a.ActionType(), Rejected: true, Err: err.Error()})
			return err
		}
	}
	next := s.cloneCurrent()
	effects, err := reducer.Apply(next, a, now)
	if err != nil {
		s.logger.Debug("action rejected", "type", a.ActionType(), "error", err)
		s.record(Record{Time: now, Type: a.ActionType(), Rejected: true, Err: err.Error()})
		return err
	}

	s.mu.Lock()
	s.st = next
	s.seq++
	seq := s.seq
	s.bc.Publish(broadcast.Snapshot{Seq: seq, State: next})
	s.mu.Unlock()

	s.record(Record{Time: now, Type: a.ActionType(), Effects: len(effects)})
	s.logger.Debug("action committed", "type", a.ActionType(), "seq", seq, "effects", len(effects))

	if s.onCommit != nil {
		s.onCommit(next, seq)
	}
	for _, e := range effects {
		s.schedule(e)
	}
	return nil
}

func (s *Store) cloneCurrent() *state.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

func (s *Store) record(r Record) {
	s.devMu.Lock()
	s.devLog[s.devNext] = r
	s.devNext++
	if s.devNext == s.devCap {
		s.devNext = 0
		s.devFull = true
	}
	s.devMu.Unlock()
}

// asyncDispatch feeds effect results back into the loop. Rejections here
// are expected when state moved on underneath the effect, so they only log.
func (s *Store) asyncDispatch(a action.Action) {
	if err := s.Dispatch(context.Background(), a); err != nil {
		if errors.Is(err, errors.ErrStoreClosed) {
			return
		}
		s.logger.Debug("effect result rejected", "type", a.ActionType(), "error", err)
	}
}
