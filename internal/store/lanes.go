package store

import (
	"runtime/debug"
	"sync"

	"github.com/calmren/atelier/internal/effect"
)

// lane runs effects sharing a Key in submission order. Distinct keys run
// concurrently. The pending queue is unbounded so the dispatch loop never
// blocks handing off an effect.
type lane struct {
	mu      sync.Mutex
	pending []effect.Effect
	wake    chan struct{}
}

func (s *Store) schedule(e effect.Effect) {
	if s.handler == nil {
		return
	}
	key := e.Key()
	s.laneMu.Lock()
	l, ok := s.lanes[key]
	if !ok {
		l = &lane{wake: make(chan struct{}, 1)}
		s.lanes[key] = l
		s.laneWG.Add(1)
		go s.runLane(key, l)
	}
	s.laneMu.Unlock()

	l.mu.Lock()
	l.pending = append(l.pending, e)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (s *Store) runLane(key string, l *lane) {
	defer s.laneWG.Done()
	for {
		l.mu.Lock()
		var next effect.Effect
		if len(l.pending) > 0 {
			next = l.pending[0]
			l.pending = l.pending[1:]
		}
		l.mu.Unlock()

		if next == nil {
			select {
			case <-l.wake:
				continue
			case <-s.quit:
				return
			}
		}

		select {
		case <-s.quit:
			return
		default:
		}
		s.runEffect(key, next)
	}
}

func (s *Store) runEffect(key string, e effect.Effect) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("effect handler panicked",
				"kind", e.EffectKind(),
				"lane", key,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	s.handler.Handle(s.effectCtx, e, s.asyncDispatch)
}
