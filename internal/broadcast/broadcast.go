// Package broadcast delivers committed state snapshots to subscribers.
//
// The store publishes a full snapshot after every commit. Subscription and
// the initial snapshot are one atomic step under the store's commit lock, so
// a subscriber never misses a commit between reading its first snapshot and
// receiving pushes. Delivery coalesces: a slow subscriber skips intermediate
// snapshots but always ends on the newest one.
package broadcast

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/calmren/atelier/internal/state"
)

// Snapshot is one committed state tree with its commit sequence number.
// Sequence numbers are strictly increasing; a subscriber can detect skipped
// intermediates by the gap.
type Snapshot struct {
	Seq   uint64
	State *state.AppState
}

// Broadcaster fans snapshots out to subscribers.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[string]*Subscriber
	nextID atomic.Uint64
	closed bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]*Subscriber)}
}

// Subscriber receives snapshots on C until Close or broadcaster shutdown.
type Subscriber struct {
	id string
	b  *Broadcaster

	mu      sync.Mutex
	pending *Snapshot
	notify  chan struct{}
	done    chan struct{}
	closed  bool

	C chan Snapshot
}

// Subscribe registers a subscriber whose first delivery is initial. The
// caller must hold whatever lock guarantees initial is the newest commit;
// the store does this inside its commit section.
func (b *Broadcaster) Subscribe(initial Snapshot) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscriber{
		b:      b,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		C:      make(chan Snapshot),
	}
	if b.closed {
		close(sub.C)
		sub.closed = true
		return sub
	}
	sub.id = fmt.Sprintf("sub-%d", b.nextID.Add(1))
	sub.pending = &initial
	sub.notify <- struct{}{}
	b.subs[sub.id] = sub
	go sub.pump()
	return sub
}

// Publish hands snap to every subscriber, replacing any undelivered older
// snapshot. Publish never blocks on a slow consumer.
func (b *Broadcaster) Publish(snap Snapshot) {
	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.offer(snap)
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close shuts every subscriber down. Further Subscribe calls return a
// subscriber whose channel is already closed.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = map[string]*Subscriber{}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}

func (s *Subscriber) offer(snap Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = &snap
	// The lock also orders this send against shutdown closing notify.
	select {
	case s.notify <- struct{}{}:
	default:
	}
	s.mu.Unlock()
}

// pump moves pending snapshots onto C in order, newest-wins.
func (s *Subscriber) pump() {
loop:
	for range s.notify {
		s.mu.Lock()
		snap := s.pending
		s.pending = nil
		closed := s.closed
		s.mu.Unlock()
		if closed {
			break
		}
		if snap == nil {
			continue
		}
		select {
		case s.C <- *snap:
		case <-s.done:
			break loop
		}
	}
	close(s.C)
}

// Close detaches the subscriber. C is closed once the pump drains.
func (s *Subscriber) Close() {
	if s.b != nil {
		s.b.mu.Lock()
		delete(s.b.subs, s.id)
		s.b.mu.Unlock()
	}
	s.shutdown()
}

func (s *Subscriber) shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.pending = nil
	s.mu.Unlock()

	close(s.done)
	close(s.notify)
}
