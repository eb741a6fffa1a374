package tabstray

import (
	"sync"

	"github.com/lotas/tabtray/internal/applog"
)

type observer struct {
	id int
	fn func(State)
}

// Store owns the current tray State. Actions are applied one at a time, in
// dispatch order, on a single worker goroutine; each resulting State is
// published to every observer before the next action is applied.
type Store struct {
	mu        sync.Mutex
	work      *sync.Cond // worker waits for queued actions
	idle      *sync.Cond // WaitUntilIdle waits for applied to catch up
	state     State
	queue     []Action
	queued    uint64
	applied   uint64
	closed    bool
	observers []observer
	nextID    int

	// publishMu is held while a state is being reduced and published, so a
	// new subscriber's initial state can't interleave with a publication.
	publishMu sync.Mutex
	done      chan struct{}
}

// NewStore creates a store holding initial and starts its worker.
// Call Close to stop the worker.
func NewStore(initial State) *Store {
	if initial.Mode == nil {
		initial.Mode = Normal{}
	}
	s := &Store{
		state: initial,
		done:  make(chan struct{}),
	}
	s.work = sync.NewCond(&s.mu)
	s.idle = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// State returns the most recently published state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch queues action and returns without waiting for it to be applied.
// Actions dispatched after Close are dropped.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		applog.Info("store.dispatch.closed", "action", action.ActionType())
		return
	}
	s.queue = append(s.queue, action)
	s.queued++
	s.work.Signal()
}

// Subscribe registers fn to receive every published state. fn is called
// once with the current state before Subscribe returns, then on the store's
// worker for each applied action. fn must not call Subscribe or
// WaitUntilIdle. The returned func removes the observer.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	current := s.state
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, o := range s.observers {
				if o.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					break
				}
			}
		})
	}
}

// WaitUntilIdle blocks until every action dispatched before the call has
// been applied and published.
func (s *Store) WaitUntilIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.queued
	for s.applied < target {
		s.idle.Wait()
	}
}

// Close applies any queued actions, then stops the worker. It is safe to
// call more than once.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.work.Broadcast()
	s.mu.Unlock()
	<-s.done
}

func (s *Store) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.work.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		action := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.apply(action)

		s.mu.Lock()
		s.applied++
		s.idle.Broadcast()
		s.mu.Unlock()
	}
}

func (s *Store) apply(action Action) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	next := Reduce(s.state, action)
	s.state = next
	observers := make([]observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	applog.Info("store.apply", "action", action.ActionType(), "page", next.SelectedPage, "syncing", next.Syncing)

	for _, o := range observers {
		o.fn(next)
	}
}
