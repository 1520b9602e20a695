package state

import (
	"log/slog"
	"sync"

	"github.com/sentinelsec/teamsync/internal/models"
)

const queueDepth = 256

type envelope struct {
	action Action
	done   chan struct{}
}

// Store owns the chat state and applies actions one at a time through a
// serialized queue, so every transition is atomic with respect to readers.
// Dispatch never blocks the reducer mid-transition: readers observe either
// the state before an action or the state after it, never an intermediate.
type Store struct {
	logger *slog.Logger

	mu    sync.RWMutex
	state State

	queue    chan envelope
	quit     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}

	onChange func(State)
}

// NewStore creates a store and starts its apply loop. Call Close to stop it.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		logger:  logger,
		state:   NewState(),
		queue:   make(chan envelope, queueDepth),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

// OnChange registers a callback invoked after each applied action with the
// resulting state. It must be set before any Dispatch; the callback runs on
// the store's apply goroutine and must not call Dispatch synchronously.
func (s *Store) OnChange(fn func(State)) {
	s.onChange = fn
}

// Dispatch enqueues an action. Actions are applied in dispatch order. After
// Close the action is dropped.
func (s *Store) Dispatch(action Action) {
	select {
	case s.queue <- envelope{action: action}:
	case <-s.quit:
		s.logger.Debug("store closed, action dropped", "action", action.actionName())
	}
}

// Sync blocks until every action dispatched before it has been applied.
func (s *Store) Sync() {
	done := make(chan struct{})
	select {
	case s.queue <- envelope{done: done}:
	case <-s.quit:
		return
	}
	select {
	case <-done:
	case <-s.stopped:
	}
}

// Close stops the apply loop. Pending actions are discarded.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.quit)
	})
	<-s.stopped
}

func (s *Store) run() {
	defer close(s.stopped)
	for {
		select {
		case env := <-s.queue:
			if env.action != nil {
				s.apply(env.action)
			}
			if env.done != nil {
				close(env.done)
			}
		case <-s.quit:
			return
		}
	}
}

func (s *Store) apply(action Action) {
	s.mu.Lock()
	s.state = reduce(s.state, action)
	next := s.state
	s.mu.Unlock()

	s.logger.Debug("applied action", "action", action.actionName())
	if s.onChange != nil {
		s.onChange(next)
	}
}

// State returns the current state. The returned value shares internals with
// the store; callers must treat it as read-only.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ConnectionStatus returns the current transport status.
func (s *Store) ConnectionStatus() models.ConnectionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ConnectionStatus
}

// CurrentUser returns the member this session acts as.
func (s *Store) CurrentUser() models.TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentUser
}
