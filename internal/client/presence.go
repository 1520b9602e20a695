package client

import (
	"log/slog"
	"sync"
	"time"
)

const defaultTypingTimeout = 3 * time.Second

// PresenceTracker debounces per-room typing signals. A typing-start frame is
// emitted only on the transition from not-typing to typing; repeated
// SetTyping(room, true) calls just push the stop deadline out. After the
// timeout passes with no further activity a single typing-stop frame is
// emitted.
//
// Timers live in a registry keyed by room id with a strict
// cancel-before-reschedule contract, so at most one stop timer exists per
// room at any moment. Close cancels every outstanding timer so no callback
// can fire against torn-down state.
type PresenceTracker struct {
	logger  *slog.Logger
	timeout time.Duration
	emit    func(roomID string, isTyping bool) error

	mu     sync.Mutex
	typing map[string]bool
	timers map[string]*time.Timer
	closed bool
}

// NewPresenceTracker builds a tracker that emits typing frames through emit.
// A non-positive timeout falls back to the 3s default.
func NewPresenceTracker(timeout time.Duration, emit func(string, bool) error, logger *slog.Logger) *PresenceTracker {
	if timeout <= 0 {
		timeout = defaultTypingTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PresenceTracker{
		logger:  logger,
		timeout: timeout,
		emit:    emit,
		typing:  make(map[string]bool),
		timers:  make(map[string]*time.Timer),
	}
}

// SetTyping records local typing activity for a room.
func (t *PresenceTracker) SetTyping(roomID string, isTyping bool) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}

	if !isTyping {
		wasTyping := t.typing[roomID]
		t.cancelLocked(roomID)
		delete(t.typing, roomID)
		t.mu.Unlock()
		if wasTyping {
			t.emitTyping(roomID, false)
		}
		return
	}

	started := !t.typing[roomID]
	t.typing[roomID] = true
	t.cancelLocked(roomID)
	t.timers[roomID] = time.AfterFunc(t.timeout, func() {
		t.expire(roomID)
	})
	t.mu.Unlock()

	if started {
		t.emitTyping(roomID, true)
	}
}

// Close cancels all pending stop timers. Further SetTyping calls are ignored.
// No typing-stop frames are emitted; the connection owning the tracker is
// going away with them.
func (t *PresenceTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for roomID := range t.timers {
		t.cancelLocked(roomID)
	}
	t.typing = make(map[string]bool)
}

func (t *PresenceTracker) expire(roomID string) {
	t.mu.Lock()
	if t.closed || !t.typing[roomID] {
		t.mu.Unlock()
		return
	}
	delete(t.typing, roomID)
	delete(t.timers, roomID)
	t.mu.Unlock()

	t.emitTyping(roomID, false)
}

func (t *PresenceTracker) cancelLocked(roomID string) {
	if timer, ok := t.timers[roomID]; ok {
		timer.Stop()
		delete(t.timers, roomID)
	}
}

func (t *PresenceTracker) emitTyping(roomID string, isTyping bool) {
	if t.emit == nil {
		return
	}
	if err := t.emit(roomID, isTyping); err != nil {
		t.logger.Debug("typing frame not sent", "room", roomID, "error", err)
	}
}
