package client

import (
	"sync"
	"testing"
	"time"
)

type typingRecorder struct {
	mu     sync.Mutex
	events []struct {
		roomID   string
		isTyping bool
	}
}

func (r *typingRecorder) emit(roomID string, isTyping bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, struct {
		roomID   string
		isTyping bool
	}{roomID, isTyping})
	return nil
}

func (r *typingRecorder) starts(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.roomID == roomID && e.isTyping {
			n++
		}
	}
	return n
}

func (r *typingRecorder) stops(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.roomID == roomID && !e.isTyping {
			n++
		}
	}
	return n
}

func TestTypingStartEmittedOnceWithinTimeout(t *testing.T) {
	rec := &typingRecorder{}
	tr := NewPresenceTracker(80*time.Millisecond, rec.emit, nil)
	defer tr.Close()

	for i := 0; i < 5; i++ {
		tr.SetTyping("room1", true)
		time.Sleep(5 * time.Millisecond)
	}

	if got := rec.starts("room1"); got != 1 {
		t.Fatalf("typing-start frames = %d, want 1", got)
	}
	if got := rec.stops("room1"); got != 0 {
		t.Fatalf("typing-stop frames before timeout = %d, want 0", got)
	}

	// One stop after the quiet period, and only one.
	time.Sleep(150 * time.Millisecond)
	if got := rec.stops("room1"); got != 1 {
		t.Fatalf("typing-stop frames = %d, want 1", got)
	}

	// A new burst starts a fresh cycle.
	tr.SetTyping("room1", true)
	if got := rec.starts("room1"); got != 2 {
		t.Fatalf("typing-start frames after restart = %d, want 2", got)
	}
}

func TestTypingActivityExtendsStopDeadline(t *testing.T) {
	rec := &typingRecorder{}
	tr := NewPresenceTracker(60*time.Millisecond, rec.emit, nil)
	defer tr.Close()

	tr.SetTyping("room1", true)
	// Keep typing past the original deadline; each call replaces the timer.
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		tr.SetTyping("room1", true)
	}
	if got := rec.stops("room1"); got != 0 {
		t.Fatalf("stop fired while still active, frames = %d", got)
	}

	time.Sleep(120 * time.Millisecond)
	if got := rec.stops("room1"); got != 1 {
		t.Fatalf("typing-stop frames = %d, want 1", got)
	}
	if got := rec.starts("room1"); got != 1 {
		t.Fatalf("typing-start frames = %d, want 1", got)
	}
}

func TestExplicitStopEmitsImmediately(t *testing.T) {
	rec := &typingRecorder{}
	tr := NewPresenceTracker(time.Hour, rec.emit, nil)
	defer tr.Close()

	tr.SetTyping("room1", true)
	tr.SetTyping("room1", false)
	if got := rec.stops("room1"); got != 1 {
		t.Fatalf("typing-stop frames = %d, want 1", got)
	}

	// Stop without a preceding start emits nothing.
	tr.SetTyping("room2", false)
	if got := rec.stops("room2"); got != 0 {
		t.Fatalf("spurious typing-stop for idle room, frames = %d", got)
	}
}

func TestRoomsDebounceIndependently(t *testing.T) {
	rec := &typingRecorder{}
	tr := NewPresenceTracker(50*time.Millisecond, rec.emit, nil)
	defer tr.Close()

	tr.SetTyping("room1", true)
	tr.SetTyping("room2", true)
	time.Sleep(120 * time.Millisecond)

	if rec.starts("room1") != 1 || rec.starts("room2") != 1 {
		t.Fatalf("starts: room1=%d room2=%d, want 1 each", rec.starts("room1"), rec.starts("room2"))
	}
	if rec.stops("room1") != 1 || rec.stops("room2") != 1 {
		t.Fatalf("stops: room1=%d room2=%d, want 1 each", rec.stops("room1"), rec.stops("room2"))
	}
}

func TestCloseCancelsPendingTimers(t *testing.T) {
	rec := &typingRecorder{}
	tr := NewPresenceTracker(30*time.Millisecond, rec.emit, nil)

	tr.SetTyping("room1", true)
	tr.Close()
	time.Sleep(80 * time.Millisecond)

	if got := rec.stops("room1"); got != 0 {
		t.Fatalf("timer fired after close, stop frames = %d", got)
	}

	// Tracker is inert after close.
	tr.SetTyping("room1", true)
	if got := rec.starts("room1"); got != 1 {
		t.Fatalf("start frames after close = %d, want 1", got)
	}
}
