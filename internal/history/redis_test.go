package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/sentinelsec/teamsync/internal/config"
	"github.com/sentinelsec/teamsync/internal/models"
)

func newTestStore(t *testing.T, limit int) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(config.RedisConfig{Address: mr.Addr()}, limit)
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	return store
}

func testMessage(i int, base time.Time) *models.ChatMessage {
	return &models.ChatMessage{
		ID:        fmt.Sprintf("m%d", i),
		UserID:    "u1",
		Username:  "alice",
		Content:   fmt.Sprintf("message %d", i),
		Type:      models.MessageTypeText,
		Timestamp: base.Add(time.Duration(i) * time.Second),
	}
}

func TestAppendAndRecentChronological(t *testing.T) {
	store := newTestStore(t, 100)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		if err := store.Append(ctx, "r1", testMessage(i, base)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	messages, err := store.Recent(ctx, "r1", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("recent returned %d messages, want 3", len(messages))
	}
	for i, msg := range messages {
		if want := fmt.Sprintf("m%d", i); msg.ID != want {
			t.Fatalf("messages[%d].ID = %q, want %q", i, msg.ID, want)
		}
	}
}

func TestHistoryCappedAtLimit(t *testing.T) {
	store := newTestStore(t, 5)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 8; i++ {
		if err := store.Append(ctx, "r1", testMessage(i, base)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	messages, err := store.Recent(ctx, "r1", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("recent returned %d messages, want 5", len(messages))
	}
	// The oldest three were trimmed.
	if messages[0].ID != "m3" || messages[4].ID != "m7" {
		t.Fatalf("unexpected window: first %q last %q", messages[0].ID, messages[4].ID)
	}
}

func TestRecentHonorsSmallerLimit(t *testing.T) {
	store := newTestStore(t, 100)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 6; i++ {
		if err := store.Append(ctx, "r1", testMessage(i, base)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	messages, err := store.Recent(ctx, "r1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(messages) != 2 || messages[0].ID != "m4" || messages[1].ID != "m5" {
		t.Fatalf("unexpected tail: %+v", messages)
	}
}

func TestRemoveDeletesOnlyTarget(t *testing.T) {
	store := newTestStore(t, 100)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		if err := store.Append(ctx, "r1", testMessage(i, base)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	if err := store.Remove(ctx, "r1", "m1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	// Removing an unknown id is not an error.
	if err := store.Remove(ctx, "r1", "nope"); err != nil {
		t.Fatalf("remove unknown: %v", err)
	}

	messages, err := store.Recent(ctx, "r1", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(messages) != 2 || messages[0].ID != "m0" || messages[1].ID != "m2" {
		t.Fatalf("unexpected survivors: %+v", messages)
	}
}

func TestDropRoomIsIsolated(t *testing.T) {
	store := newTestStore(t, 100)
	ctx := context.Background()
	base := time.Now()

	if err := store.Append(ctx, "r1", testMessage(0, base)); err != nil {
		t.Fatalf("append r1: %v", err)
	}
	if err := store.Append(ctx, "r2", testMessage(1, base)); err != nil {
		t.Fatalf("append r2: %v", err)
	}

	if err := store.DropRoom(ctx, "r1"); err != nil {
		t.Fatalf("drop room: %v", err)
	}

	r1, err := store.Recent(ctx, "r1", 0)
	if err != nil {
		t.Fatalf("recent r1: %v", err)
	}
	if len(r1) != 0 {
		t.Fatalf("dropped room still has %d messages", len(r1))
	}
	r2, err := store.Recent(ctx, "r2", 0)
	if err != nil {
		t.Fatalf("recent r2: %v", err)
	}
	if len(r2) != 1 {
		t.Fatalf("sibling room has %d messages, want 1", len(r2))
	}
}
