package state

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/sentinelsec/teamsync/internal/models"
)

func msg(id, userID, content string) models.ChatMessage {
	return models.ChatMessage{
		ID:        id,
		UserID:    userID,
		Username:  userID,
		Content:   content,
		Type:      models.MessageTypeText,
		Timestamp: time.Unix(0, 0).Add(42 * time.Second),
	}
}

func room(id string) models.ChatRoom {
	return models.ChatRoom{
		ID:   id,
		Name: id,
		Type: models.RoomTypePublic,
	}
}

func TestAddMessagePreservesArrivalOrder(t *testing.T) {
	s := NewState()
	s = reduce(s, AddRoom{Room: room("room1")})

	// Timestamps deliberately run backwards. Ordering is by arrival, never
	// by embedded timestamp.
	for i := 0; i < 5; i++ {
		m := msg(fmt.Sprintf("m%d", i), "u1", fmt.Sprintf("msg %d", i))
		m.Timestamp = time.Unix(int64(100-i), 0)
		prev := len(s.RoomMessages("room1"))
		s = reduce(s, AddMessage{RoomID: "room1", Message: m})
		if got := len(s.RoomMessages("room1")); got != prev+1 {
			t.Fatalf("message count = %d, want %d", got, prev+1)
		}
	}

	msgs := s.RoomMessages("room1")
	for i, m := range msgs {
		if m.ID != fmt.Sprintf("m%d", i) {
			t.Fatalf("position %d holds %s, want m%d", i, m.ID, i)
		}
	}
}

func TestAddMessageDuplicateIDDropped(t *testing.T) {
	s := NewState()
	s = reduce(s, AddRoom{Room: room("room1")})
	s = reduce(s, AddMessage{RoomID: "room1", Message: msg("m1", "u1", "hello")})
	s = reduce(s, AddMessage{RoomID: "room1", Message: msg("m1", "u1", "again")})

	msgs := s.RoomMessages("room1")
	if len(msgs) != 1 {
		t.Fatalf("message count = %d, want 1", len(msgs))
	}
	if msgs[0].Content != "hello" {
		t.Fatalf("content = %q, want %q", msgs[0].Content, "hello")
	}
}

func TestAddMessageUnreadAccounting(t *testing.T) {
	s := NewState()
	s = reduce(s, SetCurrentUser{User: models.TeamMember{ID: "me"}})
	s = reduce(s, AddRoom{Room: room("room1")})
	s = reduce(s, AddRoom{Room: room("room2")})
	s = reduce(s, SetActiveRoom{RoomID: "room1"})

	// Inactive room, other author: counts.
	s = reduce(s, AddMessage{RoomID: "room2", Message: msg("m1", "u2", "a")})
	// Active room: does not count.
	s = reduce(s, AddMessage{RoomID: "room1", Message: msg("m2", "u2", "b")})
	// Inactive room, own message: does not count.
	s = reduce(s, AddMessage{RoomID: "room2", Message: msg("m3", "me", "c")})

	r2, _ := s.Room("room2")
	if r2.UnreadCount != 1 {
		t.Fatalf("room2 unread = %d, want 1", r2.UnreadCount)
	}
	r1, _ := s.Room("room1")
	if r1.UnreadCount != 0 {
		t.Fatalf("room1 unread = %d, want 0", r1.UnreadCount)
	}
	if s.UnreadTotal() != 1 {
		t.Fatalf("unread total = %d, want 1", s.UnreadTotal())
	}
}

func TestMarkRoomReadArithmetic(t *testing.T) {
	s := NewState()
	s = reduce(s, AddRoom{Room: room("room1")})
	s = reduce(s, AddRoom{Room: room("room2")})
	s = reduce(s, UpdateUnread{RoomID: "room1", Count: 3})
	s = reduce(s, UpdateUnread{RoomID: "room2", Count: 2})

	before := s.UnreadTotal()
	s = reduce(s, MarkRoomRead{RoomID: "room1"})

	r1, _ := s.Room("room1")
	if r1.UnreadCount != 0 {
		t.Fatalf("room1 unread = %d, want 0", r1.UnreadCount)
	}
	if got, want := s.UnreadTotal(), before-3; got != want {
		t.Fatalf("unread total = %d, want %d", got, want)
	}

	// Marking an already-read room changes nothing.
	s = reduce(s, MarkRoomRead{RoomID: "room1"})
	if s.UnreadTotal() != 2 {
		t.Fatalf("unread total = %d, want 2", s.UnreadTotal())
	}
}

func TestUpdateUnreadNeverNegative(t *testing.T) {
	s := NewState()
	s = reduce(s, AddRoom{Room: room("room1")})
	s = reduce(s, UpdateUnread{RoomID: "room1", Count: -5})

	r1, _ := s.Room("room1")
	if r1.UnreadCount != 0 {
		t.Fatalf("unread = %d, want 0", r1.UnreadCount)
	}
}

func TestDeleteMessageIdempotent(t *testing.T) {
	s := NewState()
	s = reduce(s, AddRoom{Room: room("room1")})
	s = reduce(s, AddMessage{RoomID: "room1", Message: msg("m1", "u1", "a")})
	s = reduce(s, AddMessage{RoomID: "room1", Message: msg("m2", "u1", "b")})

	once := reduce(s, DeleteMessage{RoomID: "room1", MessageID: "m1"})
	twice := reduce(once, DeleteMessage{RoomID: "room1", MessageID: "m1"})

	if !reflect.DeepEqual(once.RoomMessages("room1"), twice.RoomMessages("room1")) {
		t.Fatalf("second delete changed state: %+v vs %+v",
			once.RoomMessages("room1"), twice.RoomMessages("room1"))
	}
	if len(twice.RoomMessages("room1")) != 1 || twice.RoomMessages("room1")[0].ID != "m2" {
		t.Fatalf("unexpected remaining messages: %+v", twice.RoomMessages("room1"))
	}
}

func TestRemoveRoomIdempotent(t *testing.T) {
	s := NewState()
	s = reduce(s, AddRoom{Room: room("room1")})
	s = reduce(s, AddMessage{RoomID: "room1", Message: msg("m1", "u1", "a")})
	s = reduce(s, SetActiveRoom{RoomID: "room1"})

	s = reduce(s, RemoveRoom{RoomID: "room1"})
	if _, ok := s.Room("room1"); ok {
		t.Fatal("room still present after removal")
	}
	if len(s.RoomMessages("room1")) != 0 {
		t.Fatal("messages survived room removal")
	}
	if s.ActiveRoomID != "" {
		t.Fatalf("active room = %q, want empty", s.ActiveRoomID)
	}

	again := reduce(s, RemoveRoom{RoomID: "room1"})
	if !reflect.DeepEqual(s.Rooms, again.Rooms) {
		t.Fatal("second removal changed state")
	}
}

func TestUpdateMessageAppliesPartialUpdate(t *testing.T) {
	s := NewState()
	s = reduce(s, AddRoom{Room: room("room1")})
	s = reduce(s, AddMessage{RoomID: "room1", Message: msg("m1", "u1", "first")})

	content := "edited"
	edited := true
	editedAt := time.Now()
	s = reduce(s, UpdateMessage{
		RoomID:    "room1",
		MessageID: "m1",
		Updates:   models.MessageUpdate{Content: &content, Edited: &edited, EditedAt: &editedAt},
	})

	got := s.RoomMessages("room1")[0]
	if got.Content != "edited" || !got.Edited || got.EditedAt == nil {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.UserID != "u1" {
		t.Fatalf("untouched field changed: %+v", got)
	}

	// Updating a missing message is a no-op.
	before := s
	s = reduce(s, UpdateMessage{RoomID: "room1", MessageID: "nope", Updates: models.MessageUpdate{Content: &content}})
	if !reflect.DeepEqual(before.Messages, s.Messages) {
		t.Fatal("update of missing message mutated state")
	}
}

func TestSetMessagesReplacesWholesale(t *testing.T) {
	s := NewState()
	s = reduce(s, AddRoom{Room: room("room1")})
	s = reduce(s, AddMessage{RoomID: "room1", Message: msg("m1", "u1", "old")})

	s = reduce(s, SetMessages{RoomID: "room1", Messages: []models.ChatMessage{
		msg("h1", "u2", "replayed 1"),
		msg("h2", "u2", "replayed 2"),
	}})

	msgs := s.RoomMessages("room1")
	if len(msgs) != 2 || msgs[0].ID != "h1" || msgs[1].ID != "h2" {
		t.Fatalf("unexpected messages after replace: %+v", msgs)
	}
}

func TestAddRoomEnforcesAdminSubset(t *testing.T) {
	r := room("room1")
	r.Members = []models.TeamMember{{ID: "u1"}, {ID: "u2"}}
	r.Admins = []string{"u1", "ghost", "u1"}

	s := reduce(NewState(), AddRoom{Room: r})

	got, _ := s.Room("room1")
	if !reflect.DeepEqual(got.Admins, []string{"u1"}) {
		t.Fatalf("admins = %v, want [u1]", got.Admins)
	}
}

func TestSetTypingAndOnlineReplacement(t *testing.T) {
	s := NewState()
	s = reduce(s, SetTyping{RoomID: "room1", UserIDs: []string{"u1", "u2"}})
	if !reflect.DeepEqual(s.TypingUsers("room1"), []string{"u1", "u2"}) {
		t.Fatalf("typing = %v", s.TypingUsers("room1"))
	}
	s = reduce(s, SetTyping{RoomID: "room1", UserIDs: nil})
	if len(s.TypingUsers("room1")) != 0 {
		t.Fatalf("typing not cleared: %v", s.TypingUsers("room1"))
	}

	s = reduce(s, SetOnlineMembers{UserIDs: []string{"u1", "u2", "u3"}})
	s = reduce(s, SetOnlineMembers{UserIDs: []string{"u9"}})
	if !reflect.DeepEqual(s.OnlineUserIDs, []string{"u9"}) {
		t.Fatalf("online set = %v, want wholesale replacement", s.OnlineUserIDs)
	}
}

func TestReducerDoesNotMutateInput(t *testing.T) {
	s := NewState()
	s = reduce(s, AddRoom{Room: room("room1")})
	s = reduce(s, AddMessage{RoomID: "room1", Message: msg("m1", "u1", "a")})

	snapshot := len(s.RoomMessages("room1"))
	_ = reduce(s, AddMessage{RoomID: "room1", Message: msg("m2", "u1", "b")})
	_ = reduce(s, DeleteMessage{RoomID: "room1", MessageID: "m1"})
	_ = reduce(s, RemoveRoom{RoomID: "room1"})

	if len(s.RoomMessages("room1")) != snapshot {
		t.Fatal("input state mutated by reduce")
	}
	if _, ok := s.Room("room1"); !ok {
		t.Fatal("input state lost room")
	}
}
