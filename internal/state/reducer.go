package state

import (
	"github.com/sentinelsec/teamsync/internal/models"
)

// reduce is the pure transition function (state, action) -> state'. It is the
// only place chat state changes shape. Messages are appended strictly in
// arrival order; delete actions are idempotent no-ops when the target is
// already gone.
func reduce(s State, action Action) State {
	switch a := action.(type) {
	case AddMessage:
		return reduceAddMessage(s, a)
	case UpdateMessage:
		return reduceUpdateMessage(s, a)
	case DeleteMessage:
		return reduceDeleteMessage(s, a)
	case SetMessages:
		msgs := make([]models.ChatMessage, len(a.Messages))
		copy(msgs, a.Messages)
		s.Messages = cloneMessages(s.Messages)
		s.Messages[a.RoomID] = msgs
		return s
	case AddRoom:
		s.Rooms = cloneRooms(s.Rooms)
		s.Rooms[a.Room.ID] = normalizeRoom(a.Room)
		return s
	case UpdateRoom:
		return reduceUpdateRoom(s, a)
	case RemoveRoom:
		return reduceRemoveRoom(s, a)
	case SetActiveRoom:
		s.ActiveRoomID = a.RoomID
		return s
	case SetMembers:
		members := make(map[string]models.TeamMember, len(a.Members))
		for _, m := range a.Members {
			members[m.ID] = m
		}
		s.Members = members
		return s
	case UpdateMember:
		s.Members = cloneMembers(s.Members)
		s.Members[a.Member.ID] = a.Member
		return s
	case SetOnlineMembers:
		ids := make([]string, len(a.UserIDs))
		copy(ids, a.UserIDs)
		s.OnlineUserIDs = ids
		return s
	case SetTyping:
		s.Typing = cloneTyping(s.Typing)
		if len(a.UserIDs) == 0 {
			delete(s.Typing, a.RoomID)
		} else {
			ids := make([]string, len(a.UserIDs))
			copy(ids, a.UserIDs)
			s.Typing[a.RoomID] = ids
		}
		return s
	case UpdateUnread:
		room, ok := s.Rooms[a.RoomID]
		if !ok {
			return s
		}
		count := a.Count
		if count < 0 {
			count = 0
		}
		room.UnreadCount = count
		s.Rooms = cloneRooms(s.Rooms)
		s.Rooms[a.RoomID] = room
		return s
	case MarkRoomRead:
		room, ok := s.Rooms[a.RoomID]
		if !ok || room.UnreadCount == 0 {
			return s
		}
		room.UnreadCount = 0
		s.Rooms = cloneRooms(s.Rooms)
		s.Rooms[a.RoomID] = room
		return s
	case SetConnectionStatus:
		s.ConnectionStatus = a.Status
		return s
	case SetCurrentUser:
		s.CurrentUser = a.User
		return s
	default:
		return s
	}
}

func reduceAddMessage(s State, a AddMessage) State {
	existing := s.Messages[a.RoomID]
	for _, m := range existing {
		if m.ID == a.Message.ID {
			// Message IDs are unique per room; a redelivery is dropped.
			return s
		}
	}

	msgs := make([]models.ChatMessage, len(existing), len(existing)+1)
	copy(msgs, existing)
	msgs = append(msgs, a.Message)
	s.Messages = cloneMessages(s.Messages)
	s.Messages[a.RoomID] = msgs

	room, ok := s.Rooms[a.RoomID]
	if !ok {
		return s
	}
	if !a.Message.Timestamp.IsZero() {
		room.LastActivity = a.Message.Timestamp
	}
	if a.RoomID != s.ActiveRoomID && a.Message.UserID != s.CurrentUser.ID {
		room.UnreadCount++
	}
	s.Rooms = cloneRooms(s.Rooms)
	s.Rooms[a.RoomID] = room
	return s
}

func reduceUpdateMessage(s State, a UpdateMessage) State {
	existing := s.Messages[a.RoomID]
	idx := -1
	for i, m := range existing {
		if m.ID == a.MessageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}

	msgs := make([]models.ChatMessage, len(existing))
	copy(msgs, existing)
	msgs[idx] = applyMessageUpdate(msgs[idx], a.Updates)
	s.Messages = cloneMessages(s.Messages)
	s.Messages[a.RoomID] = msgs
	return s
}

func reduceDeleteMessage(s State, a DeleteMessage) State {
	existing := s.Messages[a.RoomID]
	idx := -1
	for i, m := range existing {
		if m.ID == a.MessageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}

	msgs := make([]models.ChatMessage, 0, len(existing)-1)
	msgs = append(msgs, existing[:idx]...)
	msgs = append(msgs, existing[idx+1:]...)
	s.Messages = cloneMessages(s.Messages)
	s.Messages[a.RoomID] = msgs
	return s
}

func reduceUpdateRoom(s State, a UpdateRoom) State {
	room, ok := s.Rooms[a.RoomID]
	if !ok {
		return s
	}
	if a.Updates.Name != nil {
		room.Name = *a.Updates.Name
	}
	if a.Updates.Description != nil {
		room.Description = *a.Updates.Description
	}
	if a.Updates.Archived != nil {
		room.Archived = *a.Updates.Archived
	}
	if a.Updates.Settings != nil {
		room.Settings = *a.Updates.Settings
	}
	if a.Updates.LastActivity != nil {
		room.LastActivity = *a.Updates.LastActivity
	}
	s.Rooms = cloneRooms(s.Rooms)
	s.Rooms[a.RoomID] = room
	return s
}

func reduceRemoveRoom(s State, a RemoveRoom) State {
	if _, ok := s.Rooms[a.RoomID]; !ok {
		return s
	}
	s.Rooms = cloneRooms(s.Rooms)
	delete(s.Rooms, a.RoomID)
	s.Messages = cloneMessages(s.Messages)
	delete(s.Messages, a.RoomID)
	s.Typing = cloneTyping(s.Typing)
	delete(s.Typing, a.RoomID)
	if s.ActiveRoomID == a.RoomID {
		s.ActiveRoomID = ""
	}
	return s
}

func applyMessageUpdate(m models.ChatMessage, u models.MessageUpdate) models.ChatMessage {
	if u.Content != nil {
		m.Content = *u.Content
	}
	if u.Edited != nil {
		m.Edited = *u.Edited
	}
	if u.EditedAt != nil {
		m.EditedAt = u.EditedAt
	}
	if u.Reactions != nil {
		reactions := make(map[string][]string, len(u.Reactions))
		for emoji, users := range u.Reactions {
			if len(users) == 0 {
				continue
			}
			reactions[emoji] = dedupe(users)
		}
		if len(reactions) == 0 {
			reactions = nil
		}
		m.Reactions = reactions
	}
	if u.Metadata != nil {
		m.Metadata = u.Metadata
	}
	return m
}

// normalizeRoom enforces the admins-subset-of-members invariant on rooms
// arriving from the wire.
func normalizeRoom(room models.ChatRoom) models.ChatRoom {
	if len(room.Admins) == 0 {
		return room
	}
	admins := make([]string, 0, len(room.Admins))
	for _, id := range dedupe(room.Admins) {
		if room.HasMember(id) {
			admins = append(admins, id)
		}
	}
	room.Admins = admins
	return room
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
