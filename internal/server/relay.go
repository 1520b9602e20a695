package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelsec/teamsync/internal/history"
	"github.com/sentinelsec/teamsync/internal/models"
)

// Relay applies inbound command frames and broadcasts the resulting event
// frames. It keeps rooms and messages in memory; the optional history store
// additionally caps and replays recent messages per room. The relay is a
// development and test harness, not a durable chat backend: restart loses
// everything, and the identity carried by the connection token is trusted
// as-is.
type Relay struct {
	logger  *slog.Logger
	hub     *Hub
	history history.Store

	mu       sync.Mutex
	rooms    map[string]*models.ChatRoom
	messages map[string]map[string]*models.ChatMessage
}

// NewRelay builds a relay. history may be nil, disabling replay on join.
func NewRelay(hub *Hub, hist history.Store, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		logger:   logger,
		hub:      hub,
		history:  hist,
		rooms:    make(map[string]*models.ChatRoom),
		messages: make(map[string]map[string]*models.ChatMessage),
	}
}

// Handle processes one command frame from a session.
func (r *Relay) Handle(sess *session, frame models.Frame) {
	switch frame.Type {
	case models.CmdSendMessage:
		var p models.SendMessagePayload
		if !r.decode(sess, frame, &p) || p.RoomID == "" {
			return
		}
		msgType := p.Type
		if msgType == "" {
			msgType = models.MessageTypeText
		}
		r.appendMessage(sess, p.RoomID, models.ChatMessage{
			Content: p.Content,
			Type:    msgType,
			ReplyTo: p.ReplyTo,
		})

	case models.CmdShareFile:
		var p models.ShareFilePayload
		if !r.decode(sess, frame, &p) || p.RoomID == "" {
			return
		}
		r.appendMessage(sess, p.RoomID, models.ChatMessage{
			Content: p.FileName,
			Type:    models.MessageTypeFile,
			Metadata: map[string]any{
				"fileName": p.FileName,
				"fileSize": p.FileSize,
				"mimeType": p.MimeType,
			},
		})

	case models.CmdShareScanResult:
		var p models.ShareScanResultPayload
		if !r.decode(sess, frame, &p) || p.RoomID == "" {
			return
		}
		r.appendMessage(sess, p.RoomID, models.ChatMessage{
			Content: p.Summary,
			Type:    models.MessageTypeScanResult,
			Metadata: map[string]any{
				"scanId":   p.ScanID,
				"severity": p.Severity,
			},
		})

	case models.CmdEditMessage:
		var p models.EditMessagePayload
		if !r.decode(sess, frame, &p) {
			return
		}
		r.editMessage(sess, p)

	case models.CmdDeleteMessage:
		var p models.DeleteMessagePayload
		if !r.decode(sess, frame, &p) {
			return
		}
		r.deleteMessage(sess, p)

	case models.CmdAddReaction, models.CmdRemoveReaction:
		var p models.ReactionPayload
		if !r.decode(sess, frame, &p) {
			return
		}
		r.updateReaction(sess, frame.Type == models.CmdAddReaction, p)

	case models.CmdCreateRoom:
		var p models.CreateRoomPayload
		if !r.decode(sess, frame, &p) || p.Name == "" {
			return
		}
		r.createRoom(sess, p)

	case models.CmdUpdateRoom:
		var p models.UpdateRoomPayload
		if !r.decode(sess, frame, &p) || p.RoomID == "" {
			return
		}
		r.updateRoom(sess, p)

	case models.CmdDeleteRoom:
		var p models.RoomPayload
		if !r.decode(sess, frame, &p) || p.RoomID == "" {
			return
		}
		r.deleteRoom(sess, p.RoomID)

	case models.CmdJoinRoom:
		var p models.RoomPayload
		if !r.decode(sess, frame, &p) || p.RoomID == "" {
			return
		}
		r.joinRoom(sess, p.RoomID)

	case models.CmdLeaveRoom:
		var p models.RoomPayload
		if !r.decode(sess, frame, &p) || p.RoomID == "" {
			return
		}
		r.leaveRoom(sess, p.RoomID)

	case models.CmdTyping:
		var p models.TypingPayload
		if !r.decode(sess, frame, &p) || p.RoomID == "" {
			return
		}
		users := r.hub.SetTyping(p.RoomID, sess.userID, p.IsTyping)
		r.hub.BroadcastToRoom(p.RoomID, models.EventUserTyping, models.UserTypingEvent{
			RoomID:  p.RoomID,
			UserIDs: users,
		})

	case models.CmdMarkRoomRead:
		// Unread counters are client-side state; nothing to do here.

	case models.CmdInviteMember:
		var p models.MemberActionPayload
		if !r.decode(sess, frame, &p) || p.RoomID == "" || p.MemberID == "" {
			return
		}
		r.inviteMember(sess, p)

	case models.CmdRemoveMember:
		var p models.MemberActionPayload
		if !r.decode(sess, frame, &p) || p.RoomID == "" || p.MemberID == "" {
			return
		}
		r.removeMember(sess, p)

	case models.CmdUpdateMemberRole:
		var p models.UpdateMemberRolePayload
		if !r.decode(sess, frame, &p) || p.RoomID == "" || p.MemberID == "" {
			return
		}
		r.updateMemberRole(sess, p)

	default:
		r.logger.Warn("unknown command dropped", "type", frame.Type, "user", sess.userID)
	}
}

func (r *Relay) decode(sess *session, frame models.Frame, into any) bool {
	if len(frame.Payload) == 0 {
		r.logger.Warn("empty command payload dropped", "type", frame.Type, "user", sess.userID)
		return false
	}
	if err := json.Unmarshal(frame.Payload, into); err != nil {
		r.logger.Warn("malformed command payload dropped", "type", frame.Type, "user", sess.userID, "error", err)
		return false
	}
	return true
}

func (r *Relay) appendMessage(sess *session, roomID string, msg models.ChatMessage) {
	msg.ID = uuid.New().String()
	msg.UserID = sess.userID
	msg.Username = sess.username
	msg.Timestamp = time.Now()

	r.mu.Lock()
	if r.messages[roomID] == nil {
		r.messages[roomID] = make(map[string]*models.ChatMessage)
	}
	stored := msg
	r.messages[roomID][msg.ID] = &stored
	if room, ok := r.rooms[roomID]; ok {
		room.LastActivity = msg.Timestamp
	}
	r.mu.Unlock()

	if r.history != nil {
		if err := r.history.Append(context.Background(), roomID, &msg); err != nil {
			r.logger.Warn("history append failed", "room", roomID, "error", err)
		}
	}

	r.hub.BroadcastToRoom(roomID, models.EventMessage, models.MessageEvent{
		RoomID:  roomID,
		Message: msg,
	})
}

func (r *Relay) editMessage(sess *session, p models.EditMessagePayload) {
	r.mu.Lock()
	msg, ok := r.messages[p.RoomID][p.MessageID]
	if !ok || msg.UserID != sess.userID {
		r.mu.Unlock()
		return
	}
	now := time.Now()
	msg.Content = p.Content
	msg.Edited = true
	msg.EditedAt = &now
	r.mu.Unlock()

	edited := true
	r.hub.BroadcastToRoom(p.RoomID, models.EventMessageUpdated, models.MessageUpdatedEvent{
		RoomID:    p.RoomID,
		MessageID: p.MessageID,
		Updates: models.MessageUpdate{
			Content:  &p.Content,
			Edited:   &edited,
			EditedAt: &now,
		},
	})
}

func (r *Relay) deleteMessage(sess *session, p models.DeleteMessagePayload) {
	r.mu.Lock()
	msg, ok := r.messages[p.RoomID][p.MessageID]
	if !ok {
		r.mu.Unlock()
		return
	}
	room := r.rooms[p.RoomID]
	if msg.UserID != sess.userID && (room == nil || !room.IsAdmin(sess.userID)) {
		r.mu.Unlock()
		return
	}
	delete(r.messages[p.RoomID], p.MessageID)
	r.mu.Unlock()

	if r.history != nil {
		if err := r.history.Remove(context.Background(), p.RoomID, p.MessageID); err != nil {
			r.logger.Warn("history remove failed", "room", p.RoomID, "error", err)
		}
	}

	r.hub.BroadcastToRoom(p.RoomID, models.EventMessageDeleted, models.MessageDeletedEvent{
		RoomID:    p.RoomID,
		MessageID: p.MessageID,
	})
}

func (r *Relay) updateReaction(sess *session, add bool, p models.ReactionPayload) {
	r.mu.Lock()
	msg, ok := r.messages[p.RoomID][p.MessageID]
	if !ok {
		r.mu.Unlock()
		return
	}
	if add {
		msg.Reactions = models.AddReaction(msg.Reactions, p.Emoji, sess.userID)
	} else {
		msg.Reactions = models.RemoveReaction(msg.Reactions, p.Emoji, sess.userID)
	}
	reactions := msg.Reactions
	if reactions == nil {
		reactions = map[string][]string{}
	}
	r.mu.Unlock()

	r.hub.BroadcastToRoom(p.RoomID, models.EventMessageUpdated, models.MessageUpdatedEvent{
		RoomID:    p.RoomID,
		MessageID: p.MessageID,
		Updates:   models.MessageUpdate{Reactions: reactions},
	})
}

func (r *Relay) createRoom(sess *session, p models.CreateRoomPayload) {
	roomType := p.Type
	if roomType == "" {
		roomType = models.RoomTypePublic
	}
	now := time.Now()
	room := models.ChatRoom{
		ID:           uuid.New().String(),
		Name:         p.Name,
		Description:  p.Description,
		Type:         roomType,
		Members:      []models.TeamMember{sess.member()},
		Admins:       []string{sess.userID},
		CreatedAt:    now,
		LastActivity: now,
		Settings:     models.DefaultRoomSettings(),
	}

	r.mu.Lock()
	stored := room
	r.rooms[room.ID] = &stored
	r.mu.Unlock()

	r.hub.JoinRoom(sess, room.ID)
	r.hub.BroadcastAll(models.EventRoomCreated, models.RoomCreatedEvent{Room: room})
}

func (r *Relay) updateRoom(sess *session, p models.UpdateRoomPayload) {
	r.mu.Lock()
	room, ok := r.rooms[p.RoomID]
	if !ok || !room.IsAdmin(sess.userID) {
		r.mu.Unlock()
		return
	}
	if p.Updates.Name != nil {
		room.Name = *p.Updates.Name
	}
	if p.Updates.Description != nil {
		room.Description = *p.Updates.Description
	}
	if p.Updates.Archived != nil {
		room.Archived = *p.Updates.Archived
	}
	if p.Updates.Settings != nil {
		room.Settings = *p.Updates.Settings
	}
	r.mu.Unlock()

	r.hub.BroadcastToRoom(p.RoomID, models.EventRoomUpdated, models.RoomUpdatedEvent{
		RoomID:  p.RoomID,
		Updates: p.Updates,
	})
}

func (r *Relay) deleteRoom(sess *session, roomID string) {
	r.mu.Lock()
	room, ok := r.rooms[roomID]
	if !ok || !room.IsAdmin(sess.userID) {
		r.mu.Unlock()
		return
	}
	delete(r.rooms, roomID)
	delete(r.messages, roomID)
	r.mu.Unlock()

	if r.history != nil {
		if err := r.history.DropRoom(context.Background(), roomID); err != nil {
			r.logger.Warn("history drop failed", "room", roomID, "error", err)
		}
	}

	r.hub.DropRoom(roomID)
	r.hub.BroadcastAll(models.EventRoomDeleted, models.RoomDeletedEvent{RoomID: roomID})
}

func (r *Relay) joinRoom(sess *session, roomID string) {
	member := sess.member()

	r.mu.Lock()
	room, ok := r.rooms[roomID]
	if ok && !room.HasMember(sess.userID) {
		room.Members = append(room.Members, member)
	}
	r.mu.Unlock()

	r.hub.JoinRoom(sess, roomID)
	r.hub.BroadcastToRoom(roomID, models.EventMemberJoined, models.MemberJoinedEvent{
		MemberID: member.ID,
		Member:   member,
	})
	r.replayHistory(sess, roomID)
}

// replayHistory sends the room's recent messages to the joining session only.
func (r *Relay) replayHistory(sess *session, roomID string) {
	if r.history == nil {
		return
	}
	messages, err := r.history.Recent(context.Background(), roomID, 0)
	if err != nil {
		r.logger.Warn("history replay failed", "room", roomID, "error", err)
		return
	}
	if len(messages) == 0 {
		return
	}
	sess.sendFrame(models.EventRoomHistory, models.RoomHistoryEvent{
		RoomID:   roomID,
		Messages: messages,
	})
}

func (r *Relay) leaveRoom(sess *session, roomID string) {
	r.mu.Lock()
	if room, ok := r.rooms[roomID]; ok {
		members := room.Members[:0]
		for _, m := range room.Members {
			if m.ID != sess.userID {
				members = append(members, m)
			}
		}
		room.Members = members
	}
	r.mu.Unlock()

	r.hub.LeaveRoom(sess, roomID)
}

func (r *Relay) inviteMember(sess *session, p models.MemberActionPayload) {
	member := models.TeamMember{
		ID:       p.MemberID,
		Username: p.MemberID,
		Role:     models.RoleAnalyst,
		Status:   models.PresenceOffline,
	}

	r.mu.Lock()
	room, ok := r.rooms[p.RoomID]
	if !ok || !room.IsAdmin(sess.userID) || room.HasMember(p.MemberID) {
		r.mu.Unlock()
		return
	}
	room.Members = append(room.Members, member)
	r.mu.Unlock()

	r.hub.BroadcastToRoom(p.RoomID, models.EventMemberJoined, models.MemberJoinedEvent{
		MemberID: member.ID,
		Member:   member,
	})
}

func (r *Relay) removeMember(sess *session, p models.MemberActionPayload) {
	r.mu.Lock()
	room, ok := r.rooms[p.RoomID]
	if !ok || !room.IsAdmin(sess.userID) {
		r.mu.Unlock()
		return
	}
	members := room.Members[:0]
	for _, m := range room.Members {
		if m.ID != p.MemberID {
			members = append(members, m)
		}
	}
	room.Members = members
	admins := room.Admins[:0]
	for _, id := range room.Admins {
		if id != p.MemberID {
			admins = append(admins, id)
		}
	}
	room.Admins = admins
	updated := *room
	r.mu.Unlock()

	r.hub.BroadcastToRoom(p.RoomID, models.EventRoomUpdated, models.RoomUpdatedEvent{
		RoomID:  p.RoomID,
		Updates: models.RoomUpdate{LastActivity: &updated.LastActivity},
	})
}

func (r *Relay) updateMemberRole(sess *session, p models.UpdateMemberRolePayload) {
	r.mu.Lock()
	room, ok := r.rooms[p.RoomID]
	if !ok || !room.IsAdmin(sess.userID) {
		r.mu.Unlock()
		return
	}
	var updated *models.TeamMember
	for i := range room.Members {
		if room.Members[i].ID == p.MemberID {
			room.Members[i].Role = p.Role
			room.Members[i].Permissions = p.Role.DefaultPermissions()
			m := room.Members[i]
			updated = &m
			break
		}
	}
	r.mu.Unlock()

	if updated == nil {
		return
	}
	r.hub.BroadcastToRoom(p.RoomID, models.EventMemberJoined, models.MemberJoinedEvent{
		MemberID: updated.ID,
		Member:   *updated,
	})
}
