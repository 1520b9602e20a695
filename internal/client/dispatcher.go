package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sentinelsec/teamsync/internal/models"
	"github.com/sentinelsec/teamsync/internal/state"
)

// frameWriter is the slice of ConnectionManager the dispatcher needs.
type frameWriter interface {
	WriteFrame(models.Frame) error
}

// CommandDispatcher translates caller intents into outbound frames. Delivery
// is at-most-once from the client's perspective: nothing is queued or retried
// and no acknowledgment is awaited. When the transport is not connected every
// method returns ErrNotConnected instead of silently dropping the command.
//
// Member-management commands run an advisory permission pre-check against the
// current user. The check is a UX convenience only; the server enforces
// authorization on its own.
type CommandDispatcher struct {
	logger *slog.Logger
	conn   frameWriter
	store  *state.Store
	now    func() time.Time
}

func NewCommandDispatcher(conn frameWriter, store *state.Store, logger *slog.Logger) *CommandDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandDispatcher{
		logger: logger,
		conn:   conn,
		store:  store,
		now:    time.Now,
	}
}

func (d *CommandDispatcher) SendMessage(roomID, content string) error {
	return d.send(models.CmdSendMessage, models.SendMessagePayload{
		RoomID:  roomID,
		Content: content,
		Type:    models.MessageTypeText,
	})
}

func (d *CommandDispatcher) EditMessage(roomID, messageID, content string) error {
	return d.send(models.CmdEditMessage, models.EditMessagePayload{
		RoomID:    roomID,
		MessageID: messageID,
		Content:   content,
	})
}

func (d *CommandDispatcher) DeleteMessage(roomID, messageID string) error {
	return d.send(models.CmdDeleteMessage, models.DeleteMessagePayload{
		RoomID:    roomID,
		MessageID: messageID,
	})
}

func (d *CommandDispatcher) AddReaction(roomID, messageID, emoji string) error {
	return d.send(models.CmdAddReaction, models.ReactionPayload{
		RoomID:    roomID,
		MessageID: messageID,
		Emoji:     emoji,
	})
}

func (d *CommandDispatcher) RemoveReaction(roomID, messageID, emoji string) error {
	return d.send(models.CmdRemoveReaction, models.ReactionPayload{
		RoomID:    roomID,
		MessageID: messageID,
		Emoji:     emoji,
	})
}

func (d *CommandDispatcher) CreateRoom(name, description string, roomType models.RoomType, memberIDs []string) error {
	return d.send(models.CmdCreateRoom, models.CreateRoomPayload{
		Name:        name,
		Description: description,
		Type:        roomType,
		MemberIDs:   memberIDs,
	})
}

func (d *CommandDispatcher) UpdateRoom(roomID string, updates models.RoomUpdate) error {
	return d.send(models.CmdUpdateRoom, models.UpdateRoomPayload{
		RoomID:  roomID,
		Updates: updates,
	})
}

func (d *CommandDispatcher) DeleteRoom(roomID string) error {
	if err := d.checkRoomManagement(roomID); err != nil {
		return err
	}
	return d.send(models.CmdDeleteRoom, models.RoomPayload{RoomID: roomID})
}

func (d *CommandDispatcher) JoinRoom(roomID string) error {
	return d.send(models.CmdJoinRoom, models.RoomPayload{RoomID: roomID})
}

func (d *CommandDispatcher) LeaveRoom(roomID string) error {
	return d.send(models.CmdLeaveRoom, models.RoomPayload{RoomID: roomID})
}

// MarkRoomAsRead zeroes the room's unread counter locally and informs the
// server so other devices of the same user converge.
func (d *CommandDispatcher) MarkRoomAsRead(roomID string) error {
	if err := d.send(models.CmdMarkRoomRead, models.RoomPayload{RoomID: roomID}); err != nil {
		return err
	}
	d.store.Dispatch(state.MarkRoomRead{RoomID: roomID})
	return nil
}

// SetTyping emits a raw typing frame. Callers should go through the
// PresenceTracker, which debounces the start edge and schedules the stop.
func (d *CommandDispatcher) SetTyping(roomID string, isTyping bool) error {
	return d.send(models.CmdTyping, models.TypingPayload{
		RoomID:   roomID,
		IsTyping: isTyping,
	})
}

func (d *CommandDispatcher) ShareFile(roomID, fileName string, fileSize int64, mimeType string) error {
	return d.send(models.CmdShareFile, models.ShareFilePayload{
		RoomID:   roomID,
		FileName: fileName,
		FileSize: fileSize,
		MimeType: mimeType,
	})
}

func (d *CommandDispatcher) ShareScanResult(roomID, scanID, summary, severity string) error {
	return d.send(models.CmdShareScanResult, models.ShareScanResultPayload{
		RoomID:   roomID,
		ScanID:   scanID,
		Summary:  summary,
		Severity: severity,
	})
}

func (d *CommandDispatcher) InviteMember(roomID, memberID string) error {
	if err := d.checkMemberManagement(roomID); err != nil {
		return err
	}
	return d.send(models.CmdInviteMember, models.MemberActionPayload{
		RoomID:   roomID,
		MemberID: memberID,
	})
}

func (d *CommandDispatcher) RemoveMember(roomID, memberID string) error {
	if err := d.checkMemberManagement(roomID); err != nil {
		return err
	}
	return d.send(models.CmdRemoveMember, models.MemberActionPayload{
		RoomID:   roomID,
		MemberID: memberID,
	})
}

func (d *CommandDispatcher) UpdateMemberRole(roomID, memberID string, role models.Role) error {
	if err := d.checkMemberManagement(roomID); err != nil {
		return err
	}
	return d.send(models.CmdUpdateMemberRole, models.UpdateMemberRolePayload{
		RoomID:   roomID,
		MemberID: memberID,
		Role:     role,
	})
}

func (d *CommandDispatcher) send(frameType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", frameType, err)
	}
	frame := models.Frame{
		Type:      frameType,
		Payload:   data,
		Timestamp: d.now().UnixMilli(),
	}
	if err := d.conn.WriteFrame(frame); err != nil {
		return err
	}
	d.logger.Debug("command sent", "type", frameType)
	return nil
}

func (d *CommandDispatcher) checkMemberManagement(roomID string) error {
	return d.checkPermission(roomID, models.PermManageMembers)
}

func (d *CommandDispatcher) checkRoomManagement(roomID string) error {
	return d.checkPermission(roomID, models.PermManageRooms)
}

func (d *CommandDispatcher) checkPermission(roomID, perm string) error {
	user := d.store.CurrentUser()
	if user.ID == "" {
		// No directory entry loaded yet; defer to the server.
		return nil
	}
	if user.HasPermission(perm) {
		return nil
	}
	if room, ok := d.store.State().Room(roomID); ok && room.IsAdmin(user.ID) {
		return nil
	}
	return ErrPermissionDenied
}
