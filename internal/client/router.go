package client

import (
	"encoding/json"
	"log/slog"

	"github.com/sentinelsec/teamsync/internal/models"
	"github.com/sentinelsec/teamsync/internal/state"
)

// EventRouter decodes inbound frames and translates them into store actions.
// Unknown frame types are logged and discarded so newer servers can ship
// event types older clients do not understand. Malformed frames are dropped
// the same way; a payload is validated in full before any action is
// dispatched, so a bad frame never leaves the store partially mutated.
type EventRouter struct {
	logger *slog.Logger
	store  *state.Store
}

func NewEventRouter(store *state.Store, logger *slog.Logger) *EventRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventRouter{logger: logger, store: store}
}

// Route handles one raw inbound frame.
func (r *EventRouter) Route(data []byte) {
	var frame models.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		r.logger.Warn("malformed frame dropped", "error", err)
		return
	}

	switch frame.Type {
	case models.EventMessage:
		var ev models.MessageEvent
		if !r.decode(frame, &ev) || ev.RoomID == "" || ev.Message.ID == "" {
			r.dropInvalid(frame.Type)
			return
		}
		r.store.Dispatch(state.AddMessage{RoomID: ev.RoomID, Message: ev.Message})

	case models.EventMessageUpdated:
		var ev models.MessageUpdatedEvent
		if !r.decode(frame, &ev) || ev.RoomID == "" || ev.MessageID == "" {
			r.dropInvalid(frame.Type)
			return
		}
		r.store.Dispatch(state.UpdateMessage{RoomID: ev.RoomID, MessageID: ev.MessageID, Updates: ev.Updates})

	case models.EventMessageDeleted:
		var ev models.MessageDeletedEvent
		if !r.decode(frame, &ev) || ev.RoomID == "" || ev.MessageID == "" {
			r.dropInvalid(frame.Type)
			return
		}
		r.store.Dispatch(state.DeleteMessage{RoomID: ev.RoomID, MessageID: ev.MessageID})

	case models.EventUserTyping:
		var ev models.UserTypingEvent
		if !r.decode(frame, &ev) || ev.RoomID == "" {
			r.dropInvalid(frame.Type)
			return
		}
		r.store.Dispatch(state.SetTyping{RoomID: ev.RoomID, UserIDs: ev.UserIDs})

	case models.EventRoomCreated:
		var ev models.RoomCreatedEvent
		if !r.decode(frame, &ev) || ev.Room.ID == "" {
			r.dropInvalid(frame.Type)
			return
		}
		r.store.Dispatch(state.AddRoom{Room: ev.Room})

	case models.EventRoomUpdated:
		var ev models.RoomUpdatedEvent
		if !r.decode(frame, &ev) || ev.RoomID == "" {
			r.dropInvalid(frame.Type)
			return
		}
		r.store.Dispatch(state.UpdateRoom{RoomID: ev.RoomID, Updates: ev.Updates})

	case models.EventRoomDeleted:
		var ev models.RoomDeletedEvent
		if !r.decode(frame, &ev) || ev.RoomID == "" {
			r.dropInvalid(frame.Type)
			return
		}
		r.store.Dispatch(state.RemoveRoom{RoomID: ev.RoomID})

	case models.EventRoomHistory:
		var ev models.RoomHistoryEvent
		if !r.decode(frame, &ev) || ev.RoomID == "" {
			r.dropInvalid(frame.Type)
			return
		}
		r.store.Dispatch(state.SetMessages{RoomID: ev.RoomID, Messages: ev.Messages})

	case models.EventMemberJoined:
		var ev models.MemberJoinedEvent
		if !r.decode(frame, &ev) || ev.Member.ID == "" {
			r.dropInvalid(frame.Type)
			return
		}
		r.store.Dispatch(state.UpdateMember{Member: ev.Member})

	case models.EventMembersOnline:
		var ev models.MembersOnlineEvent
		if !r.decode(frame, &ev) {
			r.dropInvalid(frame.Type)
			return
		}
		r.store.Dispatch(state.SetOnlineMembers{UserIDs: ev.UserIDs})

	default:
		r.logger.Warn("unknown frame type dropped", "type", frame.Type)
	}
}

func (r *EventRouter) decode(frame models.Frame, into any) bool {
	if len(frame.Payload) == 0 {
		return false
	}
	if err := json.Unmarshal(frame.Payload, into); err != nil {
		r.logger.Warn("malformed payload dropped", "type", frame.Type, "error", err)
		return false
	}
	return true
}

func (r *EventRouter) dropInvalid(frameType string) {
	r.logger.Warn("invalid payload dropped", "type", frameType)
}
