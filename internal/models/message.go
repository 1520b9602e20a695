package models

import "time"

type MessageType string

const (
	MessageTypeText       MessageType = "text"
	MessageTypeImage      MessageType = "image"
	MessageTypeFile       MessageType = "file"
	MessageTypeSystem     MessageType = "system"
	MessageTypeScanResult MessageType = "scan_result"
	MessageTypeAlert      MessageType = "alert"
)

// ChatMessage is a single authored content unit within a room. Message IDs are
// unique per room. Reactions map an emoji to the set of user IDs that applied
// it; the set discipline (no duplicate user per emoji) is enforced by the
// state transitions, not by the struct.
type ChatMessage struct {
	ID        string              `json:"id"`
	UserID    string              `json:"userId"`
	Username  string              `json:"username"`
	Content   string              `json:"content"`
	Type      MessageType         `json:"type"`
	Timestamp time.Time           `json:"timestamp"`
	Edited    bool                `json:"edited,omitempty"`
	EditedAt  *time.Time          `json:"editedAt,omitempty"`
	ReplyTo   string              `json:"replyTo,omitempty"`
	Reactions map[string][]string `json:"reactions,omitempty"`
	Metadata  map[string]any      `json:"metadata,omitempty"`
}

// MessageUpdate carries a partial update to an existing message. Nil fields
// leave the current value untouched.
type MessageUpdate struct {
	Content   *string             `json:"content,omitempty"`
	Edited    *bool               `json:"edited,omitempty"`
	EditedAt  *time.Time          `json:"editedAt,omitempty"`
	Reactions map[string][]string `json:"reactions,omitempty"`
	Metadata  map[string]any      `json:"metadata,omitempty"`
}
