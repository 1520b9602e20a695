package models

import "time"

type RoomType string

const (
	RoomTypePublic  RoomType = "public"
	RoomTypePrivate RoomType = "private"
	RoomTypeDirect  RoomType = "dm"
)

// RoomSettings are per-room policy switches controlled by room admins.
type RoomSettings struct {
	AllowFileUpload      bool `json:"allowFileUpload"`
	AllowScanSharing     bool `json:"allowScanSharing"`
	RetentionDays        int  `json:"retentionDays"`
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

// DefaultRoomSettings returns the settings applied to newly created rooms.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		AllowFileUpload:      true,
		AllowScanSharing:     true,
		RetentionDays:        90,
		NotificationsEnabled: true,
	}
}

// ChatRoom is a named channel grouping members and messages. Admins is a set
// of user IDs and must stay a subset of Members; UnreadCount is never
// negative. Both invariants are maintained by the state transitions.
type ChatRoom struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Type         RoomType     `json:"type"`
	Members      []TeamMember `json:"members"`
	Admins       []string     `json:"admins,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	LastActivity time.Time    `json:"lastActivity"`
	UnreadCount  int          `json:"unreadCount"`
	Archived     bool         `json:"archived,omitempty"`
	Settings     RoomSettings `json:"settings"`
}

// IsAdmin reports whether the given user is an admin of the room.
func (r *ChatRoom) IsAdmin(userID string) bool {
	for _, id := range r.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

// HasMember reports whether the given user is a member of the room.
func (r *ChatRoom) HasMember(userID string) bool {
	for _, m := range r.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// RoomUpdate carries a partial update to an existing room. Nil fields leave
// the current value untouched.
type RoomUpdate struct {
	Name         *string       `json:"name,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Archived     *bool         `json:"archived,omitempty"`
	Settings     *RoomSettings `json:"settings,omitempty"`
	LastActivity *time.Time    `json:"lastActivity,omitempty"`
}
