package models

import "time"

type Role string

const (
	RoleAdmin         Role = "admin"
	RoleManager       Role = "manager"
	RoleSeniorAnalyst Role = "senior_analyst"
	RoleAnalyst       Role = "analyst"
	RoleViewer        Role = "viewer"
)

// Permission strings attached to members. The client-side checks built on
// these are advisory only; the server remains the authority.
const (
	PermViewRooms      = "view_rooms"
	PermSendMessages   = "send_messages"
	PermShareFiles     = "share_files"
	PermShareScans     = "share_scans"
	PermManageRooms    = "manage_rooms"
	PermManageMembers  = "manage_members"
	PermDeleteMessages = "delete_messages"
)

// DefaultPermissions returns the permission set granted by a role.
func (r Role) DefaultPermissions() []string {
	switch r {
	case RoleAdmin:
		return []string{
			PermViewRooms, PermSendMessages, PermShareFiles, PermShareScans,
			PermManageRooms, PermManageMembers, PermDeleteMessages,
		}
	case RoleManager:
		return []string{
			PermViewRooms, PermSendMessages, PermShareFiles, PermShareScans,
			PermManageRooms, PermManageMembers,
		}
	case RoleSeniorAnalyst:
		return []string{PermViewRooms, PermSendMessages, PermShareFiles, PermShareScans}
	case RoleAnalyst:
		return []string{PermViewRooms, PermSendMessages, PermShareFiles}
	case RoleViewer:
		return []string{PermViewRooms}
	default:
		return nil
	}
}

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceBusy    PresenceStatus = "busy"
	PresenceOffline PresenceStatus = "offline"
)

// TeamMember mirrors a directory entry for a user. The directory service owns
// these records; the sync core only applies updates it receives.
type TeamMember struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	Email       string         `json:"email,omitempty"`
	Avatar      string         `json:"avatar,omitempty"`
	Role        Role           `json:"role"`
	Tier        string         `json:"tier,omitempty"`
	Status      PresenceStatus `json:"status"`
	LastSeen    time.Time      `json:"lastSeen"`
	Permissions []string       `json:"permissions,omitempty"`
}

// HasPermission reports whether the member holds the given permission, falling
// back to the role's default set when no explicit permissions are attached.
func (m *TeamMember) HasPermission(perm string) bool {
	perms := m.Permissions
	if len(perms) == 0 {
		perms = m.Role.DefaultPermissions()
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// ConnectionStatus describes the transport lifecycle stage. Exactly one value
// holds at any time.
type ConnectionStatus string

const (
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusError        ConnectionStatus = "error"
)
