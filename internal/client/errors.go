package client

import "errors"

var (
	// ErrNotConnected is returned when a command is issued while the
	// transport is not in the connected state. Commands are never queued
	// for later delivery.
	ErrNotConnected = errors.New("teamsync: not connected")

	// ErrDisabled is returned when the team-chat capability is off for the
	// current license tier.
	ErrDisabled = errors.New("teamsync: team chat capability disabled")

	// ErrPermissionDenied is returned by the advisory client-side check on
	// member-management commands. The server performs the authoritative
	// check regardless.
	ErrPermissionDenied = errors.New("teamsync: permission denied")
)
