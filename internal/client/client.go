package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sentinelsec/teamsync/internal/models"
	"github.com/sentinelsec/teamsync/internal/state"
)

// Options configures a Client. Endpoint and Token come from the host
// application's session; Enabled is the license/feature capability for the
// team-chat subsystem, injected at construction.
type Options struct {
	Endpoint      string
	Token         string
	Enabled       bool
	CurrentUser   models.TeamMember
	Reconnect     ReconnectPolicy
	TypingTimeout time.Duration
	Logger        *slog.Logger
	OnStateChange func(state.State)
}

// Client is the real-time team-chat synchronization core. One Client owns one
// logical session: a single socket, a single state store, and the timers that
// belong to them. Instances are independent; nothing here is process-global.
type Client struct {
	logger     *slog.Logger
	enabled    bool
	store      *state.Store
	manager    *ConnectionManager
	router     *EventRouter
	dispatcher *CommandDispatcher
	presence   *PresenceTracker
}

// New wires up the sync core. The store starts empty and readable whether or
// not the capability is enabled; a disabled client refuses to open a
// connection.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("teamsync: endpoint required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := state.NewStore(logger)
	if opts.OnStateChange != nil {
		store.OnChange(opts.OnStateChange)
	}
	if opts.CurrentUser.ID != "" {
		store.Dispatch(state.SetCurrentUser{User: opts.CurrentUser})
	}

	manager := NewConnectionManager(opts.Endpoint, opts.Token, opts.Reconnect, logger)
	router := NewEventRouter(store, logger)
	dispatcher := NewCommandDispatcher(manager, store, logger)
	presence := NewPresenceTracker(opts.TypingTimeout, dispatcher.SetTyping, logger)

	manager.SetHandlers(router.Route, func(status models.ConnectionStatus) {
		store.Dispatch(state.SetConnectionStatus{Status: status})
	})

	return &Client{
		logger:     logger,
		enabled:    opts.Enabled,
		store:      store,
		manager:    manager,
		router:     router,
		dispatcher: dispatcher,
		presence:   presence,
	}, nil
}

// Connect opens the socket. It fails with ErrDisabled when the team-chat
// capability is off for this session.
func (c *Client) Connect(ctx context.Context) error {
	if !c.enabled {
		return ErrDisabled
	}
	return c.manager.Connect(ctx)
}

// Disconnect closes the socket without releasing the client. Safe to call at
// any time.
func (c *Client) Disconnect() {
	c.manager.Disconnect()
}

// Close tears the session down: socket, typing timers, and the store's apply
// loop. The client is unusable afterwards.
func (c *Client) Close() {
	c.manager.Disconnect()
	c.presence.Close()
	c.store.Close()
}

// Status returns the transport status.
func (c *Client) Status() models.ConnectionStatus {
	return c.manager.Status()
}

// Store exposes the state store for reads and subscriptions.
func (c *Client) Store() *state.Store {
	return c.store
}

// Commands exposes the outbound command surface.
func (c *Client) Commands() *CommandDispatcher {
	return c.dispatcher
}

// SetTyping records local typing activity, debounced per room.
func (c *Client) SetTyping(roomID string, isTyping bool) {
	if !c.enabled {
		return
	}
	c.presence.SetTyping(roomID, isTyping)
}

// SetActiveRoom marks the room currently in the foreground. Messages arriving
// for the active room do not increment its unread counter.
func (c *Client) SetActiveRoom(roomID string) {
	c.store.Dispatch(state.SetActiveRoom{RoomID: roomID})
}
