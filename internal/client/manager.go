package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sentinelsec/teamsync/internal/models"
)

const (
	defaultReconnectDelay = 3 * time.Second
	defaultMaxDelay       = 30 * time.Second
	sendBufferSize        = 64
)

// ReconnectPolicy controls how the manager schedules reconnect attempts after
// an abnormal close. The zero value retries forever on a fixed 3s delay.
// Enabling Backoff switches to exponential delays with jitter capped at
// MaxDelay.
type ReconnectPolicy struct {
	Delay       time.Duration
	Backoff     bool
	MaxDelay    time.Duration
	MaxAttempts int
}

func (p ReconnectPolicy) nextDelay(attempt int) time.Duration {
	delay := p.Delay
	if delay <= 0 {
		delay = defaultReconnectDelay
	}
	if !p.Backoff {
		return delay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			delay = maxDelay
			break
		}
	}
	// Jitter in [delay/2, delay) keeps a fleet of clients from reconnecting
	// in lockstep.
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// wsSession is one live socket with its outbound queue. A new session is
// created per successful dial so pump teardown from a dead connection can
// never touch its successor.
type wsSession struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func (s *wsSession) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.send)
	s.mu.Unlock()
	s.conn.Close()
}

// enqueue hands data to the write pump. queued is false when the outbound
// buffer is full; open is false when the session is already torn down. The
// mutex makes the send and close mutually exclusive, so teardown racing a
// writer can never hit a closed channel.
func (s *wsSession) enqueue(data []byte) (queued, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, false
	}
	select {
	case s.send <- data:
		return true, true
	default:
		return false, true
	}
}

// ConnectionManager owns at most one live socket to the team-chat endpoint
// and drives the connection lifecycle:
//
//	disconnected -> connecting -> connected
//
// An abnormal close moves connected -> disconnected and schedules a reconnect
// unless the caller initiated the disconnect. A dial or transport failure
// moves to error, which is retryable: the next scheduled attempt enters
// connecting again. The manager never jumps from connecting straight to
// disconnected.
type ConnectionManager struct {
	logger   *slog.Logger
	dialer   *websocket.Dialer
	endpoint string
	token    string
	policy   ReconnectPolicy

	onFrame  func(data []byte)
	onStatus func(status models.ConnectionStatus)

	mu        sync.Mutex
	status    models.ConnectionStatus
	sess      *wsSession
	reconnect *time.Timer
	attempts  int
	closed    bool
}

// NewConnectionManager builds a manager for the given ws:// endpoint. The
// auth token is appended to the dial URL as the token query parameter. The
// manager is inert until Connect is called.
func NewConnectionManager(endpoint, token string, policy ReconnectPolicy, logger *slog.Logger) *ConnectionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionManager{
		logger:   logger,
		dialer:   websocket.DefaultDialer,
		endpoint: endpoint,
		token:    token,
		policy:   policy,
		status:   models.StatusDisconnected,
	}
}

// SetHandlers installs the inbound-frame and status-change callbacks. Must be
// called before Connect. Callbacks run on the manager's goroutines and must
// not call back into the manager.
func (m *ConnectionManager) SetHandlers(onFrame func([]byte), onStatus func(models.ConnectionStatus)) {
	m.onFrame = onFrame
	m.onStatus = onStatus
}

// Status returns the current connection status.
func (m *ConnectionManager) Status() models.ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Connect establishes the socket. Calling it while already connected or
// connecting is a no-op; the manager never holds more than one live socket.
// A dial failure moves the manager to the error state and schedules a retry
// before returning the error.
func (m *ConnectionManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.status == models.StatusConnected || m.status == models.StatusConnecting {
		m.mu.Unlock()
		return nil
	}
	m.closed = false
	m.attempts = 0
	m.stopReconnectLocked()
	m.setStatusLocked(models.StatusConnecting)
	m.mu.Unlock()

	return m.dial(ctx)
}

// Disconnect closes the socket and cancels any pending reconnect. It is
// idempotent and safe to call while already disconnected. No reconnect is
// scheduled after a caller-initiated disconnect.
func (m *ConnectionManager) Disconnect() {
	m.mu.Lock()
	m.closed = true
	m.stopReconnectLocked()
	sess := m.sess
	m.sess = nil
	m.setStatusLocked(models.StatusDisconnected)
	m.mu.Unlock()

	if sess != nil {
		deadline := time.Now().Add(time.Second)
		sess.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		sess.close()
	}
}

// WriteFrame serializes the frame and hands it to the write pump. It returns
// ErrNotConnected when no live socket exists, including when teardown wins a
// race against the caller; frames are never queued across connections.
// Delivery is best effort: a full outbound buffer drops the frame with a
// warning rather than blocking the caller.
func (m *ConnectionManager) WriteFrame(frame models.Frame) error {
	m.mu.Lock()
	sess := m.sess
	status := m.status
	m.mu.Unlock()

	if status != models.StatusConnected || sess == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame %q: %w", frame.Type, err)
	}
	queued, open := sess.enqueue(data)
	if !open {
		return ErrNotConnected
	}
	if !queued {
		m.logger.Warn("outbound buffer full, frame dropped", "type", frame.Type)
	}
	return nil
}

func (m *ConnectionManager) dial(ctx context.Context) error {
	dialURL, err := m.dialURL()
	if err != nil {
		m.mu.Lock()
		m.setStatusLocked(models.StatusError)
		m.mu.Unlock()
		return err
	}

	conn, resp, err := m.dialer.DialContext(ctx, dialURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		m.mu.Lock()
		m.setStatusLocked(models.StatusError)
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		return fmt.Errorf("dial %s: %w", m.endpoint, err)
	}

	sess := &wsSession{conn: conn, send: make(chan []byte, sendBufferSize)}

	m.mu.Lock()
	if m.closed {
		// Disconnect raced the dial; drop the fresh socket.
		m.mu.Unlock()
		sess.close()
		return nil
	}
	m.sess = sess
	m.attempts = 0
	m.setStatusLocked(models.StatusConnected)
	m.mu.Unlock()

	go m.readPump(sess)
	go m.writePump(sess)
	return nil
}

func (m *ConnectionManager) dialURL() (string, error) {
	u, err := url.Parse(m.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %s: %w", m.endpoint, err)
	}
	q := u.Query()
	q.Set("token", m.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (m *ConnectionManager) readPump(sess *wsSession) {
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Warn("socket read failed", "error", err)
			}
			break
		}
		if m.onFrame != nil {
			m.onFrame(data)
		}
	}
	m.sessionClosed(sess)
}

func (m *ConnectionManager) writePump(sess *wsSession) {
	for data := range sess.send {
		if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			m.logger.Warn("socket write failed", "error", err)
			m.sessionClosed(sess)
			return
		}
	}
}

// sessionClosed tears down a session after a pump failure. Stale sessions
// from a previous connection are ignored.
func (m *ConnectionManager) sessionClosed(sess *wsSession) {
	sess.close()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess != sess {
		return
	}
	m.sess = nil
	m.setStatusLocked(models.StatusDisconnected)
	if !m.closed {
		m.scheduleReconnectLocked()
	}
}

func (m *ConnectionManager) scheduleReconnectLocked() {
	if m.closed {
		return
	}
	if m.policy.MaxAttempts > 0 && m.attempts >= m.policy.MaxAttempts {
		m.logger.Warn("reconnect attempts exhausted", "attempts", m.attempts)
		return
	}
	m.attempts++
	delay := m.policy.nextDelay(m.attempts)
	m.stopReconnectLocked()
	m.reconnect = time.AfterFunc(delay, m.retry)
	m.logger.Info("reconnect scheduled", "delay", delay, "attempt", m.attempts)
}

func (m *ConnectionManager) stopReconnectLocked() {
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
}

func (m *ConnectionManager) retry() {
	m.mu.Lock()
	if m.closed || m.sess != nil {
		m.mu.Unlock()
		return
	}
	m.setStatusLocked(models.StatusConnecting)
	m.mu.Unlock()

	if err := m.dial(context.Background()); err != nil {
		m.logger.Warn("reconnect attempt failed", "error", err)
	}
}

func (m *ConnectionManager) setStatusLocked(status models.ConnectionStatus) {
	if m.status == status {
		return
	}
	m.status = status
	if m.onStatus != nil {
		m.onStatus(status)
	}
}
