package core

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pkt.systems/pslog"
	"pkt.systems/traindeck/schema"
)

// Channel timing defaults. The reconnect schedule is a capped
// exponential; the remote controller is a single process and must not
// be hammered after an outage.
const (
	DefaultDialTimeout      = 10 * time.Second
	DefaultReconnectInitial = 1 * time.Second
	DefaultReconnectMax     = 30 * time.Second
	statusRefreshTimeout    = 10 * time.Second
)

// ChannelConfig configures the live session channel.
type ChannelConfig struct {
	// URL is the websocket endpoint, e.g. ws://host:8000/ws. The
	// session id is appended as the client_id query parameter.
	URL string
	// SessionID overrides the generated session id. Tests only.
	SessionID schema.SessionID
	// DialTimeout bounds one transport-level connect attempt.
	DialTimeout time.Duration
	// ReconnectInitial and ReconnectMax bound the backoff schedule.
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
}

// Channel owns the single bidirectional connection to the training
// controller. It drives the connection state machine and is the sole
// writer of the session State.
type Channel struct {
	cfg    ChannelConfig
	state  *State
	dialer Dialer
	status StatusFetcher
	log    pslog.Logger

	mu          sync.Mutex
	phase       schema.ConnectionPhase
	conn        Conn
	dialing     bool
	closed      bool
	wasDegraded bool
	retryTimer  *time.Timer
	retry       *backoff.ExponentialBackOff
	ctx         context.Context
}

// NewChannel constructs a channel bound to state. State transitions
// and inbound events flow exclusively through the returned channel.
func NewChannel(cfg ChannelConfig, state *State, deps ChannelDeps) *Channel {
	if cfg.SessionID == "" {
		cfg.SessionID = schema.SessionID(uuid.NewString())
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ReconnectInitial <= 0 {
		cfg.ReconnectInitial = DefaultReconnectInitial
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = DefaultReconnectMax
	}
	dialer := deps.Dialer
	if dialer == nil {
		dialer = newGorillaDialer(cfg.DialTimeout)
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = cfg.ReconnectInitial
	retry.MaxInterval = cfg.ReconnectMax
	return &Channel{
		cfg:    cfg,
		state:  state,
		dialer: dialer,
		status: deps.Status,
		log:    logger.With("session", cfg.SessionID),
		phase:  schema.PhaseDisconnected,
		retry:  retry,
	}
}

// SessionID returns the client-generated session identifier.
func (c *Channel) SessionID() schema.SessionID {
	return c.cfg.SessionID
}

// Connect starts a connection attempt. Calling it while an attempt is
// in flight or a connection is open is a no-op; racing initialization
// must not register duplicate sessions server-side.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return schema.ErrChannelClosed
	}
	if c.dialing || c.phase == schema.PhaseConnecting || c.phase == schema.PhaseConnected {
		return nil
	}
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.ctx = ctx
	c.beginDialLocked()
	return nil
}

// Disconnect tears the channel down. It cancels any pending reconnect
// and suppresses reconnection for whatever close the transport
// reports afterwards. The channel cannot be reused.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.setPhaseLocked(schema.PhaseDisconnected)
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect")
		if wc, ok := conn.(interface {
			WriteControl(messageType int, data []byte, deadline time.Time) error
		}); ok {
			_ = wc.WriteControl(websocket.CloseMessage, msg, deadline)
		}
		_ = conn.Close()
	}
	c.log.Info("channel disconnected", "reason", schema.CloseByRequest)
}

// beginDialLocked moves to connecting and launches the dial goroutine.
// Caller holds c.mu.
func (c *Channel) beginDialLocked() {
	c.dialing = true
	c.setPhaseLocked(schema.PhaseConnecting)
	ctx := c.ctx
	go c.dial(ctx)
}

func (c *Channel) dial(ctx context.Context) {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	conn, err := c.dialer.DialContext(dialCtx, c.endpoint())
	cancel()

	c.mu.Lock()
	c.dialing = false
	if c.closed {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.log.Warn("channel dial failed", "err", err)
		c.setPhaseLocked(schema.PhaseDegraded)
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}
	c.conn = conn
	degraded := c.wasDegraded
	c.wasDegraded = false
	c.setPhaseLocked(schema.PhaseConnected)
	c.retry.Reset()
	c.mu.Unlock()

	c.log.Info("channel connected")
	if degraded && c.status != nil {
		go c.refreshSnapshot(ctx)
	}
	go c.readLoop(conn)
}

// endpoint builds the dial URL with the session id attached.
func (c *Channel) endpoint() string {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return c.cfg.URL
	}
	q := u.Query()
	q.Set("client_id", string(c.cfg.SessionID))
	u.RawQuery = q.Encode()
	return u.String()
}

// readLoop is the only writer of State. Events apply strictly in
// arrival order; reordering would let a stale in-flight update
// overwrite a terminal event.
func (c *Channel) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClosed(classifyClose(err))
			return
		}
		var env schema.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn("channel dropped undecodable envelope", "err", err, "len", len(data))
			continue
		}
		switch env.Type {
		case schema.EventHeartbeat:
			c.sendPing(conn)
		case schema.EventPong:
			// Liveness answer only.
		case schema.EventConnectionEstablished:
			c.log.Debug("session confirmed by server")
		default:
			if err := c.state.apply(env); err != nil {
				c.log.Warn("channel dropped malformed event", "type", env.Type, "err", err)
			}
		}
	}
}

func (c *Channel) sendPing(conn Conn) {
	payload, err := json.Marshal(schema.NewPing())
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.log.Warn("heartbeat reply failed", "err", err)
	}
}

// handleClosed consumes a transport close. Explicit teardown and
// normal closes end in disconnected; everything else degrades and
// schedules a reconnect.
func (c *Channel) handleClosed(reason schema.CloseReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = nil
	if c.closed {
		return
	}
	if reason != schema.CloseAbnormal {
		c.log.Info("channel closed", "reason", reason)
		c.setPhaseLocked(schema.PhaseDisconnected)
		return
	}
	c.log.Warn("channel degraded", "reason", reason)
	c.wasDegraded = true
	c.setPhaseLocked(schema.PhaseDegraded)
	c.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the backoff timer. Caller holds c.mu.
func (c *Channel) scheduleReconnectLocked() {
	delay := c.retry.NextBackOff()
	c.log.Debug("reconnect scheduled", "delay", delay)
	c.retryTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.retryTimer = nil
		if c.closed || c.dialing || c.phase == schema.PhaseConnected {
			return
		}
		c.setPhaseLocked(schema.PhaseReconnecting)
		c.beginDialLocked()
	})
}

// refreshSnapshot pulls the server's status after an outage so the
// snapshot does not stay silently stale for the disconnected window.
func (c *Channel) refreshSnapshot(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, statusRefreshTimeout)
	defer cancel()
	report, err := c.status.Status(reqCtx)
	if err != nil {
		c.log.Warn("post-reconnect status refresh failed", "err", err)
		return
	}
	c.state.mergeStatus(report)
	c.log.Debug("snapshot refreshed after reconnect")
}

func (c *Channel) setPhaseLocked(phase schema.ConnectionPhase) {
	c.phase = phase
	c.state.setConnection(phase, c.cfg.SessionID)
}

// classifyClose decides the close reason at the transport boundary so
// the state machine never inspects close codes directly.
func classifyClose(err error) schema.CloseReason {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return schema.CloseNormal
	}
	return schema.CloseAbnormal
}
