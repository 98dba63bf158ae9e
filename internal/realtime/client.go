// Package realtime is the WebSocket client for the remote match authority.
//
// The authority owns the match; the client only forwards paddle directions and
// keeps the most recent state it was sent. Snapshots replace each other whole.
// An unexpected close schedules exactly one reconnect; Close never reconnects.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-pong/internal/clock"
	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
)

var (
	// ErrUnauthorized is returned when the authority rejects the token.
	ErrUnauthorized = errors.New("realtime: unauthorized")
	// ErrNotConnected is returned by sends while no socket is open.
	ErrNotConnected = errors.New("realtime: not connected")
)

// Defaults.
const (
	DefaultReconnectDelay = time.Second
	DefaultPingPeriod     = 30 * time.Second
	DefaultPongWait       = 60 * time.Second
	DefaultWriteWait      = 10 * time.Second
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosingIntentionally
	// StateUnauthorized means the authority rejected the token. The client
	// does not retry from here.
	StateUnauthorized
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosingIntentionally:
		return "closed"
	case StateUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Protocol selects the outbound input message shape.
type Protocol int

const (
	// ProtocolMatch sends {"input": d}.
	ProtocolMatch Protocol = iota
	// ProtocolTournament sends {"type": "player_input", "input": d}.
	ProtocolTournament
)

// Config configures a Client.
type Config struct {
	URL      string // ws:// or wss:// endpoint
	Token    string // sent as the token query parameter
	Protocol Protocol

	ReconnectDelay time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration

	Dialer *websocket.Dialer
	Clock  clock.Clock
	Logger *log.Logger

	// OnOpen runs after every successful (re)connect, before frames are read.
	OnOpen func(c *Client)
}

// Client is a reconnecting WebSocket client. It is safe for concurrent use.
type Client struct {
	cfg Config
	log *log.Logger

	mu          sync.Mutex
	ctx         context.Context
	conn        *websocket.Conn
	state       State
	latest      pong.Snapshot
	hasLatest   bool
	activeMatch string
	reconnect   clock.Timer
	frameFns    []func(Frame)
	stateFns    []func(State)
	updates     uint64

	writeMu sync.Mutex
}

// New creates a disconnected client.
func New(cfg Config) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = DefaultPingPeriod
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = DefaultPongWait
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = DefaultWriteWait
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	cfg.Clock = clock.OrReal(cfg.Clock)
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		cfg: cfg,
		log: logger.WithPrefix("realtime"),
		ctx: context.Background(),
	}
}

// OnFrame registers fn to receive every accepted inbound frame.
// Handlers run on the read goroutine and must not block.
func (c *Client) OnFrame(fn func(Frame)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameFns = append(c.frameFns, fn)
}

// OnState registers fn to receive connection state changes.
func (c *Client) OnState(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateFns = append(c.stateFns, fn)
}

// State returns the connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Latest returns the last state received. ok is false before the first one.
func (c *Client) Latest() (snap pong.Snapshot, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.hasLatest
}

// SetActiveMatch restricts accepted frames to one match. An empty id accepts
// every match.
func (c *Client) SetActiveMatch(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeMatch = id
}

// ActiveMatch returns the match frames are filtered by.
func (c *Client) ActiveMatch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeMatch
}

// Connect dials the authority. ctx bounds the dial and every later reconnect.
// A rejected token returns ErrUnauthorized and moves to StateUnauthorized
// without a retry; any other failure schedules a reconnect and is returned
// wrapped. A reconnect rejected the same way is reported only through
// StateUnauthorized.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateClosingIntentionally {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.ctx = ctx
	c.mu.Unlock()
	return c.dial()
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("realtime: bad url %q: %w", c.cfg.URL, err)
	}
	if c.cfg.Token != "" {
		q := u.Query()
		q.Set("token", c.cfg.Token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) dial() error {
	c.mu.Lock()
	if c.state == StateClosingIntentionally || c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	ctx := c.ctx
	notify := c.setStateLocked(StateConnecting)
	c.mu.Unlock()
	notify()

	endpoint, err := c.endpoint()
	if err != nil {
		c.mu.Lock()
		notify = c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		notify()
		return err
	}

	conn, resp, err := c.cfg.Dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			c.log.Warn("handshake rejected", "status", resp.StatusCode)
			c.mu.Lock()
			notify = c.setStateLocked(StateUnauthorized)
			c.mu.Unlock()
			notify()
			return ErrUnauthorized
		}
		c.log.Debug("dial failed", "err", err)
		c.connectionLost(nil)
		return fmt.Errorf("realtime: cannot dial: %w", err)
	}

	c.mu.Lock()
	if c.state == StateClosingIntentionally {
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	notify = c.setStateLocked(StateConnected)
	c.mu.Unlock()
	notify()
	c.log.Info("connected", "url", c.cfg.URL)

	if c.cfg.OnOpen != nil {
		c.cfg.OnOpen(c)
	}

	done := make(chan struct{})
	go c.readLoop(conn, done)
	go c.pingLoop(conn, done)
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info("connection closed by server")
			} else {
				c.log.Debug("read failed", "err", err)
			}
			c.connectionLost(conn)
			return
		}
		conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		c.handle(data)
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				c.log.Debug("ping failed", "err", err)
			}
		}
	}
}

// handle decodes and dispatches one inbound message.
func (c *Client) handle(data []byte) {
	f, err := Decode(data)
	if err != nil {
		c.log.Debug("dropping frame", "err", err)
		return
	}
	if u, ok := f.(Unknown); ok {
		c.log.Debug("ignoring frame", "type", u.Kind)
		return
	}

	c.mu.Lock()
	if mc, ok := f.(MatchCreated); ok && mc.MatchID != "" {
		c.activeMatch = mc.MatchID
	}
	if id := FrameMatchID(f); id != "" && c.activeMatch != "" && id != c.activeMatch {
		c.mu.Unlock()
		c.log.Debug("dropping frame for other match", "match", id, "active", c.activeMatch)
		return
	}
	switch f := f.(type) {
	case StateFrame:
		c.applyLocked(f.Snapshot)
	case MatchCreated:
		// A new match starts from nothing: the previous opponent's player
		// info must not leak into it.
		c.latest, c.hasLatest = pong.Snapshot{}, false
		if f.Snapshot != nil {
			c.applyLocked(*f.Snapshot)
		}
	}
	fns := append([]func(Frame){}, c.frameFns...)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(f)
	}
}

// applyLocked replaces the latest snapshot. Player info persists across
// frames that omit it.
func (c *Client) applyLocked(snap pong.Snapshot) {
	if snap.Players == [2]pong.Player{} && c.hasLatest {
		snap.Players = c.latest.Players
	}
	c.updates++
	snap.Tick = c.updates
	c.latest = snap
	c.hasLatest = true
}

// connectionLost handles an unexpected close of conn (nil for a failed dial)
// and schedules a reconnect. A pending reconnect is replaced, never stacked.
func (c *Client) connectionLost(conn *websocket.Conn) {
	c.mu.Lock()
	if conn != nil {
		if c.conn != conn {
			c.mu.Unlock()
			return
		}
		conn.Close()
		c.conn = nil
	}
	if c.state == StateClosingIntentionally {
		c.mu.Unlock()
		return
	}
	notify := c.setStateLocked(StateDisconnected)
	if c.reconnect != nil {
		c.reconnect.Stop()
	}
	c.reconnect = c.cfg.Clock.AfterFunc(c.cfg.ReconnectDelay, c.redial)
	c.mu.Unlock()
	notify()
	c.log.Info("connection lost, reconnecting", "delay", c.cfg.ReconnectDelay)
}

func (c *Client) redial() {
	c.mu.Lock()
	c.reconnect = nil
	ctx := c.ctx
	c.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	switch err := c.dial(); {
	case errors.Is(err, ErrUnauthorized):
		c.log.Warn("reconnect rejected, giving up")
	case err != nil:
		c.log.Debug("reconnect failed", "err", err)
	}
}

func (c *Client) setStateLocked(s State) func() {
	if c.state == s {
		return func() {}
	}
	c.state = s
	fns := append([]func(State){}, c.stateFns...)
	return func() {
		for _, fn := range fns {
			fn(s)
		}
	}
}

// Close shuts the connection down for good: no reconnect follows.
// Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	notify := c.setStateLocked(StateClosingIntentionally)
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	notify()

	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	if cerr := conn.Close(); err == nil {
		err = cerr
	}
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("realtime: close: %w", err)
	}
	return nil
}

func (c *Client) send(v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	if err := conn.WriteJSON(v); err != nil {
		return fmt.Errorf("realtime: write: %w", err)
	}
	return nil
}

// SendInput sends the current paddle direction.
func (c *Client) SendInput(dir core.Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("realtime: invalid direction %d", dir)
	}
	if c.cfg.Protocol == ProtocolTournament {
		return c.send(playerInputMessage{Type: "player_input", Input: int(dir)})
	}
	return c.send(inputMessage{Input: int(dir)})
}

// FindMatch asks the authority for an opponent.
func (c *Client) FindMatch() error {
	return c.send(typedMessage{Type: "find_match"})
}

// DeclareForfeit concedes matchID.
func (c *Client) DeclareForfeit(matchID string) error {
	return c.send(forfeitMessage{Type: "declare_forfeit", MatchID: matchID})
}

// CreateTournament joins or opens a tournament lobby.
func (c *Client) CreateTournament() error {
	return c.send(typedMessage{Type: "create_tournament"})
}

// LeaveTournament leaves the tournament lobby.
func (c *Client) LeaveTournament() error {
	return c.send(typedMessage{Type: "leave_tournament"})
}
