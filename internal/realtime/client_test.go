package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tui-pong/internal/clock"
	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
)

type testServer struct {
	*httptest.Server
	conns  chan *websocket.Conn
	mu     sync.Mutex
	tokens []string
	reject int
}

func newTestServer(t *testing.T, reject int) *testServer {
	t.Helper()
	ts := &testServer{conns: make(chan *websocket.Conn, 8), reject: reject}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.tokens = append(ts.tokens, r.URL.Query().Get("token"))
		reject := ts.reject
		ts.mu.Unlock()
		if reject != 0 {
			http.Error(w, "nope", reject)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ts.conns <- conn
	}))
	t.Cleanup(ts.Close)
	return ts
}

// rejectWith makes every later handshake fail with status.
func (ts *testServer) rejectWith(status int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.reject = status
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/pong/"
}

func (ts *testServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-ts.conns:
		t.Cleanup(func() { c.Close() })
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no connection accepted")
		return nil
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func readJSON(t *testing.T, c *websocket.Conn) map[string]any {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m map[string]any
	if err := c.ReadJSON(&m); err != nil {
		t.Fatalf("server read failed: %v", err)
	}
	return m
}

func TestConnectSendsTokenAndReceivesState(t *testing.T) {
	ts := newTestServer(t, 0)
	clk := clock.NewFake(time.Unix(0, 0))
	c := New(Config{URL: ts.wsURL(), Token: "secret", Clock: clk})
	t.Cleanup(func() { c.Close() })

	frames := make(chan Frame, 4)
	c.OnFrame(func(f Frame) { frames <- f })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	srv := ts.accept(t)
	if c.State() != StateConnected {
		t.Errorf("State() = %v, expected connected", c.State())
	}

	ts.mu.Lock()
	token := ts.tokens[0]
	ts.mu.Unlock()
	if token != "secret" {
		t.Errorf("token = %q, expected secret", token)
	}

	srv.WriteMessage(websocket.TextMessage, []byte(`{"type":"game_state","game_state":{"pads":{}}}`))
	srv.WriteMessage(websocket.TextMessage, []byte(
		`{"type":"game_state","game_state":{"pads":{"player1":{"x":10,"y":42},"player2":{"x":770,"y":0}},"ball":{"x":400,"y":275},"score":{"player1":1,"player2":0}}}`))

	select {
	case f := <-frames:
		sf, ok := f.(StateFrame)
		if !ok {
			t.Fatalf("frame = %T, expected StateFrame (malformed frame should be dropped)", f)
		}
		if sf.Snapshot.Paddles[0].Y != 42 {
			t.Errorf("paddle y = %v, expected 42", sf.Snapshot.Paddles[0].Y)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
	}

	snap, ok := c.Latest()
	if !ok || snap.Score.Left != 1 {
		t.Errorf("Latest() = %+v, %v", snap, ok)
	}
}

func TestUnauthorizedHandshake(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		ts := newTestServer(t, status)
		clk := clock.NewFake(time.Unix(0, 0))
		c := New(Config{URL: ts.wsURL(), Clock: clk})

		err := c.Connect(context.Background())
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("status %d: Connect() = %v, expected ErrUnauthorized", status, err)
		}
		if clk.Pending() != 0 {
			t.Errorf("status %d: pending reconnects = %d, expected 0", status, clk.Pending())
		}
		if c.State() != StateUnauthorized {
			t.Errorf("status %d: State() = %v, expected unauthorized", status, c.State())
		}
	}
}

func TestDialFailureSchedulesReconnect(t *testing.T) {
	ts := newTestServer(t, http.StatusInternalServerError)
	clk := clock.NewFake(time.Unix(0, 0))
	c := New(Config{URL: ts.wsURL(), Clock: clk})

	if err := c.Connect(context.Background()); err == nil || errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Connect() = %v, expected a dial error", err)
	}
	if clk.Pending() != 1 {
		t.Errorf("pending reconnects = %d, expected 1", clk.Pending())
	}
}

func TestReconnectTimerIsReplacedNotStacked(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	c := New(Config{URL: "ws://127.0.0.1:1/", Clock: clk})

	c.connectionLost(nil)
	if clk.Pending() != 1 {
		t.Fatalf("pending after first close = %d, expected 1", clk.Pending())
	}
	c.connectionLost(nil)
	if clk.Pending() != 1 {
		t.Errorf("pending after second close = %d, expected 1", clk.Pending())
	}
}

func TestReconnectAfterServerClose(t *testing.T) {
	ts := newTestServer(t, 0)
	clk := clock.NewFake(time.Unix(0, 0))
	opened := 0
	var mu sync.Mutex
	c := New(Config{
		URL:   ts.wsURL(),
		Clock: clk,
		OnOpen: func(*Client) {
			mu.Lock()
			opened++
			mu.Unlock()
		},
	})
	t.Cleanup(func() { c.Close() })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	first := ts.accept(t)
	first.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart"))
	first.Close()

	waitFor(t, "disconnect", func() bool { return c.State() == StateDisconnected })
	if clk.Pending() != 1 {
		t.Fatalf("pending reconnects = %d, expected 1", clk.Pending())
	}

	clk.Advance(999 * time.Millisecond)
	if c.State() != StateDisconnected {
		t.Fatal("reconnected before the delay elapsed")
	}
	clk.Advance(time.Millisecond)
	ts.accept(t)
	if c.State() != StateConnected {
		t.Errorf("State() = %v, expected connected", c.State())
	}
	mu.Lock()
	defer mu.Unlock()
	if opened != 2 {
		t.Errorf("OnOpen ran %d times, expected 2", opened)
	}
}

func TestReconnectRejectedReportsUnauthorized(t *testing.T) {
	ts := newTestServer(t, 0)
	clk := clock.NewFake(time.Unix(0, 0))
	c := New(Config{URL: ts.wsURL(), Clock: clk})
	t.Cleanup(func() { c.Close() })

	states := make(chan State, 8)
	c.OnState(func(s State) { states <- s })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	first := ts.accept(t)

	// The token expires while connected; the next handshake is refused.
	ts.rejectWith(http.StatusUnauthorized)
	first.Close()
	waitFor(t, "disconnect", func() bool { return c.State() == StateDisconnected })

	clk.Advance(time.Second)
	waitFor(t, "unauthorized", func() bool { return c.State() == StateUnauthorized })
	if clk.Pending() != 0 {
		t.Errorf("pending reconnects = %d, expected none after rejection", clk.Pending())
	}

	var seen []State
	for len(states) > 0 {
		seen = append(seen, <-states)
	}
	if len(seen) == 0 || seen[len(seen)-1] != StateUnauthorized {
		t.Errorf("states = %v, expected listeners told unauthorized last", seen)
	}
}

func TestCloseIsIntentional(t *testing.T) {
	ts := newTestServer(t, 0)
	clk := clock.NewFake(time.Unix(0, 0))
	var states []State
	var mu sync.Mutex
	c := New(Config{URL: ts.wsURL(), Clock: clk})
	c.OnState(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	srv := ts.accept(t)

	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}

	srv.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := srv.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("server read = %v, expected normal closure", err)
	}

	clk.Advance(5 * time.Second)
	if clk.Pending() != 0 || c.State() != StateClosingIntentionally {
		t.Errorf("pending=%d state=%v, expected no reconnect", clk.Pending(), c.State())
	}
	if err := c.SendInput(core.DirUp); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SendInput() after Close = %v, expected ErrNotConnected", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateConnecting, StateConnected, StateClosingIntentionally}
	if len(states) != len(want) {
		t.Fatalf("states = %v, expected %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %v, expected %v", i, states[i], want[i])
		}
	}
}

func TestOutboundMessages(t *testing.T) {
	tests := []struct {
		name     string
		protocol Protocol
		send     func(c *Client) error
		want     map[string]any
	}{
		{"match input", ProtocolMatch, func(c *Client) error { return c.SendInput(core.DirUp) },
			map[string]any{"input": float64(-1)}},
		{"tournament input", ProtocolTournament, func(c *Client) error { return c.SendInput(core.DirDown) },
			map[string]any{"type": "player_input", "input": float64(1)}},
		{"find match", ProtocolMatch, (*Client).FindMatch,
			map[string]any{"type": "find_match"}},
		{"forfeit", ProtocolMatch, func(c *Client) error { return c.DeclareForfeit("m9") },
			map[string]any{"type": "declare_forfeit", "match_id": "m9"}},
		{"create tournament", ProtocolTournament, (*Client).CreateTournament,
			map[string]any{"type": "create_tournament"}},
		{"leave tournament", ProtocolTournament, (*Client).LeaveTournament,
			map[string]any{"type": "leave_tournament"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, 0)
			c := New(Config{URL: ts.wsURL(), Protocol: tc.protocol, Clock: clock.NewFake(time.Unix(0, 0))})
			t.Cleanup(func() { c.Close() })

			if err := tc.send(c); !errors.Is(err, ErrNotConnected) {
				t.Errorf("send before connect = %v, expected ErrNotConnected", err)
			}
			if err := c.Connect(context.Background()); err != nil {
				t.Fatalf("Connect() failed: %v", err)
			}
			srv := ts.accept(t)
			if err := tc.send(c); err != nil {
				t.Fatalf("send failed: %v", err)
			}
			got := readJSON(t, srv)
			gotJSON, _ := json.Marshal(got)
			wantJSON, _ := json.Marshal(tc.want)
			if string(gotJSON) != string(wantJSON) {
				t.Errorf("server got %s, expected %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestMatchFilter(t *testing.T) {
	c := New(Config{URL: "ws://unused/", Clock: clock.NewFake(time.Unix(0, 0))})
	var got []Frame
	c.OnFrame(func(f Frame) { got = append(got, f) })

	state := func(match string, y int) []byte {
		return []byte(`{"type":"game_state","match_id":"` + match + `","game_state":{"pads":{"player1":{"x":10,"y":` +
			itoa(y) + `},"player2":{"x":770,"y":0}},"ball":{"x":1,"y":1}}}`)
	}

	c.handle(state("a", 1)) // no active match yet: accepted
	c.handle([]byte(`{"type":"match_created","match_id":"m7","player_number":1}`))
	c.handle(state("m8", 2)) // other match: dropped
	c.handle(state("m7", 3))
	c.handle([]byte(`{"type":"game_over","match_id":"m8","winner":"x"}`)) // dropped
	c.handle([]byte(`{"type":"mystery"}`))                                  // ignored

	if c.ActiveMatch() != "m7" {
		t.Errorf("ActiveMatch() = %q, expected m7", c.ActiveMatch())
	}
	if len(got) != 3 {
		t.Fatalf("accepted %d frames, expected 3: %#v", len(got), got)
	}
	snap, _ := c.Latest()
	if snap.Paddles[0].Y != 3 {
		t.Errorf("Latest paddle y = %v, expected 3", snap.Paddles[0].Y)
	}
	if snap.Tick != 2 {
		t.Errorf("Latest tick = %d, expected 2 applied states", snap.Tick)
	}
}

func TestNewMatchDropsPreviousPlayers(t *testing.T) {
	c := New(Config{URL: "ws://unused/", Clock: clock.NewFake(time.Unix(0, 0))})

	pads := `"pads":{"player1":{"x":10,"y":1},"player2":{"x":770,"y":0}},"ball":{"x":1,"y":1}`
	c.handle([]byte(`{"type":"match_created","match_id":"semi"}`))
	c.handle([]byte(`{"type":"game_state","match_id":"semi","game_state":{` + pads +
		`,"player_info":{"player1":{"username":"alice","elo":1200},"player2":{"username":"bob","elo":1100}}}}`))
	c.handle([]byte(`{"type":"game_state","match_id":"semi","game_state":{` + pads + `}}`))

	snap, _ := c.Latest()
	if snap.Players[1].Name != "bob" {
		t.Fatalf("players within a match = %+v, expected bob carried forward", snap.Players)
	}

	c.handle([]byte(`{"type":"match_created","match_id":"final"}`))
	if _, ok := c.Latest(); ok {
		t.Error("Latest() still set after a new match was created")
	}
	c.handle([]byte(`{"type":"game_state","match_id":"final","game_state":{` + pads + `}}`))

	snap, ok := c.Latest()
	if !ok {
		t.Fatal("Latest() unset after a state for the new match")
	}
	if snap.Players != [2]pong.Player{} {
		t.Errorf("players in new match = %+v, expected none from the previous match", snap.Players)
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
