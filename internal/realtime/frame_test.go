package realtime

import (
	"errors"
	"testing"
)

func TestDecodeState(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    string
		match   string
	}{
		{
			name:    "nested game_state",
			payload: `{"type":"game_state","match_id":12,"game_state":{"pads":{"player1":{"x":10,"y":100},"player2":{"x":770,"y":200}},"ball":{"x":400,"y":275},"score":{"player1":2,"player2":1}}}`,
			kind:    "game_state",
			match:   "12",
		},
		{
			name:    "top level update",
			payload: `{"type":"game_update","match_id":"12","pads":{"player1":{"x":10,"y":100},"player2":{"x":770,"y":200}},"ball":{"x":400,"y":275},"score":{"player1":2,"player2":1}}`,
			kind:    "game_update",
			match:   "12",
		},
		{
			name:    "untyped",
			payload: `{"pads":{"player1":{"x":10,"y":100},"player2":{"x":770,"y":200}},"ball":{"x":400,"y":275},"score":{"player1":2,"player2":1}}`,
			kind:    "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Decode([]byte(tc.payload))
			if err != nil {
				t.Fatalf("Decode() failed: %v", err)
			}
			sf, ok := f.(StateFrame)
			if !ok {
				t.Fatalf("Decode() = %T, expected StateFrame", f)
			}
			if sf.Kind != tc.kind || sf.MatchID != tc.match {
				t.Errorf("kind=%q match=%q, expected %q %q", sf.Kind, sf.MatchID, tc.kind, tc.match)
			}
			s := sf.Snapshot
			if s.Paddles[0].Y != 100 || s.Paddles[1].X != 770 || s.Ball.X != 400 {
				t.Errorf("snapshot = %+v", s)
			}
			if s.Score.Left != 2 || s.Score.Right != 1 {
				t.Errorf("score = %+v, expected 2-1", s.Score)
			}
			if s.Court.Height != 550 {
				t.Errorf("court height = %v, expected server court 550", s.Court.Height)
			}
		})
	}
}

func TestDecodeMalformedState(t *testing.T) {
	payloads := []string{
		`{"type":"game_state","game_state":{"pads":{"player2":{"x":770,"y":0}},"ball":{"x":1,"y":1}}}`,
		`{"type":"game_state","game_state":{"pads":{"player1":{"x":10,"y":0}},"ball":{"x":1,"y":1}}}`,
		`{"type":"game_update","pads":{"player1":{"x":10,"y":0},"player2":{"x":770,"y":0}}}`,
		`{"type":"game_state","game_state":"nope"}`,
		`not json`,
	}
	for _, p := range payloads {
		if _, err := Decode([]byte(p)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%s) error = %v, expected ErrMalformed", p, err)
		}
	}
}

func TestDecodePlayerInfo(t *testing.T) {
	f, err := Decode([]byte(`{"type":"match_created","match_id":"m1","player_number":2,"opponent":"bob",
		"game_state":{"pads":{"player1":{"x":10,"y":0},"player2":{"x":770,"y":0}},"ball":{"x":1,"y":1},
		"player_info":{"player1":{"username":"bob","elo":1010},"player2":{"username":"amy","elo":990}}}}`))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	mc, ok := f.(MatchCreated)
	if !ok {
		t.Fatalf("Decode() = %T, expected MatchCreated", f)
	}
	if mc.MatchID != "m1" || mc.PlayerNumber != 2 || mc.Opponent != "bob" {
		t.Errorf("MatchCreated = %+v", mc)
	}
	if mc.Snapshot == nil {
		t.Fatal("expected initial snapshot")
	}
	if p := mc.Snapshot.Players[1]; p.Name != "amy" || p.Elo != 990 {
		t.Errorf("player 2 = %+v, expected amy (990)", p)
	}
}

func TestDecodeControlFrames(t *testing.T) {
	tests := []struct {
		payload string
		check   func(t *testing.T, f Frame)
	}{
		{`{"type":"game_over","winner":"amy","match_id":"m1"}`, func(t *testing.T, f Frame) {
			if g, ok := f.(GameOver); !ok || g.Winner != "amy" || g.MatchID != "m1" {
				t.Errorf("got %#v", f)
			}
		}},
		{`{"type":"player_left","player_username":"bob","message":"bye"}`, func(t *testing.T, f Frame) {
			if p, ok := f.(PlayerLeft); !ok || p.Player != "bob" || p.Message != "bye" {
				t.Errorf("got %#v", f)
			}
		}},
		{`{"type":"queue_message","message":"searching","queue_position":3}`, func(t *testing.T, f Frame) {
			if w, ok := f.(Waiting); !ok || w.QueuePosition != 3 || w.Kind != "queue_message" {
				t.Errorf("got %#v", f)
			}
		}},
		{`{"type":"tournament_state","tournament_id":5,"players":[{"username":"a"},{"username":"b"}],"waiting":2,"your_position":1}`, func(t *testing.T, f Frame) {
			ts, ok := f.(TournamentState)
			if !ok || ts.TournamentID != "5" || len(ts.Players) != 2 || ts.Waiting != 2 || ts.YourPosition != 1 {
				t.Errorf("got %#v", f)
			}
		}},
		{`{"type":"tournament_state","players":["a","b","c"],"waiting":true}`, func(t *testing.T, f Frame) {
			ts, ok := f.(TournamentState)
			if !ok || len(ts.Players) != 3 || ts.Waiting != 1 {
				t.Errorf("got %#v", f)
			}
		}},
		{`{"type":"tournament_rankings","complete":true,"rankings":[{"username":"a","points":6},{"player":"b","rank":2}]}`, func(t *testing.T, f Frame) {
			tr, ok := f.(TournamentRankings)
			if !ok || !tr.Complete || len(tr.Rankings) != 2 {
				t.Fatalf("got %#v", f)
			}
			if tr.Rankings[0].Position != 1 || tr.Rankings[0].Player != "a" || tr.Rankings[1].Player != "b" || tr.Rankings[1].Position != 2 {
				t.Errorf("rankings = %+v", tr.Rankings)
			}
		}},
		{`{"type":"error","message":"bad token"}`, func(t *testing.T, f Frame) {
			if n, ok := f.(Notice); !ok || !n.IsError || n.Message != "bad token" {
				t.Errorf("got %#v", f)
			}
		}},
		{`{"type":"finals_starting"}`, func(t *testing.T, f Frame) {
			if n, ok := f.(Notice); !ok || n.IsError || n.Kind != "finals_starting" {
				t.Errorf("got %#v", f)
			}
		}},
		{`{"type":"confetti"}`, func(t *testing.T, f Frame) {
			if u, ok := f.(Unknown); !ok || u.Kind != "confetti" {
				t.Errorf("got %#v", f)
			}
		}},
	}

	for _, tc := range tests {
		f, err := Decode([]byte(tc.payload))
		if err != nil {
			t.Errorf("Decode(%s) failed: %v", tc.payload, err)
			continue
		}
		tc.check(t, f)
	}
}
