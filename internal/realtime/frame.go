package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vovakirdan/tui-pong/internal/games/pong"
)

// ErrMalformed is returned by Decode for frames that cannot be used.
var ErrMalformed = errors.New("realtime: malformed frame")

// Frame is an inbound message from the match authority.
type Frame interface {
	frame()
}

// StateFrame carries a complete match state.
type StateFrame struct {
	Kind     string // game_state, game_update, or empty for untyped frames
	MatchID  string
	Snapshot pong.Snapshot
}

// MatchCreated announces the match this client plays in.
type MatchCreated struct {
	MatchID      string
	PlayerNumber int
	Opponent     string
	Snapshot     *pong.Snapshot // initial state, if sent
}

// GameOver ends the match.
type GameOver struct {
	MatchID string
	Winner  string
	Message string
}

// PlayerLeft reports that the opponent forfeited.
type PlayerLeft struct {
	MatchID string
	Player  string
	Message string
}

// Waiting is a matchmaking or lobby status update.
type Waiting struct {
	Kind          string
	Message       string
	QueuePosition int
}

// MatchResult is a finished tournament match.
type MatchResult struct {
	MatchID       string
	Winner        string
	WinnerDisplay string
	Message       string
}

// TournamentState describes the tournament lobby.
type TournamentState struct {
	TournamentID string
	Players      []string
	Waiting      int
	Message      string
	YourPosition int
}

// Ranking is one line of the final standings.
type Ranking struct {
	Position int
	Player   string
	Points   int
}

// TournamentRankings carries the standings.
type TournamentRankings struct {
	Rankings []Ranking
	Complete bool
	Message  string
}

// Notice is an informational or error message to show the user.
type Notice struct {
	Kind    string
	Message string
	IsError bool
}

// Unknown is any frame type this client does not understand.
type Unknown struct {
	Kind string
}

func (StateFrame) frame()         {}
func (MatchCreated) frame()       {}
func (GameOver) frame()           {}
func (PlayerLeft) frame()         {}
func (Waiting) frame()            {}
func (MatchResult) frame()        {}
func (TournamentState) frame()    {}
func (TournamentRankings) frame() {}
func (Notice) frame()             {}
func (Unknown) frame()            {}

// FrameMatchID returns the match a frame belongs to, or "" if it is not scoped
// to a match.
func FrameMatchID(f Frame) string {
	switch f := f.(type) {
	case StateFrame:
		return f.MatchID
	case MatchCreated:
		return f.MatchID
	case GameOver:
		return f.MatchID
	case PlayerLeft:
		return f.MatchID
	case MatchResult:
		return f.MatchID
	}
	return ""
}

// Decode parses one inbound message. State frames missing either paddle or
// the ball fail with ErrMalformed.
func Decode(data []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case "", "game_state", "game_update":
		raw := json.RawMessage(data)
		if len(env.GameState) > 0 {
			raw = env.GameState
		}
		snap, err := decodeState(raw)
		if err != nil {
			return nil, err
		}
		return StateFrame{Kind: env.Type, MatchID: string(env.MatchID), Snapshot: snap}, nil

	case "match_created":
		mc := MatchCreated{
			MatchID:      string(env.MatchID),
			PlayerNumber: env.PlayerNumber,
			Opponent:     text(env.Opponent),
		}
		if len(env.GameState) > 0 {
			if snap, err := decodeState(env.GameState); err == nil {
				mc.Snapshot = &snap
			}
		}
		return mc, nil

	case "game_over":
		return GameOver{MatchID: string(env.MatchID), Winner: string(env.Winner), Message: env.Message}, nil

	case "player_left":
		return PlayerLeft{MatchID: string(env.MatchID), Player: env.PlayerUsername, Message: env.Message}, nil

	case "waiting", "matchmaking_status", "queue_message", "waiting_for_opponent", "waiting_for_creator":
		return Waiting{Kind: env.Type, Message: env.Message, QueuePosition: env.QueuePosition}, nil

	case "match_result":
		return MatchResult{
			MatchID:       string(env.MatchID),
			Winner:        string(env.Winner),
			WinnerDisplay: env.WinnerDisplay,
			Message:       env.Message,
		}, nil

	case "tournament_state":
		return TournamentState{
			TournamentID: string(env.TournamentID),
			Players:      names(env.Players),
			Waiting:      count(env.Waiting),
			Message:      env.Message,
			YourPosition: env.YourPosition,
		}, nil

	case "tournament_rankings":
		return TournamentRankings{
			Rankings: decodeRankings(env.Rankings),
			Complete: env.Complete,
			Message:  env.Message,
		}, nil

	case "finals_starting", "third_place_starting", "tournament_cancelled", "tournament_left",
		"matchmaking_cancelled", "authenticated", "friend_invite_sent":
		return Notice{Kind: env.Type, Message: env.Message}, nil

	case "error", "friend_invite_error":
		return Notice{Kind: env.Type, Message: env.Message, IsError: true}, nil
	}

	return Unknown{Kind: env.Type}, nil
}

func decodeState(raw json.RawMessage) (pong.Snapshot, error) {
	var ws wireState
	if err := json.Unmarshal(raw, &ws); err != nil {
		return pong.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch {
	case ws.Pads.Player1 == nil:
		return pong.Snapshot{}, fmt.Errorf("%w: missing pads.player1", ErrMalformed)
	case ws.Pads.Player2 == nil:
		return pong.Snapshot{}, fmt.Errorf("%w: missing pads.player2", ErrMalformed)
	case ws.Ball == nil:
		return pong.Snapshot{}, fmt.Errorf("%w: missing ball", ErrMalformed)
	}

	snap := pong.Snapshot{
		Court: pong.ServerCourt(),
		Phase: pong.PhaseRunning,
		Score: pong.Score{Left: ws.Score.Player1, Right: ws.Score.Player2},
	}
	snap.Paddles[0].X = ws.Pads.Player1.X
	snap.Paddles[0].Y = ws.Pads.Player1.Y
	snap.Paddles[1].X = ws.Pads.Player2.X
	snap.Paddles[1].Y = ws.Pads.Player2.Y
	snap.Ball.X = ws.Ball.X
	snap.Ball.Y = ws.Ball.Y
	if pi := ws.PlayerInfo; pi != nil {
		snap.Players[0] = pong.Player{Name: pi.Player1.Username, Elo: int(pi.Player1.Elo)}
		snap.Players[1] = pong.Player{Name: pi.Player2.Username, Elo: int(pi.Player2.Elo)}
	}
	return snap, nil
}

func decodeRankings(raw json.RawMessage) []Ranking {
	if len(raw) == 0 {
		return nil
	}
	var wr []wireRanking
	if err := json.Unmarshal(raw, &wr); err != nil {
		return nil
	}
	out := make([]Ranking, 0, len(wr))
	for i, r := range wr {
		rk := Ranking{Position: r.Position, Player: r.Username, Points: r.Points}
		if rk.Position == 0 {
			rk.Position = r.Rank
		}
		if rk.Position == 0 {
			rk.Position = i + 1
		}
		if rk.Player == "" {
			rk.Player = string(r.Player)
		}
		out = append(out, rk)
	}
	return out
}
