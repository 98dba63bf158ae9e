package pong

import "github.com/vovakirdan/tui-pong/internal/core"

// Player is a display name with an optional rating.
type Player struct {
	Name string
	Elo  int
}

// Snapshot is a read-only copy of a match for rendering.
// It holds values only, so it can cross goroutines freely.
type Snapshot struct {
	Court   Court
	Paddles [2]core.Vec2 // top-left corner of left and right paddle
	Ball    core.Vec2    // top-left corner of the ball
	Score   Score
	Players [2]Player
	Phase   Phase
	Winner  core.Side
	Rally   int
	Tick    uint64
}

// Snapshot returns the current state as a Snapshot.
func (e *Engine) Snapshot() Snapshot {
	c := e.settings.Court
	return Snapshot{
		Court: c,
		Paddles: [2]core.Vec2{
			{X: c.LeftPaddleX(), Y: e.state.Paddles[0].Y},
			{X: c.RightPaddleX(), Y: e.state.Paddles[1].Y},
		},
		Ball:    e.state.Ball.Pos,
		Score:   e.state.Score,
		Players: e.players,
		Phase:   e.phase,
		Winner:  e.winner,
		Rally:   e.state.Rally,
		Tick:    e.state.Tick,
	}
}
