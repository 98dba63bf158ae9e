package pong

import "github.com/vovakirdan/tui-pong/internal/core"

// Situation is what a Driver sees when asked to move its paddle.
type Situation struct {
	State    MatchState
	Settings Settings
	Side     core.Side
	DT       float64 // seconds since the previous tick
}

// PaddleY returns the y of the driven paddle.
func (s Situation) PaddleY() float64 {
	return s.State.Paddles[s.Side.Index()].Y
}

// Driver moves one paddle. Drive returns the vertical displacement for the
// current tick; the engine clamps the result to the court.
type Driver interface {
	Drive(s Situation) float64
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(s Situation) float64

// Drive calls f(s).
func (f DriverFunc) Drive(s Situation) float64 {
	return f(s)
}

// DirectionSource reports the held direction for a side.
type DirectionSource interface {
	Direction(side core.Side) core.Direction
}

// Keys drives a paddle from held keys at the configured paddle speed.
type Keys struct {
	Source DirectionSource
}

// Drive implements Driver.
func (k Keys) Drive(s Situation) float64 {
	if k.Source == nil {
		return 0
	}
	dir := k.Source.Direction(s.Side)
	if !dir.Valid() {
		return 0
	}
	return float64(dir) * s.Settings.PaddleSpeed * s.DT
}

// Still never moves.
var Still Driver = DriverFunc(func(Situation) float64 { return 0 })
