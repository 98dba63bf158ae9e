// Package ai provides computer-controlled paddle drivers.
//
// Reactive is the opponent of bot matches: every tick it predicts where the
// ball will cross its paddle plane and walks toward that point at a fraction
// of the paddle speed. Periodic drives the demo: it retargets on a wall-clock
// interval and eases toward the target.
package ai

import (
	"math"
	"math/rand"

	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
)

// Reactive defaults.
const (
	DefaultMaxError   = 30
	DefaultStepFactor = 0.8
	maxBounces        = 64
)

// Reactive is a bot that recomputes its target on every Drive call.
type Reactive struct {
	MaxError   float64 // target error is uniform in [-MaxError, MaxError]
	StepFactor float64 // fraction of paddle speed the bot moves at

	rng    *rand.Rand
	target float64
}

// NewReactive returns a Reactive bot with the default tuning.
// A nil rng is replaced by one seeded with 1.
func NewReactive(rng *rand.Rand) *Reactive {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Reactive{
		MaxError:   DefaultMaxError,
		StepFactor: DefaultStepFactor,
		rng:        rng,
	}
}

// Target returns the paddle-centre y the bot aimed for on the last call.
func (r *Reactive) Target() float64 {
	return r.target
}

// Drive implements pong.Driver.
func (r *Reactive) Drive(s pong.Situation) float64 {
	c := s.Settings.Court
	center := s.PaddleY() + c.PaddleHeight/2

	r.target = center
	if y, ok := PredictBounces(s.State.Ball, c, s.Side); ok {
		if r.MaxError > 0 {
			y += (r.rng.Float64()*2 - 1) * r.MaxError
		}
		r.target = clampTarget(y, c)
	}

	step := s.Settings.PaddleSpeed * r.StepFactor * s.DT
	diff := r.target - center
	if math.Abs(diff) <= step {
		return diff
	}
	return math.Copysign(step, diff)
}

// PlaneX is the ball x at which it touches the face of the paddle on side.
func PlaneX(c pong.Court, side core.Side) float64 {
	if side == core.SideLeft {
		return c.LeftPaddleX() + c.PaddleWidth
	}
	return c.RightPaddleX() - c.BallSize
}

// approaching reports whether the ball moves toward side.
func approaching(b pong.Ball, side core.Side) bool {
	if side == core.SideLeft {
		return b.Vel.X < 0
	}
	return b.Vel.X > 0
}

// PredictBounces forward-simulates the ball along straight segments, bouncing
// off the top and bottom walls, until it reaches the paddle plane of side.
// It returns the ball centre y at arrival. ok is false if the ball is moving
// away or does not arrive within the bounce cap.
func PredictBounces(b pong.Ball, c pong.Court, side core.Side) (y float64, ok bool) {
	if !approaching(b, side) {
		return 0, false
	}
	plane := PlaneX(c, side)
	pos, vel := b.Pos, b.Vel
	top, bottom := 0.0, c.Height-c.BallSize

	for range maxBounces {
		tPlane := (plane - pos.X) / vel.X
		if tPlane <= 0 {
			return pos.Y + c.BallSize/2, true
		}
		tWall := math.Inf(1)
		switch {
		case vel.Y < 0:
			tWall = (top - pos.Y) / vel.Y
		case vel.Y > 0:
			tWall = (bottom - pos.Y) / vel.Y
		}
		tWall = max(tWall, 0)
		if tPlane <= tWall {
			return pos.Y + vel.Y*tPlane + c.BallSize/2, true
		}
		pos = core.Advance(pos, vel, tWall)
		vel.Y = -vel.Y
	}
	return 0, false
}

func clampTarget(y float64, c pong.Court) float64 {
	return core.Clamp(y, c.PaddleHeight/2, c.Height-c.PaddleHeight/2)
}
