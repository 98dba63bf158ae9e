package ai

import (
	"math"
	"math/rand"
	"time"

	"github.com/vovakirdan/tui-pong/internal/clock"
	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
)

// Periodic defaults.
const (
	DefaultInterval  = 500 * time.Millisecond
	DefaultReaction  = 0.05
	DefaultMaxOffset = 40
)

// Periodic retargets on a fixed wall-clock interval and eases toward the
// target by a constant fraction of the remaining distance each tick.
type Periodic struct {
	Interval  time.Duration
	Reaction  float64
	MaxOffset float64

	clock  clock.Clock
	rng    *rand.Rand
	target float64
	next   time.Time
	primed bool
}

// NewPeriodic returns a Periodic policy with the default tuning.
// Nil arguments fall back to the system clock and a fixed seed.
func NewPeriodic(clk clock.Clock, rng *rand.Rand) *Periodic {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Periodic{
		Interval:  DefaultInterval,
		Reaction:  DefaultReaction,
		MaxOffset: DefaultMaxOffset,
		clock:     clock.OrReal(clk),
		rng:       rng,
	}
}

// Target returns the current paddle-centre target.
func (p *Periodic) Target() float64 {
	return p.target
}

// Drive implements pong.Driver.
func (p *Periodic) Drive(s pong.Situation) float64 {
	c := s.Settings.Court
	now := p.clock.Now()
	if !p.primed || !now.Before(p.next) {
		p.retarget(s)
		p.next = now.Add(p.Interval)
		p.primed = true
	}
	center := s.PaddleY() + c.PaddleHeight/2
	return (p.target - center) * p.Reaction
}

func (p *Periodic) retarget(s pong.Situation) {
	c := s.Settings.Court
	y, ok := PredictFolded(s.State.Ball, c, s.Side)
	if !ok {
		// Drift back to the middle while the ball is going away.
		p.target = c.Height / 2
		return
	}
	if p.MaxOffset > 0 {
		y += (p.rng.Float64()*2 - 1) * p.MaxOffset
	}
	p.target = clampTarget(y, c)
}

// PredictFolded computes the arrival centre y in closed form: the straight
// line is extended through the walls and folded back into the court.
func PredictFolded(b pong.Ball, c pong.Court, side core.Side) (y float64, ok bool) {
	if !approaching(b, side) {
		return 0, false
	}
	t := (PlaneX(c, side) - b.Pos.X) / b.Vel.X
	if t < 0 {
		t = 0
	}
	span := c.Height - c.BallSize
	raw := b.Pos.Y + b.Vel.Y*t
	if span <= 0 {
		return c.Height / 2, true
	}
	m := math.Mod(raw, 2*span)
	if m < 0 {
		m += 2 * span
	}
	if m > span {
		m = 2*span - m
	}
	return m + c.BallSize/2, true
}
