package ai

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/vovakirdan/tui-pong/internal/clock"
	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
)

const dt = 1.0 / 60

func situation(ball pong.Ball, paddleY float64, side core.Side) pong.Situation {
	s := pong.BotSettings()
	st := pong.MatchState{Ball: ball}
	st.Paddles[side.Index()].Y = paddleY
	return pong.Situation{State: st, Settings: s, Side: side, DT: dt}
}

func TestReactiveTargetWithinErrorBound(t *testing.T) {
	// Straight shot at the right paddle, no wall contact on the way.
	ball := pong.Ball{Pos: core.Vec2{X: 400, Y: 200}, Vel: core.Vec2{X: 240, Y: 60}}
	c := pong.LocalCourt()
	tArrive := (PlaneX(c, core.SideRight) - ball.Pos.X) / ball.Vel.X
	want := ball.Pos.Y + ball.Vel.Y*tArrive + c.BallSize/2

	for seed := int64(1); seed <= 50; seed++ {
		r := NewReactive(rand.New(rand.NewSource(seed)))
		r.Drive(situation(ball, 255, core.SideRight))
		if math.Abs(r.Target()-want) > DefaultMaxError {
			t.Fatalf("seed %d: Target() = %v, expected %v ± %v", seed, r.Target(), want, float64(DefaultMaxError))
		}
	}
}

func TestReactiveExactWithoutError(t *testing.T) {
	ball := pong.Ball{Pos: core.Vec2{X: 400, Y: 300}, Vel: core.Vec2{X: 200}}
	r := NewReactive(nil)
	r.MaxError = 0
	r.Drive(situation(ball, 0, core.SideRight))
	if r.Target() != 307.5 {
		t.Errorf("Target() = %v, expected 307.5", r.Target())
	}
}

func TestReactiveStepIsBounded(t *testing.T) {
	ball := pong.Ball{Pos: core.Vec2{X: 400, Y: 500}, Vel: core.Vec2{X: 200}}
	r := NewReactive(nil)
	r.MaxError = 0
	sit := situation(ball, 0, core.SideRight)

	got := r.Drive(sit)
	maxStep := sit.Settings.PaddleSpeed * DefaultStepFactor * dt
	if math.Abs(got-maxStep) > 1e-9 {
		t.Errorf("Drive() = %v, expected full step %v", got, maxStep)
	}

	// Within one step of the target it snaps.
	sit.State.Paddles[1].Y = 507.5 - 45 - 1
	if got := r.Drive(sit); math.Abs(got-1) > 1e-9 {
		t.Errorf("Drive() near target = %v, expected 1", got)
	}
}

func TestReactiveHoldsWhenBallMovesAway(t *testing.T) {
	ball := pong.Ball{Pos: core.Vec2{X: 400, Y: 50}, Vel: core.Vec2{X: -200, Y: 100}}
	r := NewReactive(nil)
	if got := r.Drive(situation(ball, 100, core.SideRight)); got != 0 {
		t.Errorf("Drive() = %v, expected 0", got)
	}
	if r.Target() != 145 {
		t.Errorf("Target() = %v, expected current centre 145", r.Target())
	}
}

func TestPredictorsAgree(t *testing.T) {
	c := pong.LocalCourt()
	balls := []pong.Ball{
		{Pos: core.Vec2{X: 392.5, Y: 292.5}, Vel: core.Vec2{X: 200, Y: 200}},
		{Pos: core.Vec2{X: 100, Y: 10}, Vel: core.Vec2{X: 150, Y: -500}},
		{Pos: core.Vec2{X: 700, Y: 580}, Vel: core.Vec2{X: -300, Y: 700}},
		{Pos: core.Vec2{X: 600, Y: 100}, Vel: core.Vec2{X: -250, Y: 0}},
	}
	for i, b := range balls {
		side := core.SideRight
		if b.Vel.X < 0 {
			side = core.SideLeft
		}
		y1, ok1 := PredictBounces(b, c, side)
		y2, ok2 := PredictFolded(b, c, side)
		if !ok1 || !ok2 {
			t.Fatalf("ball %d: ok = %v/%v, expected both true", i, ok1, ok2)
		}
		if math.Abs(y1-y2) > 1e-6 {
			t.Errorf("ball %d: bounces %v, folded %v", i, y1, y2)
		}
		if y1 < c.BallSize/2 || y1 > c.Height-c.BallSize/2 {
			t.Errorf("ball %d: prediction %v outside court", i, y1)
		}
	}
}

func TestPeriodicRetargetsOnInterval(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	p := NewPeriodic(clk, rand.New(rand.NewSource(7)))
	p.MaxOffset = 0

	ball := pong.Ball{Pos: core.Vec2{X: 400, Y: 300}, Vel: core.Vec2{X: 200}}
	sit := situation(ball, 0, core.SideRight)

	got := p.Drive(sit)
	if p.Target() != 307.5 {
		t.Fatalf("Target() = %v, expected 307.5", p.Target())
	}
	if want := (307.5 - 45) * DefaultReaction; math.Abs(got-want) > 1e-9 {
		t.Errorf("Drive() = %v, expected %v", got, want)
	}

	// The ball moves but the target is kept until the interval elapses.
	sit.State.Ball.Pos.Y = 100
	clk.Advance(400 * time.Millisecond)
	p.Drive(sit)
	if p.Target() != 307.5 {
		t.Errorf("Target() = %v before interval, expected unchanged", p.Target())
	}

	clk.Advance(100 * time.Millisecond)
	p.Drive(sit)
	if p.Target() != 107.5 {
		t.Errorf("Target() = %v after interval, expected 107.5", p.Target())
	}
}

func TestPeriodicCentresWhenBallMovesAway(t *testing.T) {
	p := NewPeriodic(clock.NewFake(time.Unix(0, 0)), nil)
	ball := pong.Ball{Pos: core.Vec2{X: 400, Y: 300}, Vel: core.Vec2{X: -200}}
	p.Drive(situation(ball, 0, core.SideRight))
	if p.Target() != 300 {
		t.Errorf("Target() = %v, expected court centre 300", p.Target())
	}
}

func TestBotPlaysThroughEngine(t *testing.T) {
	s := pong.BotSettings()
	s.FirstServe = 1
	e := pong.NewEngine(s, rand.New(rand.NewSource(3)))
	bot := NewReactive(rand.New(rand.NewSource(3)))
	e.SetDriver(core.SideRight, bot)
	e.Start()

	var hit core.Side
	for i := 0; i < 300 && hit == core.SideNone; i++ {
		hit = e.Tick(dt).Hit
	}
	if hit != core.SideRight {
		t.Errorf("first hit = %v, expected the bot to return the serve", hit)
	}
}
