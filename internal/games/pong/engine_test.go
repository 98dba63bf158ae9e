package pong

import (
	"math"
	"math/rand"
	"testing"

	"github.com/vovakirdan/tui-pong/internal/core"
)

const dt = 1.0 / 60

func push(dy float64) Driver {
	return DriverFunc(func(Situation) float64 { return dy })
}

type heldKeys map[core.Side]core.Direction

func (h heldKeys) Direction(side core.Side) core.Direction {
	return h[side]
}

func newTestEngine(s Settings) *Engine {
	return NewEngine(s, rand.New(rand.NewSource(42)))
}

func TestNewEngineIdle(t *testing.T) {
	e := newTestEngine(LocalSettings())

	if e.Phase() != PhaseIdle {
		t.Errorf("Phase() = %v, expected Idle", e.Phase())
	}
	st := e.State()
	if st.Paddles[0].Y != 255 || st.Paddles[1].Y != 255 {
		t.Errorf("paddles = %v, %v, expected 255", st.Paddles[0].Y, st.Paddles[1].Y)
	}

	before := e.State()
	if out := e.Tick(dt); out != (Outcome{}) {
		t.Errorf("Tick() while idle = %+v, expected no outcome", out)
	}
	if e.State() != before {
		t.Error("Tick() while idle should not change state")
	}
}

func TestGoalScoredWhenBallMissesLeftPaddle(t *testing.T) {
	s := LocalSettings()
	s.FirstServe = -1
	e := newTestEngine(s)
	e.SetDriver(core.SideLeft, push(-1000)) // left paddle pinned to the top, out of the ball's path
	e.Start()

	var goal core.Side
	for i := 0; i < 300 && goal == core.SideNone; i++ {
		out := e.Tick(dt)
		if out.Hit != core.SideNone {
			t.Fatalf("tick %d: unexpected paddle hit on %v", i, out.Hit)
		}
		goal = out.Goal
	}

	if goal != core.SideRight {
		t.Fatalf("goal = %v, expected Right", goal)
	}
	st := e.State()
	if st.Score != (Score{Left: 0, Right: 1}) {
		t.Errorf("Score = %+v, expected {0 1}", st.Score)
	}
	c := s.Court
	wantPos := core.Vec2{X: (c.Width - c.BallSize) / 2, Y: (c.Height - c.BallSize) / 2}
	if st.Ball.Pos != wantPos {
		t.Errorf("ball = %+v, expected centre %+v", st.Ball.Pos, wantPos)
	}
	if st.Ball.Vel.X <= 0 || st.Ball.Vel.Y != 0 {
		t.Errorf("serve velocity = %+v, expected flat and to the right", st.Ball.Vel)
	}
	if st.Rally != 0 || st.Ball.Speed != s.ServeSpeed || st.Ball.Touched {
		t.Errorf("rally state not reset: rally=%d speed=%v touched=%v", st.Rally, st.Ball.Speed, st.Ball.Touched)
	}
	if st.Paddles[0].Y != 0 {
		t.Errorf("left paddle y = %v, expected clamped to 0", st.Paddles[0].Y)
	}
}

func TestPaddleHitDeflects(t *testing.T) {
	s := LocalSettings()
	s.FirstServe = -1
	e := newTestEngine(s)
	e.Start()

	var hit core.Side
	for i := 0; i < 300 && hit == core.SideNone; i++ {
		hit = e.Tick(dt).Hit
	}
	if hit != core.SideLeft {
		t.Fatalf("hit = %v, expected Left", hit)
	}

	b := e.State().Ball
	wantSpeed := s.HitSpeed + s.RallyBoost
	if math.Abs(b.Vel.Len()-wantSpeed) > 1e-9 {
		t.Errorf("|vel| = %v, expected %v", b.Vel.Len(), wantSpeed)
	}
	if b.Vel.X <= 0 {
		t.Errorf("vel.X = %v, expected ball to leave to the right", b.Vel.X)
	}
	if b.Pos.X != 31 {
		t.Errorf("ball x = %v, expected flush at 31", b.Pos.X)
	}
	if !b.Touched || e.State().Rally != 1 {
		t.Errorf("touched=%v rally=%d, expected true and 1", b.Touched, e.State().Rally)
	}

	// The next tick must not register a second contact.
	if out := e.Tick(dt); out.Hit != core.SideNone {
		t.Errorf("second tick hit = %v, expected none", out.Hit)
	}
}

func TestPaddlesStayInBounds(t *testing.T) {
	tests := []struct {
		name string
		dir  core.Direction
		want float64
	}{
		{"up", core.DirUp, 0},
		{"down", core.DirDown, 510},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(LocalSettings())
			keys := heldKeys{core.SideLeft: tc.dir, core.SideRight: tc.dir}
			e.SetDriver(core.SideLeft, Keys{Source: keys})
			e.SetDriver(core.SideRight, Keys{Source: keys})
			e.Start()
			for range 120 {
				e.Tick(dt)
				for i, p := range e.State().Paddles {
					if p.Y < 0 || p.Y > 510 {
						t.Fatalf("paddle %d y = %v out of bounds", i, p.Y)
					}
				}
			}
			for i, p := range e.State().Paddles {
				if p.Y != tc.want {
					t.Errorf("paddle %d y = %v, expected %v", i, p.Y, tc.want)
				}
			}
		})
	}
}

func TestKeysMovesAtPaddleSpeed(t *testing.T) {
	s := LocalSettings()
	k := Keys{Source: heldKeys{core.SideRight: core.DirDown}}
	got := k.Drive(Situation{Settings: s, Side: core.SideRight, DT: 0.5})
	if got != 210 {
		t.Errorf("Drive() = %v, expected 210", got)
	}
	if got := k.Drive(Situation{Settings: s, Side: core.SideLeft, DT: 0.5}); got != 0 {
		t.Errorf("Drive() for idle side = %v, expected 0", got)
	}
}

func TestMatchFinishesOnce(t *testing.T) {
	s := LocalSettings()
	s.WinScore = 2
	s.FirstServe = -1
	e := newTestEngine(s)
	e.SetDriver(core.SideLeft, push(-1000))

	calls := 0
	var gotWinner core.Side
	e.OnFinish(func(w core.Side, score Score) {
		calls++
		gotWinner = w
		if score.Right != 2 {
			t.Errorf("finish score = %+v, expected right=2", score)
		}
	})
	e.Start()

	// The right side serves back to itself and the left paddle stays pinned,
	// so the right paddle must return the ball for the second goal.
	e.SetDriver(core.SideRight, DriverFunc(func(sit Situation) float64 {
		c := sit.Settings.Court
		return sit.State.Ball.Pos.Y + c.BallSize/2 - c.PaddleHeight/2 - sit.PaddleY()
	}))

	for range 3000 {
		e.Tick(dt)
		if e.Phase() == PhaseFinished {
			break
		}
	}

	if e.Phase() != PhaseFinished {
		t.Fatalf("Phase() = %v, expected Finished", e.Phase())
	}
	if calls != 1 || gotWinner != core.SideRight || e.Winner() != core.SideRight {
		t.Errorf("calls=%d winner=%v, expected one call for Right", calls, gotWinner)
	}

	final := e.State()
	for range 10 {
		e.Tick(dt)
	}
	if e.State() != final {
		t.Error("ticks after finish should not change state")
	}
	if calls != 1 {
		t.Errorf("OnFinish called %d times, expected 1", calls)
	}
}

func TestEndlessMatchNeverFinishes(t *testing.T) {
	s := DemoSettings()
	s.FirstServe = 1
	e := newTestEngine(s)
	e.OnFinish(func(core.Side, Score) { t.Error("endless match should not finish") })
	e.Start()
	for range 5000 {
		e.Tick(dt)
	}
	if e.Phase() != PhaseRunning {
		t.Errorf("Phase() = %v, expected Running", e.Phase())
	}
}

func TestAngledServe(t *testing.T) {
	s := DemoSettings()
	s.FirstServe = -1
	e := newTestEngine(s)
	e.Start()

	v := e.State().Ball.Vel
	if v.X >= 0 || v.Y == 0 {
		t.Errorf("serve = %+v, expected leftward with vertical motion", v)
	}
	if math.Abs(v.Len()-s.ServeSpeed) > 1e-9 {
		t.Errorf("|serve| = %v, expected %v", v.Len(), s.ServeSpeed)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	e := newTestEngine(BotSettings())
	e.SetPlayers(Player{Name: "you"}, Player{Name: "bot"})
	e.Start()

	snap := e.Snapshot()
	e.Tick(dt)

	if snap.Tick != 0 || e.Snapshot().Tick != 1 {
		t.Errorf("snapshot tick = %d, expected it frozen at 0", snap.Tick)
	}
	if snap.Paddles[1].X != 770 || snap.Players[1].Name != "bot" {
		t.Errorf("snapshot = %+v, expected right paddle at 770 and bot label", snap)
	}
	if snap.Phase != PhaseRunning {
		t.Errorf("snapshot phase = %v, expected Running", snap.Phase)
	}
}

func TestRestart(t *testing.T) {
	s := LocalSettings()
	s.FirstServe = 1
	e := newTestEngine(s)
	e.Start()
	for range 400 {
		e.Tick(dt)
	}
	e.Restart()
	if e.State().Score != (Score{}) || e.State().Tick != 0 || e.Phase() != PhaseRunning {
		t.Errorf("after Restart state = %+v phase %v", e.State(), e.Phase())
	}
}
