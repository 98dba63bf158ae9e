// Package pong implements the local Pong simulation.
// The Engine owns a MatchState and advances it on fixed ticks. Paddles are
// moved by Drivers, so a keyboard, the bot and the demo AI all run through the
// same core. The engine knows nothing about terminals or the network.
package pong

import (
	"math/rand"

	"github.com/vovakirdan/tui-pong/internal/core"
)

// Phase is the lifecycle state of an Engine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseRunning:
		return "Running"
	case PhaseFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Paddle is a paddle's vertical position (top edge).
type Paddle struct {
	Y float64
}

// Ball is the ball's top-left position, velocity and current speed.
// Touched is false from a serve until the first paddle contact.
type Ball struct {
	Pos     core.Vec2
	Vel     core.Vec2
	Speed   float64
	Touched bool
}

// Score is the points of each side.
type Score struct {
	Left  int
	Right int
}

// Of returns the score of one side.
func (s Score) Of(side core.Side) int {
	if side == core.SideRight {
		return s.Right
	}
	if side == core.SideLeft {
		return s.Left
	}
	return 0
}

// MatchState is the complete simulation state.
type MatchState struct {
	Paddles [2]Paddle
	Ball    Ball
	Score   Score
	Rally   int
	Tick    uint64
}

// Outcome reports what happened during one Tick.
type Outcome struct {
	Hit      core.Side // paddle the ball struck, if any
	Goal     core.Side // side that scored, if any
	Finished bool      // the tick ended the match
}

// Engine runs a match. It is not safe for concurrent use; callers serialize
// access.
type Engine struct {
	settings Settings
	rng      *rand.Rand
	state    MatchState
	phase    Phase
	winner   core.Side
	drivers  [2]Driver
	players  [2]Player
	onFinish func(winner core.Side, score Score)
	notified bool
}

// NewEngine creates an engine in PhaseIdle with centred paddles.
// A nil rng is replaced by one seeded with 1.
func NewEngine(settings Settings, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	e := &Engine{
		settings: settings.Normalize(),
		rng:      rng,
		drivers:  [2]Driver{Still, Still},
	}
	e.reset()
	return e
}

func (e *Engine) reset() {
	c := e.settings.Court
	e.state = MatchState{
		Paddles: [2]Paddle{{Y: c.CenteredPaddleY()}, {Y: c.CenteredPaddleY()}},
	}
	e.centerBall()
	e.phase = PhaseIdle
	e.winner = core.SideNone
	e.notified = false
}

// SetDriver installs what moves the paddle on side. A nil driver holds still.
func (e *Engine) SetDriver(side core.Side, d Driver) {
	i := side.Index()
	if i < 0 {
		return
	}
	if d == nil {
		d = Still
	}
	e.drivers[i] = d
}

// SetPlayers sets the names shown in snapshots.
func (e *Engine) SetPlayers(left, right Player) {
	e.players = [2]Player{left, right}
}

// OnFinish registers fn to be called once, with the winner, when the match ends.
func (e *Engine) OnFinish(fn func(winner core.Side, score Score)) {
	e.onFinish = fn
}

// Settings returns the normalized settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Phase returns the lifecycle phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Winner returns the winning side, or SideNone before the match is finished.
func (e *Engine) Winner() core.Side {
	return e.winner
}

// State returns a copy of the simulation state.
func (e *Engine) State() MatchState {
	return e.state
}

// Start serves the ball and moves the engine from Idle to Running.
// It does nothing in any other phase.
func (e *Engine) Start() {
	if e.phase != PhaseIdle {
		return
	}
	dir := e.settings.FirstServe
	if dir == 0 {
		dir = e.randomSign()
	}
	e.serve(float64(dir))
	e.phase = PhaseRunning
}

// Restart discards the current match and starts a new one.
func (e *Engine) Restart() {
	e.reset()
	e.Start()
}

// Tick advances the match by dt seconds. It is a no-op unless Running.
func (e *Engine) Tick(dt float64) Outcome {
	var out Outcome
	if e.phase != PhaseRunning || dt <= 0 {
		return out
	}
	e.state.Tick++

	e.movePaddles(dt)
	e.moveBall(dt)
	out.Hit = e.collide()

	if scorer := e.checkGoal(); scorer != core.SideNone {
		out.Goal = scorer
		if e.checkWin(scorer) {
			out.Finished = true
		}
	}
	return out
}

func (e *Engine) movePaddles(dt float64) {
	for _, side := range []core.Side{core.SideLeft, core.SideRight} {
		i := side.Index()
		sit := Situation{State: e.state, Settings: e.settings, Side: side, DT: dt}
		y := e.state.Paddles[i].Y + e.drivers[i].Drive(sit)
		e.state.Paddles[i].Y = core.Clamp(y, 0, e.settings.Court.MaxPaddleY())
	}
}

func (e *Engine) moveBall(dt float64) {
	b := &e.state.Ball
	if e.settings.FlatServe && !b.Touched {
		b.Vel.Y = 0
	}
	b.Pos = core.Advance(b.Pos, b.Vel, dt)
	b.Pos, b.Vel, _ = core.ReflectOffWall(b.Pos, b.Vel, e.settings.Court.BallSize, core.AxisY, 0, e.settings.Court.Height)
}

// PaddleRect returns the box of the paddle on side.
func (s MatchState) PaddleRect(c Court, side core.Side) core.RectF {
	x := c.LeftPaddleX()
	if side == core.SideRight {
		x = c.RightPaddleX()
	}
	return core.RectF{X: x, Y: s.Paddles[side.Index()].Y, W: c.PaddleWidth, H: c.PaddleHeight}
}

// BallRect returns the box of the ball.
func (s MatchState) BallRect(c Court) core.RectF {
	return core.RectF{X: s.Ball.Pos.X, Y: s.Ball.Pos.Y, W: c.BallSize, H: c.BallSize}
}

// collide checks the left paddle first and registers at most one contact.
func (e *Engine) collide() core.Side {
	c := e.settings.Court
	ball := e.state.BallRect(c)
	for _, side := range []core.Side{core.SideLeft, core.SideRight} {
		dirSign := 1.0
		if side == core.SideRight {
			dirSign = -1
		}
		// Only a ball travelling toward the paddle can hit it.
		if e.state.Ball.Vel.X*dirSign >= 0 {
			continue
		}
		pad := e.state.PaddleRect(c, side)
		if !ball.Intersects(pad) {
			continue
		}
		e.state.Rally++
		b := &e.state.Ball
		b.Touched = true
		b.Speed = core.RallySpeed(e.settings.HitSpeed, e.settings.RallyBoost, e.state.Rally)
		b.Vel = core.DeflectOffPaddle(ball.CenterY()-pad.CenterY(), c.PaddleHeight, dirSign, b.Speed)
		b.Pos.X = core.PlaceFlush(pad, c.BallSize, dirSign)
		return side
	}
	return core.SideNone
}

func (e *Engine) checkGoal() core.Side {
	c := e.settings.Court
	b := e.state.Ball
	switch {
	case b.Pos.X+c.BallSize <= 0:
		e.state.Score.Right++
		e.serve(1)
		return core.SideRight
	case b.Pos.X >= c.Width:
		e.state.Score.Left++
		e.serve(-1)
		return core.SideLeft
	}
	return core.SideNone
}

func (e *Engine) checkWin(scorer core.Side) bool {
	if e.settings.WinScore <= 0 || e.state.Score.Of(scorer) < e.settings.WinScore {
		return false
	}
	e.phase = PhaseFinished
	e.winner = scorer
	e.state.Ball.Vel = core.Vec2{}
	if !e.notified {
		e.notified = true
		if e.onFinish != nil {
			e.onFinish(scorer, e.state.Score)
		}
	}
	return true
}

func (e *Engine) centerBall() {
	c := e.settings.Court
	e.state.Ball = Ball{
		Pos: core.Vec2{X: (c.Width - c.BallSize) / 2, Y: (c.Height - c.BallSize) / 2},
	}
}

// serve recentres the ball and launches it horizontally in direction dirX.
func (e *Engine) serve(dirX float64) {
	e.centerBall()
	e.state.Rally = 0
	b := &e.state.Ball
	b.Speed = e.settings.ServeSpeed
	if e.settings.FlatServe {
		b.Vel = core.Vec2{X: dirX * b.Speed}
		return
	}
	dir := core.Vec2{X: dirX, Y: float64(e.randomSign())}
	b.Vel = dir.Unit().Scale(b.Speed)
}

func (e *Engine) randomSign() int {
	if e.rng.Intn(2) == 0 {
		return -1
	}
	return 1
}
