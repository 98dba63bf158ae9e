package session

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-pong/internal/clock"
	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
	"github.com/vovakirdan/tui-pong/internal/input"
	"github.com/vovakirdan/tui-pong/internal/realtime"
	"github.com/vovakirdan/tui-pong/internal/render"
	"github.com/vovakirdan/tui-pong/internal/scores"
)

// Mode names a kind of match.
type Mode string

const (
	ModeLocal      Mode = "local"
	ModeBot        Mode = "bot"
	ModeDemo       Mode = "demo"
	ModeOnline     Mode = "online"
	ModeTournament Mode = "tournament"
)

// Remote is a connection to a match authority.
// *realtime.Client implements it.
type Remote interface {
	Connect(ctx context.Context) error
	OnFrame(fn func(realtime.Frame))
	OnState(fn func(realtime.State))
	Latest() (pong.Snapshot, bool)
	ActiveMatch() string
	SendInput(dir core.Direction) error
	DeclareForfeit(matchID string) error
	LeaveTournament() error
	Close() error
}

var _ Remote = (*realtime.Client)(nil)

// Submitter sends a final score somewhere. *scores.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, score int) (scores.Result, error)
}

// Recorder persists finished matches.
type Recorder interface {
	RecordMatch(r Result) error
}

// Result summarizes a finished match.
type Result struct {
	ID         string
	Mode       Mode
	Left       string
	Right      string
	Score      pong.Score
	Winner     core.Side
	WinnerName string
	Reason     EndReason
	StartedAt  time.Time
	Duration   time.Duration
}

// Options configures a Session. Exactly one of Engine and Remote is set.
type Options struct {
	ID   string
	Mode Mode

	// Local play.
	Engine *pong.Engine
	Left   pong.Driver
	Right  pong.Driver

	// Remote play. Persistent keeps the session alive across matches, as a
	// tournament does.
	Remote     Remote
	Persistent bool

	Capture *input.Capture
	Names   [2]string // fallback labels for left and right

	TickRate       int
	RenderFPS      int
	ExpiryInterval time.Duration
	Width          int
	Height         int
	Encoder        render.Encoder
	Sink           render.Sink // optional, in addition to FrameEvent

	Scores    Submitter
	ScoreSide core.Side // whose points are submitted
	Recorder  Recorder

	EventBuffer int
	Logger      *log.Logger
	Clock       clock.Clock
}

// DefaultExpiryInterval is how often held keys are checked for release.
const DefaultExpiryInterval = 20 * time.Millisecond

func (o Options) normalize() Options {
	rc := core.RuntimeConfig{TickRate: o.TickRate, RenderFPS: o.RenderFPS, ScreenW: o.Width, ScreenH: o.Height}.Normalize()
	o.TickRate = rc.TickRate
	o.RenderFPS = rc.RenderFPS
	o.Width = rc.ScreenW
	o.Height = rc.ScreenH
	if o.ExpiryInterval <= 0 {
		o.ExpiryInterval = DefaultExpiryInterval
	}
	if o.EventBuffer < 1 {
		o.EventBuffer = 64
	}
	if o.Capture == nil {
		o.Capture = input.NewCapture(nil, 0)
	}
	o.Clock = clock.OrReal(o.Clock)
	return o
}
