// Package session runs one match: it owns the engine or the remote channel,
// the simulation and render timers, and the keyboard listeners, and tears all
// of them down together through Stop.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
	"github.com/vovakirdan/tui-pong/internal/render"
	"github.com/vovakirdan/tui-pong/internal/scores"
)

// ErrNoAuthority is returned by New when neither or both of Engine and Remote
// are set.
var ErrNoAuthority = errors.New("session: exactly one of engine or remote is required")

const submitTimeout = 10 * time.Second

// Session is a single running match.
type Session struct {
	opts   Options
	log    *log.Logger
	loop   *render.Loop
	events chan Event
	done   chan struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	doneOnce sync.Once
	submits  sync.WaitGroup
	outbound chan core.Direction

	mu        sync.Mutex
	unsub     func()
	status    string
	banner    string
	hint      string
	over      bool
	result    Result
	pending   *Result
	lastScore pong.Score
	startedAt time.Time
	matchID   string
}

// New builds a session from opts. Nothing runs until Run is called.
func New(opts Options) (*Session, error) {
	opts = opts.normalize()
	if (opts.Engine == nil) == (opts.Remote == nil) {
		return nil, ErrNoAuthority
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Session{
		opts:   opts,
		log:    logger.With("session", shortID(opts.ID), "mode", opts.Mode),
		events: make(chan Event, opts.EventBuffer),
		done:   make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.loop = render.NewLoop(render.LoopConfig{
		FPS:     opts.RenderFPS,
		Width:   opts.Width,
		Height:  opts.Height,
		Source:  s.frame,
		Encoder: opts.Encoder,
		Sink:    s.sink,
		Logger:  s.log,
	})

	if e := opts.Engine; e != nil {
		e.SetDriver(core.SideLeft, opts.Left)
		e.SetDriver(core.SideRight, opts.Right)
		e.SetPlayers(pong.Player{Name: opts.Names[0]}, pong.Player{Name: opts.Names[1]})
		// Runs inside Tick, with s.mu held.
		e.OnFinish(func(winner core.Side, score pong.Score) {
			s.pending = &Result{Reason: EndCompleted, Winner: winner, Score: score}
		})
		if ws := e.Settings().WinScore; ws > 0 {
			s.status = fmt.Sprintf("first to %d", ws)
		}
	} else {
		s.status = "connecting"
	}
	return s, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ID returns the session id.
func (s *Session) ID() string { return s.opts.ID }

// Mode returns the kind of match.
func (s *Session) Mode() Mode { return s.opts.Mode }

// Events returns the event stream. When the buffer is full the oldest event
// is dropped.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} { return s.done }

// Result returns the match result once the match is over.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.over
}

// Run plays the match until it ends, Stop is called or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer s.doneOnce.Do(func() { close(s.done) })

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	release := context.AfterFunc(s.ctx, cancel)
	defer release()

	s.mu.Lock()
	s.startedAt = s.opts.Clock.Now()
	s.mu.Unlock()
	s.log.Info("session started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.loop.Run(gctx) })
	g.Go(func() error { return s.expireKeys(gctx) })
	if e := s.opts.Engine; e != nil {
		s.mu.Lock()
		e.Start()
		s.mu.Unlock()
		g.Go(func() error { return s.simulate(gctx) })
	} else {
		s.attachRemote()
		g.Go(func() error { return s.connect(gctx) })
		g.Go(func() error { return s.forward(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		s.Stop()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	// A score submission outlives the match; its events precede StoppedEvent.
	s.submits.Wait()
	s.log.Info("session stopped", "err", err)
	s.emit(StoppedEvent{Err: err})
	return err
}

// Stop tears the session down: timers and the render loop are cancelled, key
// listeners are detached and the remote channel is closed on purpose.
// Safe to call more than once and from any goroutine.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.opts.Capture.Detach()

		s.mu.Lock()
		unsub := s.unsub
		s.unsub = nil
		s.mu.Unlock()
		if unsub != nil {
			unsub()
		}

		if r := s.opts.Remote; r != nil {
			if err := r.Close(); err != nil {
				s.log.Warn("close remote", "err", err)
			}
		}
	})
}

// Quit ends the match on behalf of the local player. An unfinished online
// match is forfeited; a tournament lobby is left.
func (s *Session) Quit() {
	s.mu.Lock()
	over := s.over
	matchID := s.matchID
	s.mu.Unlock()

	if r := s.opts.Remote; r != nil && !over {
		if s.opts.Persistent {
			if err := r.LeaveTournament(); err != nil {
				s.log.Debug("leave tournament", "err", err)
			}
		}
		if matchID != "" {
			if err := r.DeclareForfeit(matchID); err != nil {
				s.log.Debug("declare forfeit", "err", err)
			}
		}
	}
	if !over && s.opts.Mode != ModeDemo {
		s.finish(Result{Reason: EndQuit})
	}
	s.Stop()
}

// HandleKey feeds a key press to the paddle input. It reports whether the key
// moves a paddle.
func (s *Session) HandleKey(key string) bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
	}
	return s.opts.Capture.KeyDown(key, s.opts.Clock.Now())
}

// Resize changes the frame size.
func (s *Session) Resize(w, h int) {
	s.loop.Resize(w, h)
}

func (s *Session) emit(evt Event) {
	select {
	case s.events <- evt:
		return
	default:
	}
	// Full: drop the oldest and retry once.
	select {
	case <-s.events:
	default:
	}
	select {
	case s.events <- evt:
	default:
	}
}

func (s *Session) sink(view string) {
	s.emit(FrameEvent{View: view})
	if s.opts.Sink != nil {
		s.opts.Sink(view)
	}
}

func (s *Session) frame() (render.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap pong.Snapshot
	if e := s.opts.Engine; e != nil {
		snap = e.Snapshot()
	} else if latest, ok := s.opts.Remote.Latest(); ok {
		snap = latest
	} else {
		snap = placeholder(pong.ServerCourt())
	}

	labels := render.LabelsFor(snap, s.opts.Names[0], s.opts.Names[1])
	labels.Banner = s.banner
	labels.Hint = s.hint
	labels.Status = s.status
	return render.Frame{Snapshot: snap, Labels: labels}, true
}

// placeholder is an empty court shown before the first remote state.
func placeholder(c pong.Court) pong.Snapshot {
	return pong.Snapshot{
		Court: c,
		Paddles: [2]core.Vec2{
			{X: c.LeftPaddleX(), Y: c.CenteredPaddleY()},
			{X: c.RightPaddleX(), Y: c.CenteredPaddleY()},
		},
		Ball:  core.Vec2{X: (c.Width - c.BallSize) / 2, Y: (c.Height - c.BallSize) / 2},
		Phase: pong.PhaseIdle,
	}
}

func (s *Session) expireKeys(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.ExpiryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.opts.Capture.Expire(s.opts.Clock.Now())
		}
	}
}

func (s *Session) simulate(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(s.opts.TickRate))
	defer ticker.Stop()
	dt := 1 / float64(s.opts.TickRate)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if s.step(dt) {
				return nil
			}
		}
	}
}

// step advances the engine one tick. It reports whether the match is over.
func (s *Session) step(dt float64) bool {
	s.mu.Lock()
	out := s.opts.Engine.Tick(dt)
	score := s.opts.Engine.State().Score
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if out.Goal != core.SideNone {
		s.emit(GoalEvent{Scorer: out.Goal, Score: score})
	}
	if pending != nil {
		s.finish(*pending)
		return true
	}
	return false
}

// finish records the end of the match once, paints the final frame and stops
// the session.
func (s *Session) finish(res Result) {
	s.mu.Lock()
	if s.over {
		s.mu.Unlock()
		return
	}
	s.over = true
	res.ID = s.opts.ID
	res.Mode = s.opts.Mode
	res.Left = s.opts.Names[0]
	res.Right = s.opts.Names[1]
	if e := s.opts.Engine; e != nil && res.Score == (pong.Score{}) {
		res.Score = e.State().Score
	} else if r := s.opts.Remote; r != nil {
		if snap, ok := r.Latest(); ok {
			res.Score = snap.Score
			if n := snap.Players[0].Name; n != "" {
				res.Left = n
			}
			if n := snap.Players[1].Name; n != "" {
				res.Right = n
			}
		}
	}
	if res.WinnerName == "" {
		switch res.Winner {
		case core.SideLeft:
			res.WinnerName = res.Left
		case core.SideRight:
			res.WinnerName = res.Right
		}
	} else if res.Winner == core.SideNone {
		switch res.WinnerName {
		case res.Left:
			res.Winner = core.SideLeft
		case res.Right:
			res.Winner = core.SideRight
		}
	}
	res.StartedAt = s.startedAt
	res.Duration = s.opts.Clock.Now().Sub(s.startedAt)
	s.result = res
	s.banner, s.hint = banner(res)
	s.mu.Unlock()

	s.log.Info("match over", "reason", res.Reason, "winner", res.WinnerName,
		"score", fmt.Sprintf("%d-%d", res.Score.Left, res.Score.Right))
	s.loop.RenderOnce()
	s.emit(MatchOverEvent{Result: res})
	s.record(res)
	s.submit(res)
	s.Stop()
}

func banner(res Result) (title, hint string) {
	hint = "r: play again · b: menu · q: quit"
	switch res.Reason {
	case EndCompleted:
		if res.WinnerName == "" {
			return "GAME OVER", hint
		}
		return strings.ToUpper(res.WinnerName) + " WINS", hint
	case EndOpponentLeft:
		return "OPPONENT LEFT · YOU WIN", hint
	case EndCancelled:
		return "MATCH CANCELLED", hint
	case EndError:
		return "CONNECTION FAILED", hint
	default:
		return "MATCH ABANDONED", hint
	}
}

func (s *Session) record(res Result) {
	if s.opts.Recorder == nil || res.Reason == EndError {
		return
	}
	if err := s.opts.Recorder.RecordMatch(res); err != nil {
		s.log.Error("record match", "err", err)
		s.emit(NoticeEvent{Message: "could not save match: " + err.Error(), IsError: true})
	}
}

// submit sends the local player's points in the background.
func (s *Session) submit(res Result) {
	if s.opts.Scores == nil || s.opts.ScoreSide == core.SideNone || res.Reason != EndCompleted {
		return
	}
	points := res.Score.Of(s.opts.ScoreSide)
	s.submits.Add(1)
	go func() {
		defer s.submits.Done()
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		r, err := s.opts.Scores.Submit(ctx, points)
		s.emit(ScoreEvent{Score: points, Result: r, Err: err})
		switch {
		case err == nil:
			s.emit(NoticeEvent{Message: fmt.Sprintf("score %d submitted", points)})
		case errors.Is(err, scores.ErrUnauthenticated):
			s.emit(NoticeEvent{Message: "log in to save your score", IsError: true})
		default:
			s.log.Warn("submit score", "err", err)
			s.emit(NoticeEvent{Message: "score not saved: server error", IsError: true})
		}
	}()
}

func (s *Session) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *Session) notice(msg string, isErr bool) {
	if msg == "" {
		return
	}
	s.emit(NoticeEvent{Message: msg, IsError: isErr})
}
