package render

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
)

// Frame is one thing to paint.
type Frame struct {
	Snapshot pong.Snapshot
	Labels   Labels
}

// Source supplies the frame to paint. ok is false when there is nothing to
// show yet; that frame is skipped.
type Source func() (f Frame, ok bool)

// Encoder turns a painted screen into the host's output format.
type Encoder func(s *core.Screen) string

// Sink receives encoded frames.
type Sink func(frame string)

// LoopConfig configures a Loop.
type LoopConfig struct {
	FPS     int
	Width   int
	Height  int
	Source  Source
	Encoder Encoder // defaults to Screen.String
	Sink    Sink
	Logger  *log.Logger
}

// Loop paints frames on its own ticker, independent of the simulation rate.
// It only reads snapshots; it never touches match state.
type Loop struct {
	cfg    LoopConfig
	mu     sync.Mutex
	screen *core.Screen
	frames uint64
}

// NewLoop creates a render loop.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.FPS <= 0 {
		cfg.FPS = core.DefaultConfig().RenderFPS
	}
	if cfg.Encoder == nil {
		cfg.Encoder = func(s *core.Screen) string { return s.String() }
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	return &Loop{
		cfg:    cfg,
		screen: core.NewScreen(cfg.Width, cfg.Height),
	}
}

// Run paints frames until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(l.cfg.FPS))
	defer ticker.Stop()

	l.cfg.Logger.Debug("render loop started", "fps", l.cfg.FPS)
	for {
		select {
		case <-ctx.Done():
			l.cfg.Logger.Debug("render loop stopped", "frames", l.Frames())
			return nil
		case <-ticker.C:
			l.RenderOnce()
		}
	}
}

// RenderOnce paints and emits a single frame.
// It reports whether a frame was emitted.
func (l *Loop) RenderOnce() bool {
	f, ok := l.cfg.Source()
	if !ok {
		return false
	}

	l.mu.Lock()
	Draw(l.screen, f.Snapshot, f.Labels)
	out := l.cfg.Encoder(l.screen)
	l.frames++
	l.mu.Unlock()

	if l.cfg.Sink != nil {
		l.cfg.Sink(out)
	}
	return true
}

// Resize changes the target size. Safe to call while Run is active.
func (l *Loop) Resize(w, h int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.screen.Resize(w, h)
}

// Size returns the current target size.
func (l *Loop) Size() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.screen.Width(), l.screen.Height()
}

// Frames returns how many frames have been emitted.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}
