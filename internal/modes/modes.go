// Package modes registers the built-in match modes.
package modes

import (
	"math/rand"
	"time"

	"github.com/vovakirdan/tui-pong/internal/ai"
	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/games/pong"
	"github.com/vovakirdan/tui-pong/internal/input"
	"github.com/vovakirdan/tui-pong/internal/realtime"
	"github.com/vovakirdan/tui-pong/internal/registry"
	"github.com/vovakirdan/tui-pong/internal/scores"
	"github.com/vovakirdan/tui-pong/internal/session"
)

// ScoresGame is the game segment of the scores API path.
const ScoresGame = "pong"

func init() {
	registry.Register(registry.ModeInfo{
		ID:      session.ModeLocal,
		Title:   "Local match",
		Summary: "Two players on one keyboard: W/S against ↑/↓",
	}, Local)
	registry.Register(registry.ModeInfo{
		ID:      session.ModeBot,
		Title:   "Versus bot",
		Summary: "Play the left paddle against the computer",
	}, Bot)
	registry.Register(registry.ModeInfo{
		ID:      session.ModeDemo,
		Title:   "Demo",
		Summary: "Two computer paddles rally forever",
	}, Demo)
	registry.Register(registry.ModeInfo{
		ID:      session.ModeOnline,
		Title:   "Online match",
		Summary: "Find an opponent on the server",
		Online:  true,
	}, Online)
	registry.Register(registry.ModeInfo{
		ID:      session.ModeTournament,
		Title:   "Tournament",
		Summary: "Join a four-player tournament",
		Online:  true,
	}, Tournament)
}

func newRand(env registry.Env) *rand.Rand {
	seed := env.Runtime.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func baseOptions(env registry.Env, mode session.Mode) session.Options {
	rc := env.Runtime.Normalize()
	return session.Options{
		Mode:      mode,
		TickRate:  rc.TickRate,
		RenderFPS: rc.RenderFPS,
		Width:     rc.ScreenW,
		Height:    rc.ScreenH,
		Encoder:   env.Encoder,
		Sink:      env.Sink,
		Recorder:  env.Recorder,
		Logger:    env.Logger,
		Clock:     env.Clock,
	}
}

func playerName(env registry.Env, fallback string) string {
	if n := env.Config.Player.Name; n != "" {
		return n
	}
	return fallback
}

// Local is two players sharing the keyboard.
func Local(env registry.Env) (*session.Session, error) {
	cfg := env.Config
	capture := input.NewCapture(input.DefaultBindings(), cfg.Input.Hold())
	keys := pong.Keys{Source: capture}

	opts := baseOptions(env, session.ModeLocal)
	opts.Engine = pong.NewEngine(cfg.LocalSettings(), newRand(env))
	opts.Left, opts.Right = keys, keys
	opts.Capture = capture
	opts.Names = [2]string{"P1", "P2"}
	return session.New(opts)
}

// Bot puts the player on the left against the reactive bot.
func Bot(env registry.Env) (*session.Session, error) {
	cfg := env.Config
	r := newRand(env)
	capture := input.NewCapture(input.SingleSide(core.SideLeft), cfg.Input.Hold())

	bot := ai.NewReactive(r)
	tuning := cfg.Bot.BotTuning()
	bot.MaxError = tuning.MaxError
	bot.StepFactor = tuning.StepFactor

	opts := baseOptions(env, session.ModeBot)
	opts.Engine = pong.NewEngine(cfg.BotSettings(), r)
	opts.Left = pong.Keys{Source: capture}
	opts.Right = bot
	opts.Capture = capture
	opts.Names = [2]string{playerName(env, "You"), "Bot (" + string(cfg.Bot.Difficulty) + ")"}
	if cfg.Server.Token != "" {
		opts.Scores = scores.New(cfg.Server.ScoresURL, ScoresGame, cfg.Server.Token)
		opts.ScoreSide = core.SideLeft
	}
	return session.New(opts)
}

// Demo is the endless attract-mode rally. It is not recorded.
func Demo(env registry.Env) (*session.Session, error) {
	cfg := env.Config
	r := newRand(env)

	paddle := func() *ai.Periodic {
		p := ai.NewPeriodic(env.Clock, r)
		p.Interval = cfg.Demo.Interval()
		p.Reaction = cfg.Demo.Reaction
		p.MaxOffset = cfg.Demo.MaxOffset
		return p
	}

	opts := baseOptions(env, session.ModeDemo)
	opts.Engine = pong.NewEngine(cfg.DemoSettings(), r)
	opts.Left, opts.Right = paddle(), paddle()
	opts.Names = [2]string{"CPU 1", "CPU 2"}
	opts.Recorder = nil
	return session.New(opts)
}

func remoteClient(env registry.Env, url string, protocol realtime.Protocol, onOpen func(*realtime.Client)) *realtime.Client {
	cfg := env.Config
	return realtime.New(realtime.Config{
		URL:            url,
		Token:          cfg.Server.Token,
		Protocol:       protocol,
		ReconnectDelay: cfg.Server.ReconnectDelay(),
		Clock:          env.Clock,
		Logger:         env.Logger,
		OnOpen:         onOpen,
	})
}

// Online asks the match authority for an opponent on every connect.
func Online(env registry.Env) (*session.Session, error) {
	client := remoteClient(env, env.Config.Server.MatchURL, realtime.ProtocolMatch, func(c *realtime.Client) {
		if err := c.FindMatch(); err != nil && env.Logger != nil {
			env.Logger.Warn("find match", "err", err)
		}
	})

	opts := baseOptions(env, session.ModeOnline)
	opts.Remote = client
	opts.Capture = input.NewCapture(input.SingleSide(core.SideLeft), env.Config.Input.Hold())
	opts.Names = [2]string{playerName(env, "Player 1"), "Player 2"}
	return session.New(opts)
}

// Tournament joins a tournament lobby and plays its matches until the final
// standings arrive.
func Tournament(env registry.Env) (*session.Session, error) {
	client := remoteClient(env, env.Config.Server.TournamentURL, realtime.ProtocolTournament, func(c *realtime.Client) {
		if err := c.CreateTournament(); err != nil && env.Logger != nil {
			env.Logger.Warn("create tournament", "err", err)
		}
	})

	opts := baseOptions(env, session.ModeTournament)
	opts.Remote = client
	opts.Persistent = true
	opts.Capture = input.NewCapture(input.SingleSide(core.SideLeft), env.Config.Input.Hold())
	opts.Names = [2]string{"Player 1", "Player 2"}
	return session.New(opts)
}
