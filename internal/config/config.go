// Package config loads the YAML configuration of the Pong client and turns
// it into engine, bot and demo settings.
package config

import (
	"time"

	"github.com/vovakirdan/tui-pong/internal/games/pong"
)

// Config is the whole client configuration.
type Config struct {
	Player PlayerConfig `yaml:"player" json:"player"`
	Server ServerConfig `yaml:"server" json:"server"`
	Match  MatchConfig  `yaml:"match" json:"match"`
	Bot    BotConfig    `yaml:"bot" json:"bot"`
	Demo   DemoConfig   `yaml:"demo" json:"demo"`
	Input  InputConfig  `yaml:"input" json:"input"`
}

// PlayerConfig names the local player.
type PlayerConfig struct {
	Name string `yaml:"name" json:"name,omitempty" jsonschema:"description=Label shown next to your paddle"`
}

// ServerConfig locates the remote match authority and the scores API.
type ServerConfig struct {
	MatchURL      string `yaml:"match_url" json:"match_url" jsonschema:"description=WebSocket endpoint for online matches"`
	TournamentURL string `yaml:"tournament_url" json:"tournament_url" jsonschema:"description=WebSocket endpoint for tournaments"`
	ScoresURL     string `yaml:"scores_url" json:"scores_url" jsonschema:"description=Base URL of the scores API"`
	Token         string `yaml:"token" json:"token,omitempty" jsonschema:"description=Auth token; prefer the PONG_TOKEN variable"`
	ReconnectMS   int    `yaml:"reconnect_ms" json:"reconnect_ms" jsonschema:"minimum=1"`
}

// MatchConfig holds timing and physics of local matches. Speeds are in court
// units per second.
type MatchConfig struct {
	TickRate      int     `yaml:"tick_rate" json:"tick_rate" jsonschema:"minimum=1"`
	RenderFPS     int     `yaml:"render_fps" json:"render_fps" jsonschema:"minimum=1"`
	PaddleSpeed   float64 `yaml:"paddle_speed" json:"paddle_speed"`
	ServeSpeed    float64 `yaml:"serve_speed" json:"serve_speed"`
	HitSpeed      float64 `yaml:"hit_speed" json:"hit_speed"`
	RallyBoost    float64 `yaml:"rally_boost" json:"rally_boost"`
	FlatServe     bool    `yaml:"flat_serve" json:"flat_serve"`
	LocalWinScore int     `yaml:"local_win_score" json:"local_win_score" jsonschema:"minimum=0"`
	BotWinScore   int     `yaml:"bot_win_score" json:"bot_win_score" jsonschema:"minimum=0"`
}

// BotConfig tunes the reactive bot. Zero MaxError or StepFactor takes the
// value of the difficulty preset.
type BotConfig struct {
	Difficulty DifficultyPreset `yaml:"difficulty" json:"difficulty" jsonschema:"enum=easy,enum=normal,enum=hard"`
	MaxError   float64          `yaml:"max_error,omitempty" json:"max_error,omitempty"`
	StepFactor float64          `yaml:"step_factor,omitempty" json:"step_factor,omitempty"`
}

// DemoConfig tunes the attract-mode rally.
type DemoConfig struct {
	ServeSpeed float64 `yaml:"serve_speed" json:"serve_speed"`
	IntervalMS int     `yaml:"interval_ms" json:"interval_ms" jsonschema:"minimum=1"`
	Reaction   float64 `yaml:"reaction" json:"reaction"`
	MaxOffset  float64 `yaml:"max_offset" json:"max_offset"`
}

// InputConfig controls key release synthesis.
type InputConfig struct {
	HoldMS int `yaml:"hold_ms" json:"hold_ms" jsonschema:"minimum=1,description=A key counts as released after this long without a repeat"`
}

// ReconnectDelay returns the reconnect delay as a duration.
func (s ServerConfig) ReconnectDelay() time.Duration {
	return time.Duration(s.ReconnectMS) * time.Millisecond
}

// Hold returns the key hold window.
func (i InputConfig) Hold() time.Duration {
	return time.Duration(i.HoldMS) * time.Millisecond
}

// Interval returns the demo retarget interval.
func (d DemoConfig) Interval() time.Duration {
	return time.Duration(d.IntervalMS) * time.Millisecond
}

func (c Config) baseSettings() pong.Settings {
	s := pong.LocalSettings()
	m := c.Match
	s.PaddleSpeed = m.PaddleSpeed
	s.ServeSpeed = m.ServeSpeed
	s.HitSpeed = m.HitSpeed
	s.RallyBoost = m.RallyBoost
	s.FlatServe = m.FlatServe
	return s
}

// LocalSettings returns the engine settings of a two-player match.
func (c Config) LocalSettings() pong.Settings {
	s := c.baseSettings()
	s.WinScore = c.Match.LocalWinScore
	return s.Normalize()
}

// BotSettings returns the engine settings of a match against the bot.
func (c Config) BotSettings() pong.Settings {
	s := c.baseSettings()
	s.WinScore = c.Match.BotWinScore
	return s.Normalize()
}

// DemoSettings returns the engine settings of the demo rally.
func (c Config) DemoSettings() pong.Settings {
	s := pong.DemoSettings()
	if c.Demo.ServeSpeed > 0 {
		s.ServeSpeed = c.Demo.ServeSpeed
		s.HitSpeed = c.Demo.ServeSpeed
	}
	return s
}
