package config

import (
	_ "embed"
)

//go:embed defaults/pong.yaml
var defaultPongYAML []byte

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			MatchURL:      "ws://localhost:8000/ws/pong/",
			TournamentURL: "ws://localhost:8000/ws/tournament/",
			ScoresURL:     "http://localhost:8000",
			ReconnectMS:   1000,
		},
		Match: MatchConfig{
			TickRate:      60,
			RenderFPS:     30,
			PaddleSpeed:   420,
			ServeSpeed:    180,
			HitSpeed:      240,
			RallyBoost:    18,
			FlatServe:     true,
			LocalWinScore: 10,
			BotWinScore:   3,
		},
		Bot: BotConfig{Difficulty: DifficultyNormal},
		Demo: DemoConfig{
			ServeSpeed: 240,
			IntervalMS: 500,
			Reaction:   0.05,
			MaxOffset:  40,
		},
		Input: InputConfig{HoldMS: 150},
	}
}

// DefaultYAML returns the embedded default file.
func DefaultYAML() []byte {
	return defaultPongYAML
}
