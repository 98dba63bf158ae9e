package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvToken         = "PONG_TOKEN"
	EnvServer        = "PONG_SERVER"
	EnvTournament    = "PONG_TOURNAMENT_SERVER"
	EnvScoresURL     = "PONG_SCORES_URL"
	userConfigDir    = ".pong"
	configFileName   = "pong.yaml"
	localConfigsPath = "configs"
)

// Load reads the configuration, applies environment overrides and fills
// missing fields with defaults.
// Search order: customPath -> ~/.pong/configs/pong.yaml -> ./configs/pong.yaml -> embedded default
func Load(customPath string) (Config, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}
	cfg = ApplyEnv(cfg, os.Getenv)
	return cfg.Normalize(), nil
}

// loadFile decodes over the defaults, so a partial file keeps every field it
// does not mention.
func loadFile(customPath string) (Config, error) {
	cfg := Default()

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	if userCfgPath := userConfigPath(); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(localConfigsPath, configFileName)); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(defaultPongYAML, &cfg); err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to the user config file, or empty if home is unavailable.
func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, userConfigDir, localConfigsPath, configFileName)
}

// ApplyEnv overrides server settings from the environment. getenv is usually
// os.Getenv.
func ApplyEnv(cfg Config, getenv func(string) string) Config {
	if v := getenv(EnvToken); v != "" {
		cfg.Server.Token = v
	}
	if v := getenv(EnvServer); v != "" {
		cfg.Server.MatchURL = v
	}
	if v := getenv(EnvTournament); v != "" {
		cfg.Server.TournamentURL = v
	}
	if v := getenv(EnvScoresURL); v != "" {
		cfg.Server.ScoresURL = v
	}
	return cfg
}

// Normalize fills zero or invalid fields with defaults.
func (c Config) Normalize() Config {
	def := Default()
	if c.Server.MatchURL == "" {
		c.Server.MatchURL = def.Server.MatchURL
	}
	if c.Server.TournamentURL == "" {
		c.Server.TournamentURL = def.Server.TournamentURL
	}
	if c.Server.ScoresURL == "" {
		c.Server.ScoresURL = def.Server.ScoresURL
	}
	if c.Server.ReconnectMS <= 0 {
		c.Server.ReconnectMS = def.Server.ReconnectMS
	}

	m := &c.Match
	if m.TickRate <= 0 {
		m.TickRate = def.Match.TickRate
	}
	if m.RenderFPS <= 0 {
		m.RenderFPS = def.Match.RenderFPS
	}
	if m.PaddleSpeed <= 0 {
		m.PaddleSpeed = def.Match.PaddleSpeed
	}
	if m.ServeSpeed <= 0 {
		m.ServeSpeed = def.Match.ServeSpeed
	}
	if m.HitSpeed <= 0 {
		m.HitSpeed = def.Match.HitSpeed
	}
	if m.RallyBoost < 0 {
		m.RallyBoost = 0
	}
	if m.LocalWinScore < 0 {
		m.LocalWinScore = def.Match.LocalWinScore
	}
	if m.BotWinScore < 0 {
		m.BotWinScore = def.Match.BotWinScore
	}

	if p, err := ParseDifficulty(string(c.Bot.Difficulty)); err == nil {
		c.Bot.Difficulty = p
	} else {
		c.Bot.Difficulty = DifficultyNormal
	}

	if c.Demo.ServeSpeed <= 0 {
		c.Demo.ServeSpeed = def.Demo.ServeSpeed
	}
	if c.Demo.IntervalMS <= 0 {
		c.Demo.IntervalMS = def.Demo.IntervalMS
	}
	if c.Demo.Reaction <= 0 {
		c.Demo.Reaction = def.Demo.Reaction
	}
	if c.Demo.MaxOffset < 0 {
		c.Demo.MaxOffset = def.Demo.MaxOffset
	}
	if c.Input.HoldMS <= 0 {
		c.Input.HoldMS = def.Input.HoldMS
	}
	return c
}
