package config

import "fmt"

// DifficultyPreset represents a named bot difficulty.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// BotTuning is the aim error and speed factor of the reactive bot.
type BotTuning struct {
	MaxError   float64
	StepFactor float64
}

// ParseDifficulty validates a preset name. An empty name is normal.
func ParseDifficulty(name string) (DifficultyPreset, error) {
	switch p := DifficultyPreset(name); p {
	case "":
		return DifficultyNormal, nil
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return p, nil
	default:
		return "", fmt.Errorf("config: unknown difficulty %q (easy, normal, hard)", name)
	}
}

// TuningForPreset returns the bot tuning of a preset.
func TuningForPreset(preset DifficultyPreset) BotTuning {
	switch preset {
	case DifficultyEasy:
		return BotTuning{MaxError: 60, StepFactor: 0.6}
	case DifficultyHard:
		return BotTuning{MaxError: 10, StepFactor: 1.0}
	default:
		return BotTuning{MaxError: 30, StepFactor: 0.8}
	}
}

// BotTuning resolves the preset and applies explicit overrides.
func (b BotConfig) BotTuning() BotTuning {
	t := TuningForPreset(b.Difficulty)
	if b.MaxError > 0 {
		t.MaxError = b.MaxError
	}
	if b.StepFactor > 0 {
		t.StepFactor = b.StepFactor
	}
	return t
}

// ApplyBotPreset switches cfg to a preset and clears manual overrides.
func ApplyBotPreset(cfg *Config, preset DifficultyPreset) {
	cfg.Bot.Difficulty = preset
	cfg.Bot.MaxError = 0
	cfg.Bot.StepFactor = 0
}
