package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// isolate points the home and working directories at empty temp dirs and
// clears the override variables.
func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home, work = t.TempDir(), t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(work)
	for _, k := range []string{EnvToken, EnvServer, EnvTournament, EnvScoresURL} {
		t.Setenv(k, "")
	}
	return home, work
}

func TestEmbeddedDefaultsMatchDefault(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal(DefaultYAML(), &cfg); err != nil {
		t.Fatalf("embedded yaml: %v", err)
	}
	if cfg != Default() {
		t.Errorf("embedded = %+v, expected %+v", cfg, Default())
	}
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, expected defaults", cfg)
	}
}

func TestLoadSearchOrder(t *testing.T) {
	home, work := isolate(t)
	writeFile(t, filepath.Join(work, "configs", "pong.yaml"), "match:\n  bot_win_score: 5\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Match.BotWinScore != 5 {
		t.Errorf("local file: BotWinScore = %d, expected 5", cfg.Match.BotWinScore)
	}

	writeFile(t, filepath.Join(home, ".pong", "configs", "pong.yaml"), "match:\n  bot_win_score: 7\n")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Match.BotWinScore != 7 {
		t.Errorf("user file: BotWinScore = %d, expected 7", cfg.Match.BotWinScore)
	}

	custom := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, custom, "match:\n  bot_win_score: 9\n")
	cfg, err = Load(custom)
	if err != nil {
		t.Fatalf("Load(custom) error = %v", err)
	}
	if cfg.Match.BotWinScore != 9 {
		t.Errorf("custom file: BotWinScore = %d, expected 9", cfg.Match.BotWinScore)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "pong.yaml")
	writeFile(t, path, "input:\n  hold_ms: 90\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Input.HoldMS != 90 {
		t.Errorf("HoldMS = %d, expected 90", cfg.Input.HoldMS)
	}
	if !cfg.Match.FlatServe || cfg.Match.LocalWinScore != 10 {
		t.Errorf("match = %+v, expected defaults kept", cfg.Match)
	}
}

func TestLoadErrors(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) expected error")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, bad, "match: [not, a, map\n")
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("Load(bad) error = %v, expected parse error", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvToken, "secret")
	t.Setenv(EnvServer, "wss://pong.example/ws/")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Token != "secret" || cfg.Server.MatchURL != "wss://pong.example/ws/" {
		t.Errorf("server = %+v, expected env values", cfg.Server)
	}
	if cfg.Server.TournamentURL != Default().Server.TournamentURL {
		t.Errorf("TournamentURL = %q, expected default", cfg.Server.TournamentURL)
	}
}

func TestNormalize(t *testing.T) {
	cfg := Config{Bot: BotConfig{Difficulty: "impossible"}}.Normalize()
	if cfg.Bot.Difficulty != DifficultyNormal {
		t.Errorf("Difficulty = %q, expected normal", cfg.Bot.Difficulty)
	}
	if cfg.Match.TickRate != 60 || cfg.Server.ReconnectDelay().Seconds() != 1 {
		t.Errorf("tick=%d reconnect=%v, expected 60 and 1s", cfg.Match.TickRate, cfg.Server.ReconnectDelay())
	}
	if cfg.Input.Hold().Milliseconds() != 150 || cfg.Demo.Interval().Milliseconds() != 500 {
		t.Errorf("hold=%v interval=%v", cfg.Input.Hold(), cfg.Demo.Interval())
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    DifficultyPreset
		wantErr bool
	}{
		{"", DifficultyNormal, false},
		{"easy", DifficultyEasy, false},
		{"normal", DifficultyNormal, false},
		{"hard", DifficultyHard, false},
		{"nightmare", "", true},
	}

	for _, tc := range tests {
		got, err := ParseDifficulty(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseDifficulty(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDifficulty(%q) = %q, expected %q", tc.in, got, tc.want)
		}
	}
}

func TestBotTuning(t *testing.T) {
	b := BotConfig{Difficulty: DifficultyHard}
	if got := b.BotTuning(); got != (BotTuning{MaxError: 10, StepFactor: 1}) {
		t.Errorf("hard tuning = %+v", got)
	}
	b.MaxError = 45
	if got := b.BotTuning(); got.MaxError != 45 || got.StepFactor != 1 {
		t.Errorf("override tuning = %+v, expected MaxError 45", got)
	}

	cfg := Default()
	cfg.Bot.MaxError = 45
	ApplyBotPreset(&cfg, DifficultyEasy)
	if got := cfg.Bot.BotTuning(); got != TuningForPreset(DifficultyEasy) {
		t.Errorf("after preset = %+v, expected easy tuning", got)
	}
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := Default()
	cfg.Match.BotWinScore = 4

	if s := cfg.LocalSettings(); s.WinScore != 10 || !s.FlatServe || s.PaddleSpeed != 420 {
		t.Errorf("LocalSettings() = %+v", s)
	}
	if s := cfg.BotSettings(); s.WinScore != 4 {
		t.Errorf("BotSettings().WinScore = %d, expected 4", s.WinScore)
	}
	if s := cfg.DemoSettings(); s.WinScore != 0 || s.FlatServe || s.Court.PaddleHeight != 100 {
		t.Errorf("DemoSettings() = %+v, expected endless angled demo", s)
	}
}

func TestSchemaListsFields(t *testing.T) {
	data, err := json.Marshal(Schema())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	for _, field := range []string{"match_url", "tick_rate", "hold_ms", "difficulty"} {
		if !strings.Contains(string(data), field) {
			t.Errorf("schema missing %q", field)
		}
	}
}
