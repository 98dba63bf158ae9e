// pong plays Pong in the terminal: locally, against a bot, or online against
// a remote match server.
//
// Usage:
//
//	pong local              - Two players on one keyboard
//	pong bot                - Play against the computer
//	pong online             - Find an opponent on the match server
//	pong tournament         - Join a tournament
//	pong demo               - Watch two bots rally
//	pong menu               - Pick a mode interactively
//	pong list               - List modes
//	pong history [mode]     - Show recorded matches
//	pong scores             - Show bot-match scores
//	pong serve              - Start SSH server for remote play
//	pong config schema      - Print the config JSON schema
//
// Global flags:
//
//	--fps <rate>     - Simulation tick rate (default: from config)
//	--seed <value>   - RNG seed for reproducible matches
//	--db <path>      - Database path (default: ~/.pong/pong.db)
//	--config <path>  - Config file
//	--log <path>     - Write debug logs to a file
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-pong/internal/config"
	"github.com/vovakirdan/tui-pong/internal/core"
	_ "github.com/vovakirdan/tui-pong/internal/modes"
	"github.com/vovakirdan/tui-pong/internal/registry"
	"github.com/vovakirdan/tui-pong/internal/storage"
)

var (
	// Global flags
	flagFPS     int
	flagSeed    int64
	flagDBPath  string
	flagConfig  string
	flagLogPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pong",
	Short: "Pong in your terminal",
	Long: `Pong in your terminal: local, against a bot, or online.

Available commands:
  local       - Two players share the keyboard
  bot         - Play against the computer
  online      - Find an opponent on the match server
  tournament  - Join a tournament
  demo        - Watch two bots rally
  menu        - Interactive mode picker
  history     - Recorded matches
  scores      - Bot-match scores
  serve       - Start SSH server for remote play

Online play reads the auth token from PONG_TOKEN.

Examples:
  pong bot --difficulty hard
  PONG_TOKEN=... pong online
  pong menu
  pong serve --ssh :2222`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 0, "Simulation tick rate (0 = from config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", storage.DefaultPath, "Path to match database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogPath, "log", "", "Write debug logs to this file")

	for _, c := range playCommands() {
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the config selected by --config.
func loadConfig() (config.Config, error) {
	return config.Load(flagConfig)
}

// runtimeConfig combines the flags, the config and the terminal size.
func runtimeConfig(cfg config.Config) core.RuntimeConfig {
	rt := core.RuntimeConfig{
		TickRate:  cfg.Match.TickRate,
		RenderFPS: cfg.Match.RenderFPS,
		Seed:      flagSeed,
	}
	if flagFPS > 0 {
		rt.TickRate = flagFPS
	}
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		rt.ScreenW = w
		rt.ScreenH = h
	}
	return rt.Normalize()
}

// newLogger writes to --log, or nowhere: the terminal belongs to the match.
// The returned closer must be called on exit.
func newLogger() (*log.Logger, func(), error) {
	if flagLogPath == "" {
		return log.New(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(flagLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Level:           log.DebugLevel,
		Prefix:          "pong",
	})
	return logger, func() { f.Close() }, nil
}

// openStore opens the database, warning and continuing without it on failure.
func openStore() *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open match database: %v\n", err)
		return nil
	}
	return store
}

// newEnv builds the mode environment shared by the play and menu commands.
func newEnv() (registry.Env, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return registry.Env{}, nil, err
	}
	logger, closeLog, err := newLogger()
	if err != nil {
		return registry.Env{}, nil, err
	}
	return registry.Env{
		Config:  cfg,
		Runtime: runtimeConfig(cfg),
		Logger:  logger,
	}, closeLog, nil
}
