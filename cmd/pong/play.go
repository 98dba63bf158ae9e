package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-pong/internal/config"
	"github.com/vovakirdan/tui-pong/internal/platform/tui"
	"github.com/vovakirdan/tui-pong/internal/session"
)

var flagDifficulty string

const matchControls = `
Controls:
  W/S, Up/Down  - Move paddle
  R             - Rematch (after the match)
  B/Esc         - Back
  Q/Ctrl+C      - Quit`

// playCommands returns one command per mode.
func playCommands() []*cobra.Command {
	local := &cobra.Command{
		Use:   "local",
		Short: "Two players on one keyboard",
		Long: `Two players share the keyboard: W/S move the left paddle, the arrow
keys the right one.` + matchControls,
		Args: cobra.NoArgs,
		RunE: playRunner(session.ModeLocal),
	}

	bot := &cobra.Command{
		Use:   "bot",
		Short: "Play against the computer",
		Long: `Play the left paddle against a bot.

Difficulty options:
  easy    - Large aiming error, slow paddle
  normal  - Moderate error
  hard    - Small error, full paddle speed

With PONG_TOKEN set, your points are submitted to the scores API.` + matchControls,
		Example: "  pong bot --difficulty hard",
		Args:    cobra.NoArgs,
		RunE:    playRunner(session.ModeBot),
	}
	bot.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")

	online := &cobra.Command{
		Use:   "online",
		Short: "Find an opponent on the match server",
		Long: `Join matchmaking on the match server. The server runs the match;
this client sends paddle input and draws the state it receives.

Set PONG_TOKEN to your auth token and PONG_SERVER to override the endpoint.
F forfeits the running match.` + matchControls,
		Args: cobra.NoArgs,
		RunE: playRunner(session.ModeOnline),
	}

	tournament := &cobra.Command{
		Use:   "tournament",
		Short: "Join a tournament",
		Long: `Create or join a tournament on the server and play its rounds
until the final rankings are in.` + matchControls,
		Args: cobra.NoArgs,
		RunE: playRunner(session.ModeTournament),
	}

	demo := &cobra.Command{
		Use:   "demo",
		Short: "Watch two bots rally",
		Args:  cobra.NoArgs,
		RunE:  playRunner(session.ModeDemo),
	}

	return []*cobra.Command{local, bot, online, tournament, demo}
}

func playRunner(mode session.Mode) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		env, closeLog, err := newEnv()
		if err != nil {
			return err
		}
		defer closeLog()

		if mode == session.ModeBot && flagDifficulty != "" {
			preset, err := config.ParseDifficulty(flagDifficulty)
			if err != nil {
				return err
			}
			config.ApplyBotPreset(&env.Config, preset)
		}

		store := openStore()
		if store != nil {
			defer store.Close()
			env.Recorder = store
		}

		if err := tui.Run(mode, env); err != nil {
			return fmt.Errorf("%s match: %w", mode, err)
		}
		return nil
	}
}
