package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-pong/internal/modes"
	"github.com/vovakirdan/tui-pong/internal/scores"
	"github.com/vovakirdan/tui-pong/internal/session"
	"github.com/vovakirdan/tui-pong/internal/storage"
)

var flagRemote bool

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show bot-match scores",
	Long: `Display your top 10 points from completed bot matches.

With --remote, also fetch your best score from the scores API
(requires PONG_TOKEN).

Examples:
  pong scores
  pong scores --remote`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().BoolVar(&flagRemote, "remote", false, "Also fetch the high score from the scores API")
}

func runScores(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("cannot open match database: %w", err)
	}
	defer store.Close()

	entries, err := store.TopScores(session.ModeBot, 10)
	if err != nil {
		return fmt.Errorf("cannot retrieve scores: %w", err)
	}

	fmt.Fprintln(out, "High Scores - vs Bot")
	fmt.Fprintln(out)
	if len(entries) == 0 {
		fmt.Fprintln(out, "No scores recorded yet.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Play 'pong bot' to set the first high score!")
	} else {
		fmt.Fprintf(out, "  %-4s  %-10s  %s\n", "Rank", "Score", "Date")
		fmt.Fprintf(out, "  %-4s  %-10s  %s\n", "----", "-----", "----")
		for i, e := range entries {
			fmt.Fprintf(out, "  %-4d  %-10d  %s\n", i+1, e.Score, e.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Best: %d\n", entries[0].Score)
	}

	if !flagRemote {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := scores.New(cfg.Server.ScoresURL, modes.ScoresGame, cfg.Server.Token)
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	hs, err := client.HighScore(ctx)
	if err != nil {
		return fmt.Errorf("cannot fetch online high score: %w", err)
	}
	fmt.Fprintf(out, "Online best: %d (current %d)\n", hs.HighScore, hs.CurrentUserScore)
	return nil
}
