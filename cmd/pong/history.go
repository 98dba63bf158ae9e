package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-pong/internal/platform/tui"
	"github.com/vovakirdan/tui-pong/internal/registry"
	"github.com/vovakirdan/tui-pong/internal/session"
	"github.com/vovakirdan/tui-pong/internal/storage"
)

var (
	flagHistoryLimit int
	flagHistoryTUI   bool
)

var historyCmd = &cobra.Command{
	Use:   "history [mode]",
	Short: "Show recorded matches",
	Long: `List the most recent matches, optionally of one mode, followed by
per-mode totals.

Examples:
  pong history
  pong history bot --limit 5
  pong history --tui`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of matches to show")
	historyCmd.Flags().BoolVar(&flagHistoryTUI, "tui", false, "Browse the history in a table")
}

func runHistory(cmd *cobra.Command, args []string) error {
	var mode session.Mode
	if len(args) == 1 {
		mode = session.Mode(args[0])
		if !registry.Exists(mode) {
			return fmt.Errorf("unknown mode %q (run 'pong list')", mode)
		}
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("cannot open match database: %w", err)
	}
	defer store.Close()

	if flagHistoryTUI {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rt := runtimeConfig(cfg)
		_, err = tui.RunHistory(store, rt.ScreenW, rt.ScreenH)
		return err
	}

	matches, err := store.RecentMatches(mode, flagHistoryLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matches recorded yet.")
		return nil
	}

	now := time.Now()
	fmt.Fprintf(out, "  %-14s  %-10s  %-28s  %-5s  %-12s  %s\n", "When", "Mode", "Players", "Score", "Winner", "Reason")
	for _, m := range matches {
		winner := m.Winner
		if winner == "" {
			winner = "-"
		}
		fmt.Fprintf(out, "  %-14s  %-10s  %-28s  %-5s  %-12s  %s\n",
			humanize.RelTime(m.CreatedAt, now, "ago", "from now"),
			m.Mode,
			m.Left+" vs "+m.Right,
			fmt.Sprintf("%d-%d", m.ScoreLeft, m.ScoreRight),
			winner,
			m.EndReason,
		)
	}

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	fmt.Fprintln(out)
	for _, id := range ids {
		s := stats[session.Mode(id)]
		fmt.Fprintf(out, "  %-10s  %s played, %s completed, last %s\n",
			id,
			humanize.Comma(int64(s.Played)),
			humanize.Comma(int64(s.Completed)),
			humanize.Time(s.LastPlayed),
		)
	}
	return nil
}
