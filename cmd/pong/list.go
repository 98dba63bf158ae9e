package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-pong/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all modes",
	Long:  `Shows every mode the client can play.`,
	Args:  cobra.NoArgs,
	Run:   runList,
}

func runList(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	modes := registry.List()

	maxIDLen := 2 // "ID" header
	for _, m := range modes {
		maxIDLen = max(maxIDLen, len(m.ID))
	}

	fmt.Fprintln(out, "Available modes:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-*s  %s\n", maxIDLen, "ID", "Description")
	fmt.Fprintf(out, "  %-*s  %s\n", maxIDLen, "--", "-----------")
	for _, m := range modes {
		desc := m.Summary
		if m.Online {
			desc += " (online)"
		}
		fmt.Fprintf(out, "  %-*s  %s\n", maxIDLen, m.ID, desc)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Run 'pong <id>' to play.")
}
