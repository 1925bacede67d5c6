package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tongits/internal/platform/tui"
	"github.com/vovakirdan/tongits/internal/storage"
)

var (
	flagHistoryLimit int
	flagPlainHistory bool
	flagClearHistory bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show saved rounds and standings",
	Long: `Display rounds recorded by tables you hosted, and per-player standings:
wins first, then fewest points left in hand.

Examples:
  tongits history
  tongits history --plain --limit 5
  tongits history --clear`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Rounds to print with --plain")
	historyCmd.Flags().BoolVar(&flagPlainHistory, "plain", false, "Print instead of opening the history screen")
	historyCmd.Flags().BoolVar(&flagClearHistory, "clear", false, "Delete all saved rounds")
}

func runHistory(_ *cobra.Command, _ []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		exitf("opening history database: %v", err)
	}
	defer store.Close()

	if flagClearHistory {
		if err := store.ClearHistory(); err != nil {
			exitf("%v", err)
		}
		fmt.Println("History cleared.")
		return
	}

	if !flagPlainHistory && isInteractive() {
		width, height := termSize()
		if err := tui.RunHistory(store, width, height); err != nil {
			exitf("%v", err)
		}
		return
	}

	rounds, err := store.RecentRounds(flagHistoryLimit)
	if err != nil {
		exitf("retrieving rounds: %v", err)
	}
	standings, err := store.Standings()
	if err != nil {
		exitf("retrieving standings: %v", err)
	}

	fmt.Println("Recent rounds")
	fmt.Println()
	if len(rounds) == 0 {
		fmt.Println("No rounds recorded yet.")
		fmt.Println()
		fmt.Println("Run 'tongits host' to play the first one!")
		return
	}

	fmt.Printf("  %-16s  %-5s  %-11s  %-12s  %s\n", "Date", "Round", "Ending", "Winner", "Points")
	fmt.Printf("  %-16s  %-5s  %-11s  %-12s  %s\n", "----", "-----", "------", "------", "------")
	for _, r := range rounds {
		winner := r.Winner
		if winner == "" {
			winner = "-"
		}
		points := make([]string, len(r.Seats))
		for i, s := range r.Seats {
			points[i] = fmt.Sprintf("%s %d", s.Name, s.Points)
		}
		fmt.Printf("  %-16s  %-5d  %-11s  %-12s  %s\n",
			r.PlayedAt.Format("2006-01-02 15:04"), r.Round, r.Ending, winner, strings.Join(points, ", "))
	}

	fmt.Println()
	fmt.Println("Standings")
	fmt.Println()
	fmt.Printf("  %-4s  %-16s  %-4s  %-6s  %s\n", "Rank", "Player", "Wins", "Rounds", "Points")
	fmt.Printf("  %-4s  %-16s  %-4s  %-6s  %s\n", "----", "------", "----", "------", "------")
	for i, s := range standings {
		fmt.Printf("  %-4d  %-16s  %-4d  %-6d  %d\n", i+1, s.Name, s.Wins, s.Rounds, s.Points)
	}
}
