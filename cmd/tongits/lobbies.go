package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tongits/internal/catalog"
	"github.com/vovakirdan/tongits/internal/platform/tui"
)

var flagPlainList bool

var lobbiesCmd = &cobra.Command{
	Use:   "lobbies",
	Short: "Browse open tables and join one",
	Long: `List the open tables announced in the catalog. In a terminal this opens
a picker that refreshes itself; choosing a table joins it.

Only tables of the configured entry_type that were heard from within one
register_interval and still have a free seat are shown.

Examples:
  tongits lobbies
  tongits lobbies --plain    # Print the list and exit`,
	Args: cobra.NoArgs,
	Run:  runLobbies,
}

func init() {
	lobbiesCmd.Flags().BoolVar(&flagPlainList, "plain", false, "Print the list instead of opening the picker")
}

func runLobbies(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	interactive := !flagPlainList && isInteractive()
	logger, closeLog := newLogger(interactive)
	defer closeLog()

	client := catalog.NewClient(cfg.CatalogAddress, cfg.CatalogTimeout)
	filter := catalog.Filter{
		EntryType:   cfg.EntryType,
		MaxClients:  cfg.MaxClients,
		FreshWithin: cfg.RegisterInterval,
	}

	if !interactive {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.CatalogTimeout)
		lobbies, err := client.Lobbies(ctx, filter)
		cancel()
		if err != nil {
			exitf("%v", err)
		}
		printLobbies(lobbies, cfg.MaxClients)
		return
	}

	width, height := termSize()
	for {
		selected, err := tui.RunLobbyMenu(client, filter, cfg.PingInterval, cfg.CatalogTimeout, width, height)
		if err != nil {
			exitf("%v", err)
		}
		if selected == nil {
			return
		}
		logger.Info("joining lobby", "owner", selected.Owner, "addr", selected.Addr())
		if err := joinTable(selected.Addr(), cfg, logger); err != nil {
			// Back to the picker; the table may have filled up meanwhile.
			fmt.Printf("Could not join %s: %v\n", selected.Owner, err)
			time.Sleep(2 * time.Second)
			continue
		}
		return
	}
}

func printLobbies(lobbies []catalog.Lobby, maxClients int) {
	if len(lobbies) == 0 {
		fmt.Println("No open tables.")
		fmt.Println()
		fmt.Println("Run 'tongits host' to open one!")
		return
	}

	fmt.Println("Open tables:")
	fmt.Println()

	// Calculate column widths
	maxOwnerLen := 5 // "Owner" header
	for _, l := range lobbies {
		if len(l.Owner) > maxOwnerLen {
			maxOwnerLen = len(l.Owner)
		}
	}

	// Print header
	fmt.Printf("  %-*s  %-21s  %-6s  %s\n", maxOwnerLen, "Owner", "Address", "Seated", "Heard")
	fmt.Printf("  %-*s  %-21s  %-6s  %s\n", maxOwnerLen, "-----", "-------", "------", "-----")

	now := time.Now()
	for _, l := range lobbies {
		fmt.Printf("  %-*s  %-21s  %d/%-4d  %s ago\n", maxOwnerLen, l.Owner, l.Addr(),
			l.NumClients, maxClients, now.Sub(l.LastHeardFrom).Truncate(time.Second))
	}

	fmt.Println()
	fmt.Println("Run 'tongits join <address>' to sit down.")
}
