package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tongits/internal/config"
	"github.com/vovakirdan/tongits/internal/multiplayer"
	"github.com/vovakirdan/tongits/internal/platform/tui"
)

var joinCmd = &cobra.Command{
	Use:   "join <addr:port>",
	Short: "Join a table by address",
	Long: `Join the Tong-its table listening at addr:port.

Moves are typed commands; press F1 at the table for the full list.

Examples:
  tongits join 192.168.1.20:9000
  tongits join localhost:9000 --name bob`,
	Args: cobra.ExactArgs(1),
	Run:  runJoin,
}

func runJoin(_ *cobra.Command, args []string) {
	if !isInteractive() {
		exitf("tongits join needs a terminal")
	}
	cfg := loadConfig()
	logger, closeLog := newLogger(true)
	defer closeLog()

	if err := joinTable(args[0], cfg, logger); err != nil {
		exitf("%v", err)
	}
}

// joinTable dials addr and runs the table screen until the player leaves.
func joinTable(addr string, cfg config.TableConfig, logger *log.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.StaleAfter())
	defer cancel()

	client, err := multiplayer.Dial(ctx, addr, flagName, cfg,
		multiplayer.WithClientLogger(logger.WithPrefix("client")))
	if err != nil {
		return err
	}
	defer client.Leave() //nolint:errcheck // Already gone if the screen left

	width, height := termSize()
	return tui.RunTable(client, width, height)
}
