package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tongits/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagTableAddr   string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Seat SSH users at a table",
	Long: `Start an SSH server in front of a running table. Each SSH connection
joins the table as a client, using the SSH user name as display name.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.tongits/host_key

Examples:
  tongits serve --table 127.0.0.1:9000              # Listen on :23234
  tongits serve --table 127.0.0.1:9000 --ssh :2222  # Listen on port 2222

Users can connect with:
  ssh ann@localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().StringVar(&flagTableAddr, "table", "", "Table address (host:port) to seat users at")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	_ = serveCmd.MarkFlagRequired("table")
}

func runServe(_ *cobra.Command, _ []string) {
	table := loadConfig()
	logger, closeLog := newLogger(false)
	defer closeLog()

	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		TableAddr:   flagTableAddr,
		Table:       table,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
	}

	server, err := tui.NewSSHServer(cfg, logger.WithPrefix("ssh"))
	if err != nil {
		exitf("creating server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Seating SSH users at %s, listening on %s\n", cfg.TableAddr, cfg.Address)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(ctx); err != nil {
		exitf("server: %v", err)
	}
}
