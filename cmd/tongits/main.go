// tongits plays the Tong-its rummy game over the network, in the terminal.
//
// Usage:
//
//	tongits host              - Open a table and sit at seat 0
//	tongits join <addr:port>  - Join a table directly
//	tongits lobbies           - Pick an open table from the catalog
//	tongits history           - Show saved rounds and standings
//	tongits serve             - Seat SSH users at an existing table
//
// Global flags:
//
//	--config <path>     - Table config YAML (default: search ~/.tongits, ./configs)
//	--db <path>         - Round history database (default: ~/.tongits/history.db)
//	--name <name>       - Display name (default: OS user)
//	--log-level <lvl>   - debug, info, warn, error
//	--log-file <path>   - Write logs here while the UI owns the terminal
package main

import (
	"fmt"
	"io"
	"os"
	"os/user"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tongits/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagName     string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tongits",
	Short: "Tong-its - Filipino rummy for three, in your terminal",
	Long: `Tong-its is a three-player rummy game. One player hosts a table and
holds the authoritative game; the others join over TCP.

Available commands:
  host     - Open a table and play at seat 0
  join     - Join a table by address
  lobbies  - Browse open tables in the catalog and join one
  history  - View saved rounds and standings
  serve    - SSH front door: every SSH user joins a table

Examples:
  tongits host --listen :9000
  tongits join 192.168.1.20:9000 --name ann
  tongits lobbies
  tongits serve --table 127.0.0.1:9000 --ssh :2222
  tongits history`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to table config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.tongits/history.db", "Path to round history database")
	rootCmd.PersistentFlags().StringVar(&flagName, "name", defaultName(), "Display name at the table")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Log file while the terminal UI runs (default: discard)")

	// Add subcommands
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(lobbiesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

// exitf reports a fatal error and exits.
func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func defaultName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if n := os.Getenv("USER"); n != "" {
		return n
	}
	return "player"
}

// loadConfig reads .env, then the table YAML, then TONGITS_* overrides.
func loadConfig() config.TableConfig {
	if err := config.LoadDotEnv(".env"); err != nil {
		exitf("%v", err)
	}
	cfg, err := config.LoadTable(flagConfig)
	if err != nil {
		exitf("%v", err)
	}
	return cfg
}

// newLogger builds the process logger. While the terminal UI runs, logs go
// to --log-file or nowhere.
func newLogger(interactive bool) (*log.Logger, func()) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		exitf("bad --log-level %q: %v", flagLogLevel, err)
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case flagLogFile != "":
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			exitf("cannot open log file: %v", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	case interactive:
		w = io.Discard
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "tongits",
	}), closeFn
}

// isInteractive reports whether stdin and stdout are both terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// termSize returns the terminal size, or 80x24.
func termSize() (int, int) {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	return width, height
}
