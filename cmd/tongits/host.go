package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tongits/internal/catalog"
	"github.com/vovakirdan/tongits/internal/multiplayer"
	"github.com/vovakirdan/tongits/internal/platform/tui"
	"github.com/vovakirdan/tongits/internal/storage"
)

var (
	flagListen    string
	flagNoCatalog bool
	flagAutoStart bool
	flagHostSSH   string
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Open a table and play at seat 0",
	Long: `Open a Tong-its table. You hold seat 0 and the authoritative game;
clients take seats 1 and 2 in the order they join.

The table is announced to the catalog unless --no-catalog is given.
Type "start" once the table is full, or pass --auto-start.

Examples:
  tongits host                       # Random port, announced in the catalog
  tongits host --listen :9000        # Fixed port
  tongits host --no-catalog          # Private table, share the address yourself
  tongits host --ssh :2222           # Also let SSH users join this table`,
	Args: cobra.NoArgs,
	Run:  runHost,
}

func init() {
	hostCmd.Flags().StringVar(&flagListen, "listen", ":0", "TCP address to accept players on")
	hostCmd.Flags().BoolVar(&flagNoCatalog, "no-catalog", false, "Do not announce the table in the catalog")
	hostCmd.Flags().BoolVar(&flagAutoStart, "auto-start", false, "Deal as soon as the table is full")
	hostCmd.Flags().StringVar(&flagHostSSH, "ssh", "", "Also serve an SSH front door on this address")
}

func runHost(_ *cobra.Command, _ []string) {
	if !isInteractive() {
		exitf("tongits host needs a terminal: the host plays at seat 0")
	}
	cfg := loadConfig()
	logger, closeLog := newLogger(true)
	defer closeLog()

	opts := []multiplayer.HostOption{
		multiplayer.WithLogger(logger.WithPrefix("host")),
		multiplayer.WithAutoStart(flagAutoStart),
	}

	// History is best-effort; a table runs without it.
	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open history database", "error", err)
	} else {
		defer store.Close()
		opts = append(opts, multiplayer.WithRoundSaver(store))
	}
	if !flagNoCatalog {
		opts = append(opts, multiplayer.WithRegistrar(catalog.NewUDPRegistrar(cfg.CatalogAddress)))
	}

	h, err := multiplayer.NewHost(cfg, flagName, opts...)
	if err != nil {
		exitf("%v", err)
	}
	if err := h.Listen(flagListen); err != nil {
		exitf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	served := make(chan error, 1)
	go func() { served <- h.Serve(ctx) }()

	if flagHostSSH != "" {
		sshCfg := tui.DefaultSSHServerConfig()
		sshCfg.Address = flagHostSSH
		sshCfg.TableAddr = net.JoinHostPort("127.0.0.1", strconv.Itoa(h.Port()))
		sshCfg.Table = cfg
		srv, err := tui.NewSSHServer(sshCfg, logger.WithPrefix("ssh"))
		if err != nil {
			h.Shutdown()
			<-served
			exitf("%v", err)
		}
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				logger.Error("ssh server stopped", "error", err)
			}
		}()
	}

	width, height := termSize()
	if err := tui.RunTable(h, width, height); err != nil {
		logger.Error("table screen failed", "error", err)
	}
	h.Shutdown()

	if err := <-served; err != nil {
		exitf("%v", err)
	}
}
