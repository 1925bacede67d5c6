package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/tongits/internal/config"
	"github.com/vovakirdan/tongits/internal/multiplayer"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.tongits/host_key.
	HostKeyPath string

	// TableAddr is the table every SSH user is seated at.
	TableAddr string

	// Table configures the client connection to the table.
	Table config.TableConfig

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		Table:       config.DefaultTableConfig(),
		IdleTimeout: 30 * time.Minute,
	}
}

// dialFunc connects one SSH user to the table.
type dialFunc func(ctx context.Context, addr, name string, cfg config.TableConfig) (Seat, error)

// SSHServer wraps a Wish SSH server. Each SSH user becomes a client of the
// configured table.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	logger *log.Logger
	dial   dialFunc
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig, logger *log.Logger) (*SSHServer, error) {
	if cfg.TableAddr == "" {
		return nil, errors.New("tui: ssh server needs a table address")
	}
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "tongits-ssh",
		})
	}

	srv := &SSHServer{
		config: cfg,
		logger: logger,
	}
	srv.dial = func(ctx context.Context, addr, name string, tc config.TableConfig) (Seat, error) {
		return multiplayer.Dial(ctx, addr, name, tc,
			multiplayer.WithClientLogger(logger.WithPrefix("ssh:"+name)))
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".tongits", "host_key")
	}

	// Ensure host key directory exists
	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler seats the SSH user at the table and returns its table screen.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		wish.Println(sshSession, "tongits needs a terminal; connect with ssh -t")
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(sshSession.Context(), s.config.Table.StaleAfter())
	defer cancel()
	seat, err := s.dial(ctx, s.config.TableAddr, sshSession.User(), s.config.Table)
	if err != nil {
		wish.Println(sshSession, "could not join the table: "+err.Error())
		s.logger.Warn("join failed", "user", sshSession.User(), "error", err)
		return nil, nil
	}
	context.AfterFunc(sshSession.Context(), func() {
		//nolint:errcheck // Session is gone, nothing to report to
		seat.Leave()
	})

	model := NewTableModel(seat, pty.Window.Width, pty.Window.Height)
	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until ctx is done.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address, "table", s.config.TableAddr)

	errc := make(chan error, 1)
	go func() {
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
