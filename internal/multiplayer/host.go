package multiplayer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tongits/internal/catalog"
	"github.com/vovakirdan/tongits/internal/config"
	"github.com/vovakirdan/tongits/internal/game"
	"github.com/vovakirdan/tongits/internal/protocol"
)

// HostOption customizes a Host.
type HostOption func(*Host)

// WithLogger sets the host logger.
func WithLogger(l *log.Logger) HostOption {
	return func(h *Host) { h.logger = l }
}

// WithRoundSaver records every resolved round.
func WithRoundSaver(s RoundSaver) HostOption {
	return func(h *Host) { h.saver = s }
}

// WithRegistrar advertises the table on a presence catalog.
func WithRegistrar(r catalog.Registrar) HostOption {
	return func(h *Host) { h.registrar = r }
}

// WithAutoStart deals the first round as soon as the party is full.
func WithAutoStart(on bool) HostOption {
	return func(h *Host) { h.autoStart = on }
}

// WithGameOptions passes options to every game the host creates.
func WithGameOptions(opts ...game.Option) HostOption {
	return func(h *Host) { h.gameOpts = append(h.gameOpts, opts...) }
}

// Host accepts clients and runs the authoritative table. The host player
// always sits at HostSeat and plays through Submit.
type Host struct {
	cfg       config.TableConfig
	name      string
	id        TableID
	logger    *log.Logger
	saver     RoundSaver
	registrar catalog.Registrar
	autoStart bool
	gameOpts  []game.Option

	ln    net.Listener
	local *ChannelSession

	// mu guards everything below together with every Entry.
	mu         sync.Mutex
	registry   *Registry
	game       *game.Game
	savedRound int
	serving    bool
	closed     bool
	cancel     context.CancelFunc

	presence chan struct{}
	handlers sync.WaitGroup
	saves    sync.WaitGroup
}

// NewHost creates a host for a table owned by name.
func NewHost(cfg config.TableConfig, name string, opts ...HostOption) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("multiplayer: host name must not be empty")
	}
	h := &Host{
		cfg:      cfg,
		name:     name,
		id:       TableID(uuid.NewString()),
		logger:   log.New(io.Discard),
		local:    NewChannelSession(NewConnID(), cfg.OutboundQueue),
		registry: NewRegistry(cfg.MaxClients),
		presence: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Listen binds the table's TCP listener. An address with port 0 picks a
// free port; see Addr.
func (h *Host) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("multiplayer: listen %s: %w", addr, err)
	}
	h.ln = ln
	h.logger.Info("listening", "addr", ln.Addr().String(), "table", h.id)
	return nil
}

// Addr returns the listener address, or nil before Listen.
func (h *Host) Addr() net.Addr {
	if h.ln == nil {
		return nil
	}
	return h.ln.Addr()
}

// Port returns the listening TCP port.
func (h *Host) Port() int {
	if tcp, ok := h.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// ID returns the table identifier used in saved history.
func (h *Host) ID() TableID { return h.id }

// Name returns the host player's display name.
func (h *Host) Name() string { return h.name }

// Serve runs the accept loop, the liveness supervisor and the presence loop
// until ctx is cancelled, Shutdown is called, or one of them fails. Every
// client is then sent a disband notice.
func (h *Host) Serve(ctx context.Context) error {
	if h.ln == nil {
		return ErrNotListening
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.mu.Lock()
	if h.closed || h.serving {
		h.mu.Unlock()
		return ErrHostClosed
	}
	h.serving = true
	h.cancel = cancel
	h.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return h.ln.Close()
	})
	g.Go(func() error { return h.acceptLoop(gctx) })
	g.Go(func() error { return h.superviseLoop(gctx) })
	g.Go(func() error { return h.presenceLoop(gctx) })

	err := g.Wait()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	h.disband()
	h.handlers.Wait()
	h.saves.Wait()
	if err != nil {
		h.logger.Error("host stopped", "err", err)
	} else {
		h.logger.Info("host stopped")
	}
	return err
}

// Shutdown stops Serve. It is safe to call more than once, and before Serve.
func (h *Host) Shutdown() {
	h.mu.Lock()
	cancel := h.cancel
	serving := h.serving
	h.mu.Unlock()

	if serving {
		cancel()
		return
	}
	h.disband()
	if h.ln != nil {
		_ = h.ln.Close()
	}
	h.saves.Wait()
}

func (h *Host) acceptLoop(ctx context.Context) error {
	for {
		conn, err := h.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("multiplayer: accept: %w", err)
		}
		h.handlers.Add(1)
		go func() {
			defer h.handlers.Done()
			h.handleConn(ctx, conn)
		}()
	}
}

// disband tells everyone the table is gone and closes every peer.
func (h *Host) disband() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, e := range h.registry.Entries() {
		e.Peer.Send(protocol.Disband{})
		e.Peer.Close()
		h.registry.Remove(e.ID)
	}
	h.local.Send(protocol.Disband{})
	h.local.Close()
	h.game = nil
}

// Updates carries every message addressed to the host's own seat.
func (h *Host) Updates() <-chan protocol.Message {
	return h.local.Events()
}

// Done closes once the host has disbanded.
func (h *Host) Done() <-chan struct{} {
	return h.local.Done()
}

// View returns the host player's current view.
func (h *Host) View() (game.View, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.game == nil {
		return game.View{}, false
	}
	return h.game.ViewFor(HostSeat), true
}

// Members returns the current membership.
func (h *Host) Members() protocol.Refresh {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.membershipLocked()
}

// RequestNames pushes the membership list to Updates.
func (h *Host) RequestNames() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	r := h.membershipLocked()
	h.local.Send(protocol.ClientNames{Host: r.Host, ClientNames: r.ClientNames})
	return nil
}

// RequestState pushes the host seat's view to Updates.
func (h *Host) RequestState() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	if h.game == nil {
		h.local.Send(protocol.Result{Action: protocol.CmdGameState, Status: protocol.StatusFailure, Reason: ErrNoRound.Error()})
		return nil
	}
	h.local.Send(protocol.GameState{View: h.game.ViewFor(HostSeat)})
	return nil
}

// Leave disbands the table; the host seat cannot leave on its own.
func (h *Host) Leave() error {
	h.Shutdown()
	return nil
}

// Start deals the first round for the host and every joined client.
func (h *Host) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.startLocked()
}

func (h *Host) startLocked() error {
	if h.closed {
		return ErrHostClosed
	}
	if h.game != nil {
		return ErrRoundRunning
	}
	if h.registry.Count() < h.cfg.MinClients {
		return ErrPartyTooSmall
	}

	entries := h.registry.Entries()
	names := make([]string, 0, len(entries)+1)
	names = append(names, h.name)
	for _, e := range entries {
		names = append(names, e.Name)
	}
	g, err := game.New(names, game.Config{HandSize: h.cfg.HandSize, LegacyPoints: h.cfg.LegacyPoints}, h.gameOpts...)
	if err != nil {
		return err
	}
	for i, e := range entries {
		e.Seat = i + 1
	}
	h.game = g
	h.savedRound = 0
	h.logger.Info("round dealt", "round", g.Round(), "players", names, "order", g.Order())
	h.broadcastLocked(protocol.Start{Round: g.Round()})
	h.broadcastStateLocked()
	return nil
}

// Submit applies an action for the host player.
func (h *Host) Submit(a protocol.Action) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	return h.actLocked(HostSeat, a, nil)
}

// actLocked applies a seat's action. reply, if set, receives the result
// before the new state is broadcast.
func (h *Host) actLocked(seat int, a protocol.Action, reply Peer) error {
	if h.game == nil {
		err := ErrNoRound
		if reply != nil {
			reply.Send(resultFor(a, err))
		}
		return err
	}

	round := h.game.Round()
	err := applyAction(h.game, seat, a)
	if reply != nil {
		reply.Send(resultFor(a, err))
	}
	if err != nil {
		h.logger.Debug("action rejected", "seat", seat, "action", a.Command(), "err", err)
		return err
	}
	h.logger.Debug("action applied", "seat", seat, "action", a.Command(), "phase", h.game.Phase())

	if h.game.Round() != round {
		h.broadcastLocked(protocol.Start{Round: h.game.Round()})
	}
	if h.game.Phase() == game.PhaseRoundOver && h.savedRound != h.game.Round() {
		h.recordLocked()
	}
	h.broadcastStateLocked()

	if h.game.Phase() == game.PhaseClosed {
		h.logger.Info("rematch declined, table back to lobby")
		h.clearTableLocked()
	}
	return nil
}

func resultFor(a protocol.Action, err error) protocol.Result {
	r := protocol.Result{Action: a.Command(), Status: protocol.StatusOf(err == nil)}
	if err != nil {
		r.Reason = err.Error()
	}
	return r
}

// recordLocked hands the resolved round to the saver without blocking play.
// Serve and Shutdown wait for pending saves before returning.
func (h *Host) recordLocked() {
	h.savedRound = h.game.Round()
	res := h.game.Result()
	names := make([]string, h.game.NumPlayers())
	for seat := range names {
		names[seat] = h.game.Player(seat).Name
	}
	rec := RoundRecord{
		TableID:  h.id,
		Round:    res.Round,
		Ending:   res.Ending.String(),
		Players:  names,
		Points:   res.Points,
		Scores:   res.Scores,
		PlayedAt: time.Now(),
	}
	if res.Winner != game.NoWinner {
		rec.Winner = names[res.Winner]
	}
	h.logger.Info("round resolved", "round", rec.Round, "ending", rec.Ending, "winner", rec.Winner, "points", rec.Points)

	if h.saver == nil {
		return
	}
	saver, logger := h.saver, h.logger
	h.saves.Add(1)
	go func() {
		defer h.saves.Done()
		if err := saver.SaveRound(rec); err != nil {
			logger.Error("save round", "err", err)
		}
	}()
}

// clearTableLocked drops the game and unseats everyone.
func (h *Host) clearTableLocked() {
	h.game = nil
	for _, e := range h.registry.Entries() {
		e.Seat = NoSeat
	}
}

// abortLocked tears down a running round.
func (h *Host) abortLocked(reason string) {
	if h.game == nil {
		return
	}
	h.logger.Warn("round aborted", "reason", reason)
	h.clearTableLocked()
	h.broadcastLocked(protocol.Abort{Reason: reason})
}

// removeLocked drops a client for good. A seated client leaving aborts the
// round, since the party can no longer continue.
func (h *Host) removeLocked(e *Entry, why string) {
	if _, ok := h.registry.Remove(e.ID); !ok {
		return
	}
	e.Peer.Close()
	h.logger.Info("client removed", "conn", e.ID, "name", e.Name, "reason", why)
	if e.Seat != NoSeat {
		h.abortLocked(fmt.Sprintf("%s left the table", e.Name))
	}
	h.broadcastMembershipLocked()
}

// kickLocked notifies a client before removing it.
func (h *Host) kickLocked(e *Entry, reason string) {
	e.Peer.Send(protocol.Kick{Reason: reason})
	h.removeLocked(e, reason)
}
