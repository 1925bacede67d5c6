package multiplayer

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/vovakirdan/tongits/internal/protocol"
)

// handleConn owns one accepted connection from handshake to removal.
func (h *Host) handleConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()

	// Until the client is admitted nothing else knows about this socket, so
	// tie it to the host's lifetime directly.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.StaleAfter()))

	msg, err := protocol.Receive(conn, h.cfg.MaxMessageBytes, protocol.ToHost)
	if err != nil {
		h.logger.Debug("handshake failed", "remote", remote, "err", err)
		if !errors.Is(err, protocol.ErrDisconnected) {
			h.refuse(conn, ReasonViolation)
		}
		stop()
		_ = conn.Close()
		return
	}
	join, ok := msg.(protocol.Join)
	if !ok {
		h.logger.Warn("first message was not join", "remote", remote, "command", msg.Command())
		h.refuse(conn, ReasonViolation)
		stop()
		_ = conn.Close()
		return
	}
	if !stop() {
		// Host is going away and the socket is already closed.
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	id := NewConnID()
	peer := newConnPeer(id, conn, h.cfg.OutboundQueue, h.cfg.SendTimeout, h.logger)
	entry, ok := h.admit(id, join.Name, peer)
	if !ok {
		return
	}
	h.serveConn(entry, conn)
}

// refuse answers a bad handshake directly; no peer exists yet.
func (h *Host) refuse(conn net.Conn, reason string) {
	_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.SendTimeout))
	_ = protocol.Send(conn, protocol.JoinReply{Status: protocol.StatusFailure, Reason: reason})
}

// admit registers a client or rejects it without touching any state.
func (h *Host) admit(id ConnID, name string, peer *connPeer) (*Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reason := ""
	switch {
	case h.closed:
		reason = ReasonClosing
	case h.registry.Full():
		reason = ReasonTableFull
	case name == h.name || h.registry.HasName(name):
		reason = ReasonNameTaken
	}
	if reason != "" {
		h.logger.Info("join rejected", "conn", id, "name", name, "reason", reason)
		peer.Send(protocol.JoinReply{Status: protocol.StatusFailure, Reason: reason})
		peer.Close()
		return nil, false
	}

	now := time.Now()
	e := &Entry{ID: id, Name: name, JoinedAt: now, LastPing: now, Seat: NoSeat, Peer: peer}
	h.registry.Add(e)
	peer.Send(protocol.JoinReply{Status: protocol.StatusSuccess})
	h.logger.Info("client joined", "conn", id, "name", name, "clients", h.registry.Count())
	h.broadcastMembershipLocked()

	if h.autoStart && h.game == nil && h.registry.Full() {
		if err := h.startLocked(); err != nil {
			h.logger.Error("auto start", "err", err)
		}
	}
	return e, true
}

// serveConn reads requests until the client leaves or the socket dies.
func (h *Host) serveConn(e *Entry, conn net.Conn) {
	for {
		msg, err := protocol.Receive(conn, h.cfg.MaxMessageBytes, protocol.ToHost)
		if err != nil {
			h.mu.Lock()
			if errors.Is(err, protocol.ErrDisconnected) {
				h.removeLocked(e, "disconnected")
			} else {
				h.logger.Warn("protocol violation", "conn", e.ID, "name", e.Name, "err", err)
				h.kickLocked(e, ReasonViolation)
			}
			h.mu.Unlock()
			return
		}
		if !h.dispatch(e, msg) {
			return
		}
	}
}

// dispatch handles one request. It returns false once the client is gone.
func (h *Host) dispatch(e *Entry, msg protocol.Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.registry.Get(e.ID); !ok {
		return false
	}
	e.LastPing = time.Now()

	switch m := msg.(type) {
	case protocol.Ping:
	case protocol.GetClientNames:
		r := h.membershipLocked()
		e.Peer.Send(protocol.ClientNames{Host: r.Host, ClientNames: r.ClientNames})
	case protocol.GameStateRequest:
		if h.game == nil || e.Seat == NoSeat {
			e.Peer.Send(protocol.Result{Action: protocol.CmdGameState, Status: protocol.StatusFailure, Reason: ErrNoRound.Error()})
			break
		}
		e.Peer.Send(protocol.GameState{View: h.game.ViewFor(e.Seat)})
	case protocol.Leave:
		h.removeLocked(e, "leave")
		return false
	case protocol.Join:
		h.logger.Warn("duplicate join", "conn", e.ID, "name", e.Name)
		h.kickLocked(e, ReasonViolation)
		return false
	case protocol.Action:
		if e.Seat == NoSeat {
			e.Peer.Send(resultFor(m, ErrNoRound))
			break
		}
		_ = h.actLocked(e.Seat, m, e.Peer)
	default:
		h.kickLocked(e, ReasonViolation)
		return false
	}
	return true
}
