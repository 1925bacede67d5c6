package multiplayer

import (
	"github.com/vovakirdan/tongits/internal/protocol"
)

// Every broadcast runs with the host mutex held, so all seats observe
// messages in the same order.

// broadcastLocked sends msg to the host seat and every joined client.
func (h *Host) broadcastLocked(msg protocol.Message) {
	h.local.Send(msg)
	for _, e := range h.registry.Entries() {
		e.Peer.Send(msg)
	}
}

// broadcastStateLocked pushes each seat its own view of the table.
func (h *Host) broadcastStateLocked() {
	if h.game == nil {
		return
	}
	h.local.Send(protocol.GameState{View: h.game.ViewFor(HostSeat)})
	for _, e := range h.registry.Entries() {
		if e.Seat == NoSeat {
			continue
		}
		e.Peer.Send(protocol.GameState{View: h.game.ViewFor(e.Seat)})
	}
}

func (h *Host) membershipLocked() protocol.Refresh {
	return protocol.Refresh{Host: h.name, ClientNames: h.registry.Names()}
}

// broadcastMembershipLocked pushes membership after a join or a departure
// and schedules a presence update.
func (h *Host) broadcastMembershipLocked() {
	h.broadcastLocked(h.membershipLocked())
	select {
	case h.presence <- struct{}{}:
	default:
	}
}
