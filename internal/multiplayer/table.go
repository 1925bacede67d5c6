package multiplayer

import (
	"fmt"

	"github.com/vovakirdan/tongits/internal/game"
	"github.com/vovakirdan/tongits/internal/protocol"
)

// applyAction routes a decoded action to the matching game operation. The
// game re-validates everything, so a client can never move on another
// seat's behalf or with cards it does not hold.
func applyAction(g *game.Game, seat int, a protocol.Action) error {
	switch m := a.(type) {
	case protocol.PickDeck:
		return g.PickDeck(seat)
	case protocol.PickDiscard:
		return g.PickDiscard(seat, m.Cards)
	case protocol.Expose:
		return g.Expose(seat, m.Cards)
	case protocol.LayOff:
		return g.LayOff(seat, m.Card, m.Owner, m.Meld)
	case protocol.Discard:
		return g.Discard(seat, m.Card)
	case protocol.Draw:
		return g.CallDraw(seat)
	case protocol.Challenge:
		return g.Respond(seat, m.Value == 1)
	case protocol.Done:
		return g.FinishMelding(seat)
	case protocol.Rematch:
		return g.Vote(seat, m.Value == 1)
	}
	return fmt.Errorf("multiplayer: unsupported action %q", a.Command())
}
