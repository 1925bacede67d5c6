package game

import (
	"github.com/vovakirdan/tongits/internal/cards"
	"github.com/vovakirdan/tongits/internal/meld"
)

// Prompt tells a recipient what input the table expects from them.
type Prompt string

const (
	PromptWait    Prompt = "wait"    // nothing expected from this seat
	PromptDraw    Prompt = "draw"    // pick from deck or discard, or call draw
	PromptPlay    Prompt = "play"    // meld, lay off, call draw, then discard
	PromptRespond Prompt = "respond" // fold or challenge a draw call
	PromptMeld    Prompt = "meld"    // expose final melds, then done
	PromptVote    Prompt = "vote"    // accept or decline a rematch
)

// PlayerView is one player as seen by a particular recipient. Hand is only
// set for the recipient's own seat.
type PlayerView struct {
	Name     string         `json:"name"`
	Score    int            `json:"score"`
	Hand     []cards.Card   `json:"hand,omitempty"`
	NumCards int            `json:"num_cards"`
	Melds    [][]cards.Card `json:"melds"`
	CanDraw  bool           `json:"can_draw"`
}

// Hints are derived moves the recipient could make right now. They are
// advisory; the host re-validates every action.
type Hints struct {
	CanPickDiscard bool `json:"can_pick_discard"`
	CanExpose      bool `json:"can_expose"`
	CanCallDraw    bool `json:"can_call_draw"`
}

// View is the per-recipient snapshot pushed after every change.
type View struct {
	ID       int          `json:"id"`
	Round    int          `json:"round"`
	Phase    Phase        `json:"phase"`
	DeckSize int          `json:"deck_size"`
	Discard  []cards.Card `json:"discard"`
	Order    []int        `json:"order"`
	Winner   int          `json:"winner"`
	Ending   Ending       `json:"ending"`
	// Pending is the seat whose settlement input is awaited.
	Pending int          `json:"pending"`
	Prompt  Prompt       `json:"prompt"`
	Players []PlayerView `json:"players"`
	Hints   Hints        `json:"hints"`
	Result  *Result      `json:"result,omitempty"`
}

// ViewFor builds the snapshot for seat. Other players' hands are reduced to
// a card count.
func (g *Game) ViewFor(seat int) View {
	v := View{
		ID:       seat,
		Round:    g.round,
		Phase:    g.phase,
		DeckSize: g.deck.Len(),
		Discard:  g.discard.Cards(),
		Order:    g.Order(),
		Winner:   NoWinner,
		Ending:   EndingNone,
		Players:  make([]PlayerView, len(g.players)),
		Prompt:   g.promptFor(seat),
	}
	v.Pending, _ = g.Pending()
	if g.result != nil {
		r := *g.result
		v.Result = &r
		v.Winner = r.Winner
		v.Ending = r.Ending
	}

	for i, p := range g.players {
		pv := PlayerView{
			Name:     p.Name,
			Score:    p.Score,
			NumCards: len(p.Hand),
			Melds:    make([][]cards.Card, len(p.Melds)),
			CanDraw:  p.CanDraw,
		}
		for j, m := range p.Melds {
			pv.Melds[j] = cards.Clone(m)
		}
		if i == seat {
			pv.Hand = cards.Clone(p.Hand)
		}
		v.Players[i] = pv
	}

	if me := g.Player(seat); me != nil {
		v.Hints = g.hintsFor(seat, me)
	}
	return v
}

func (g *Game) promptFor(seat int) Prompt {
	switch g.phase {
	case PhaseAwaitingDraw:
		if seat == g.order[0] {
			return PromptDraw
		}
	case PhasePostDraw:
		if seat == g.order[0] {
			return PromptPlay
		}
	case PhaseSettlement:
		if s, melding := g.Pending(); s == seat {
			if melding {
				return PromptMeld
			}
			return PromptRespond
		}
	case PhaseRoundOver:
		if !g.Voted(seat) {
			return PromptVote
		}
	}
	return PromptWait
}

func (g *Game) hintsFor(seat int, me *Player) Hints {
	var h Hints
	active := seat == g.order[0]
	switch g.phase {
	case PhaseAwaitingDraw:
		if top, ok := g.discard.Top(); ok && active {
			withTop := append(cards.Clone(me.Hand), top)
			h.CanPickDiscard = meld.Exists(withTop, &top)
		}
		h.CanCallDraw = active && me.CanDraw
	case PhasePostDraw:
		h.CanExpose = active && meld.Exists(me.Hand, nil)
		h.CanCallDraw = active && me.CanDraw
	case PhaseSettlement:
		if s, melding := g.Pending(); s == seat && melding {
			h.CanExpose = meld.Exists(me.Hand, nil)
		}
	}
	return h
}
