package game

import (
	"slices"

	"github.com/vovakirdan/tongits/internal/cards"
)

// settlement tracks the interactive part of ending a round. pending[0] is
// the seat whose input is awaited.
type settlement struct {
	kind       Ending
	pending    []int
	melding    bool
	contenders []int
}

// beginExhaustion starts final melding for every player holding a meld,
// host seat first. With no candidates the round ends without a winner.
func (g *Game) beginExhaustion() {
	var candidates []int
	for seat, p := range g.players {
		if p.HasMeld() {
			candidates = append(candidates, seat)
		}
	}
	if len(candidates) == 0 {
		g.finish(EndingExhaustion, NoWinner, nil)
		return
	}
	g.phase = PhaseSettlement
	g.settle = &settlement{
		kind:       EndingExhaustion,
		pending:    candidates,
		melding:    true,
		contenders: slices.Clone(candidates),
	}
}

// beginChallenge lets the caller expose final melds, then asks every other
// seat, in seat order, to fold or challenge.
func (g *Game) beginChallenge(caller int) {
	pending := []int{caller}
	for seat := range g.players {
		if seat != caller {
			pending = append(pending, seat)
		}
	}
	g.phase = PhaseSettlement
	g.settle = &settlement{
		kind:       EndingChallenge,
		pending:    pending,
		melding:    true,
		contenders: []int{caller},
	}
}

// advance moves past the pending seat and resolves once nobody is left.
func (g *Game) advance() {
	s := g.settle
	s.pending = s.pending[1:]
	s.melding = s.kind == EndingExhaustion
	if len(s.pending) == 0 {
		g.resolve()
	}
}

func (g *Game) resolve() {
	s := g.settle
	points := g.points()
	winner := pickWinner(s.kind, s.contenders, points, g.lastDraw, g.nextSeat())
	g.finish(s.kind, winner, s.contenders)
}

// nextSeat is the player after the active one.
func (g *Game) nextSeat() int {
	if len(g.order) > 1 {
		return g.order[1]
	}
	return g.order[0]
}

// pickWinner applies the lowest-points rule and the tie-breaks. A single
// minimum always wins. On exhaustion a tie goes to lastDraw if it is tied,
// else to next. On challenge lastDraw is dropped from the tie; a sole
// survivor wins, otherwise next does.
func pickWinner(kind Ending, contenders, points []int, lastDraw, next int) int {
	if len(contenders) == 0 {
		return NoWinner
	}
	best := points[contenders[0]]
	for _, seat := range contenders[1:] {
		best = min(best, points[seat])
	}
	var tied []int
	for _, seat := range contenders {
		if points[seat] == best {
			tied = append(tied, seat)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}

	switch kind {
	case EndingExhaustion:
		if slices.Contains(tied, lastDraw) {
			return lastDraw
		}
	case EndingChallenge:
		if slices.Contains(tied, lastDraw) {
			rest := slices.DeleteFunc(slices.Clone(tied), func(s int) bool { return s == lastDraw })
			if len(rest) == 1 {
				return rest[0]
			}
		}
	}
	return next
}

// HandPoints sums the value of the cards in a hand.
func HandPoints(hand []cards.Card, legacy bool) int {
	total := 0
	for _, c := range hand {
		if legacy {
			total += cards.LegacyPoints(c.Rank)
		} else {
			total += cards.Points(c.Rank)
		}
	}
	return total
}

func (g *Game) points() []int {
	out := make([]int, len(g.players))
	for seat, p := range g.players {
		out[seat] = HandPoints(p.Hand, g.cfg.LegacyPoints)
	}
	return out
}

// finish records the round outcome and opens the rematch poll.
func (g *Game) finish(kind Ending, winner int, contenders []int) {
	if winner != NoWinner {
		g.players[winner].Score++
	}
	scores := make([]int, len(g.players))
	for seat, p := range g.players {
		scores[seat] = p.Score
	}
	g.result = &Result{
		Round:      g.round,
		Ending:     kind,
		Winner:     winner,
		Contenders: slices.Clone(contenders),
		Points:     g.points(),
		Scores:     scores,
	}
	g.phase = PhaseRoundOver
	g.settle = nil
	g.votes = make(map[int]bool, len(g.players))
}
