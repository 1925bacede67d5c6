package game

import (
	"fmt"
	"slices"

	"github.com/vovakirdan/tongits/internal/cards"
	"github.com/vovakirdan/tongits/internal/meld"
)

// DeckSource produces the deck for a new round.
type DeckSource func() (*cards.Deck, error)

// Option customizes a new Game.
type Option func(*Game)

// WithDeckSource replaces the shuffled deck used for every deal.
func WithDeckSource(src DeckSource) Option {
	return func(g *Game) { g.deckSource = src }
}

// WithOrder fixes the turn order instead of drawing a random one.
func WithOrder(order []int) Option {
	return func(g *Game) { g.order = slices.Clone(order) }
}

// Game is one table's authoritative state. It is not safe for concurrent use.
type Game struct {
	cfg        Config
	deckSource DeckSource

	players []*Player
	deck    *cards.Deck
	discard cards.Pile
	// discardBy[i] is the seat that discarded the i-th card of the pile.
	discardBy []int

	// order[0] is the active seat.
	order    []int
	phase    Phase
	lastDraw int
	round    int

	settle *settlement
	result *Result
	votes  map[int]bool
}

// New seats the named players and deals the first round. Seat numbers follow
// the order of names; the turn order is a random permutation unless fixed
// with WithOrder.
func New(names []string, cfg Config, opts ...Option) (*Game, error) {
	if len(names) < 2 {
		return nil, ErrTooFewPlayers
	}
	if cfg.HandSize <= 0 {
		cfg.HandSize = DefaultHandSize
	}
	if cfg.HandSize*len(names) >= cards.DeckSize {
		return nil, ErrBadHandSize
	}

	g := &Game{
		cfg:        cfg,
		deckSource: cards.NewDeck,
		players:    make([]*Player, len(names)),
		lastDraw:   NoWinner,
	}
	for i, n := range names {
		g.players[i] = &Player{Name: n}
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.order == nil {
		order, err := cards.Permutation(len(names))
		if err != nil {
			return nil, err
		}
		g.order = order
	} else if !isPermutation(g.order, len(names)) {
		return nil, fmt.Errorf("game: invalid turn order %v", g.order)
	}

	if err := g.deal(); err != nil {
		return nil, err
	}
	return g, nil
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, s := range order {
		if s < 0 || s >= n || seen[s] {
			return false
		}
		seen[s] = true
	}
	return true
}

// deal starts a fresh round with the current turn order and scores.
func (g *Game) deal() error {
	deck, err := g.deckSource()
	if err != nil {
		return fmt.Errorf("game: new deck: %w", err)
	}
	if deck.Len() < g.cfg.HandSize*len(g.players)+1 {
		return ErrBadHandSize
	}

	g.deck = deck
	g.discard = cards.Pile{}
	g.discardBy = nil
	for _, p := range g.players {
		p.Hand = nil
		p.Melds = nil
		p.CanDraw = false
	}
	for i := 0; i < g.cfg.HandSize; i++ {
		for _, seat := range g.order {
			c, _ := g.deck.Draw()
			g.players[seat].Hand = append(g.players[seat].Hand, c)
		}
	}
	for _, p := range g.players {
		cards.Sort(p.Hand)
	}

	g.round++
	g.phase = PhaseAwaitingDraw
	g.lastDraw = NoWinner
	g.settle = nil
	g.result = nil
	g.votes = nil
	return nil
}

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.phase }

// Round returns the 1-based round number.
func (g *Game) Round() int { return g.round }

// Active returns the seat whose turn it is.
func (g *Game) Active() int { return g.order[0] }

// Order returns a copy of the turn order, active seat first.
func (g *Game) Order() []int { return slices.Clone(g.order) }

// NumPlayers returns the number of seats.
func (g *Game) NumPlayers() int { return len(g.players) }

// Player returns the seat's player. Callers must not modify it.
func (g *Game) Player(seat int) *Player {
	if seat < 0 || seat >= len(g.players) {
		return nil
	}
	return g.players[seat]
}

// LastDraw returns the seat that most recently drew from the deck, or NoWinner.
func (g *Game) LastDraw() int { return g.lastDraw }

// DeckLen returns the number of cards left in the deck.
func (g *Game) DeckLen() int { return g.deck.Len() }

// Result returns the outcome of the last resolved round, or nil while a
// round is being played.
func (g *Game) Result() *Result { return g.result }

// CardCount returns the number of cards held anywhere on the table. It is
// always cards.DeckSize for a full deck.
func (g *Game) CardCount() int {
	n := g.deck.Len() + g.discard.Len()
	for _, p := range g.players {
		n += len(p.Hand)
		for _, m := range p.Melds {
			n += len(m)
		}
	}
	return n
}

// Pending returns the seat whose settlement input is awaited and whether it
// is exposing final melds. seat is NoWinner outside settlement.
func (g *Game) Pending() (seat int, melding bool) {
	if g.phase != PhaseSettlement || g.settle == nil || len(g.settle.pending) == 0 {
		return NoWinner, false
	}
	return g.settle.pending[0], g.settle.melding
}

func (g *Game) checkSeat(seat int) error {
	if seat < 0 || seat >= len(g.players) {
		return ErrUnknownSeat
	}
	return nil
}

// checkTurn verifies the seat is active and the phase is one of allowed.
func (g *Game) checkTurn(seat int, allowed ...Phase) error {
	if err := g.checkSeat(seat); err != nil {
		return err
	}
	if !slices.Contains(allowed, g.phase) {
		return ErrWrongPhase
	}
	if seat != g.order[0] {
		return ErrNotYourTurn
	}
	return nil
}

// PickDeck draws the top card of the deck into the active player's hand.
func (g *Game) PickDeck(seat int) error {
	if err := g.checkTurn(seat, PhaseAwaitingDraw); err != nil {
		return err
	}
	c, ok := g.deck.Draw()
	if !ok {
		return ErrDeckEmpty
	}
	p := g.players[seat]
	p.Hand = append(p.Hand, c)
	cards.Sort(p.Hand)
	p.CanDraw = false
	g.lastDraw = seat
	g.phase = PhasePostDraw
	return nil
}

// PickDiscard takes the top of the discard pile, which must immediately form
// a meld with the given cards from the player's hand.
func (g *Game) PickDiscard(seat int, with []cards.Card) error {
	if err := g.checkTurn(seat, PhaseAwaitingDraw); err != nil {
		return err
	}
	top, ok := g.discard.Top()
	if !ok {
		return ErrDiscardEmpty
	}
	p := g.players[seat]
	rest, ok := cards.Remove(p.Hand, with)
	if !ok {
		return ErrCardNotInHand
	}
	m := append([]cards.Card{top}, with...)
	if !meld.IsLegal(m) {
		return ErrIllegalMeld
	}

	g.discard.Pop()
	from := g.discardBy[len(g.discardBy)-1]
	g.discardBy = g.discardBy[:len(g.discardBy)-1]
	cards.Sort(m)
	p.Hand = rest
	p.Melds = append(p.Melds, m)
	p.CanDraw = false
	g.players[from].CanDraw = false
	g.phase = PhasePostDraw

	if len(p.Hand) == 0 {
		g.finish(EndingEmptyHand, seat, []int{seat})
	}
	return nil
}

// Expose lays a meld from the hand face up. It is allowed for the active
// player after drawing, and for the pending player during final melding.
func (g *Game) Expose(seat int, cs []cards.Card) error {
	if err := g.checkSeat(seat); err != nil {
		return err
	}
	switch g.phase {
	case PhasePostDraw:
		if seat != g.order[0] {
			return ErrNotYourTurn
		}
	case PhaseSettlement:
		if s, melding := g.Pending(); !melding || s != seat {
			return ErrNotYourTurn
		}
	default:
		return ErrWrongPhase
	}

	p := g.players[seat]
	rest, ok := cards.Remove(p.Hand, cs)
	if !ok {
		return ErrCardNotInHand
	}
	if !meld.IsLegal(cs) {
		return ErrIllegalMeld
	}
	m := cards.Clone(cs)
	cards.Sort(m)
	p.Hand = rest
	p.Melds = append(p.Melds, m)

	if len(p.Hand) == 0 {
		g.finish(EndingEmptyHand, seat, []int{seat})
	}
	return nil
}

// LayOff adds one card from the active player's hand to an exposed meld.
// The meld's owner loses the right to call draw, and so does the active
// player.
func (g *Game) LayOff(seat int, c cards.Card, owner, index int) error {
	if err := g.checkTurn(seat, PhasePostDraw); err != nil {
		return err
	}
	if owner < 0 || owner >= len(g.players) {
		return ErrNoSuchMeld
	}
	target := g.players[owner]
	if index < 0 || index >= len(target.Melds) {
		return ErrNoSuchMeld
	}
	p := g.players[seat]
	if !cards.Contains(p.Hand, c) {
		return ErrCardNotInHand
	}
	if !meld.Extends(target.Melds[index], c) {
		return ErrIllegalLayOff
	}

	p.Hand, _ = cards.Remove(p.Hand, []cards.Card{c})
	grown := append(cards.Clone(target.Melds[index]), c)
	cards.Sort(grown)
	target.Melds[index] = grown
	target.CanDraw = false
	p.CanDraw = false

	if len(p.Hand) == 0 {
		g.finish(EndingEmptyHand, seat, []int{seat})
	}
	return nil
}

// Discard ends the active player's turn. An empty hand wins the round, an
// empty deck starts exhaustion settlement, and otherwise the turn passes.
func (g *Game) Discard(seat int, c cards.Card) error {
	if err := g.checkTurn(seat, PhasePostDraw); err != nil {
		return err
	}
	p := g.players[seat]
	rest, ok := cards.Remove(p.Hand, []cards.Card{c})
	if !ok {
		return ErrCardNotInHand
	}
	p.Hand = rest
	g.discard.Push(c)
	g.discardBy = append(g.discardBy, seat)
	if p.HasMeld() {
		p.CanDraw = true
	}

	switch {
	case len(p.Hand) == 0:
		g.finish(EndingEmptyHand, seat, []int{seat})
	case g.deck.Len() == 0:
		g.beginExhaustion()
	default:
		g.order = append(g.order[1:], g.order[0])
		g.phase = PhaseAwaitingDraw
	}
	return nil
}

// CallDraw ends the round by challenge. Only the active player may call, and
// only while their CanDraw flag is set. The caller melds first, then the
// others respond.
func (g *Game) CallDraw(seat int) error {
	if err := g.checkTurn(seat, PhaseAwaitingDraw, PhasePostDraw); err != nil {
		return err
	}
	if !g.players[seat].CanDraw {
		return ErrCannotCallDraw
	}
	g.beginChallenge(seat)
	return nil
}

// Respond answers a draw call: challenge joins the contest, otherwise the
// player folds.
func (g *Game) Respond(seat int, challenge bool) error {
	if err := g.checkSeat(seat); err != nil {
		return err
	}
	if g.phase != PhaseSettlement || g.settle.kind != EndingChallenge {
		return ErrWrongPhase
	}
	s, melding := g.Pending()
	if melding || s != seat {
		return ErrNotYourTurn
	}
	if !challenge {
		g.advance()
		return nil
	}
	if !g.players[seat].HasMeld() {
		return ErrNoMeld
	}
	g.settle.contenders = append(g.settle.contenders, seat)
	g.settle.melding = true
	return nil
}

// FinishMelding ends the pending player's final melding.
func (g *Game) FinishMelding(seat int) error {
	if err := g.checkSeat(seat); err != nil {
		return err
	}
	if g.phase != PhaseSettlement {
		return ErrWrongPhase
	}
	if s, melding := g.Pending(); !melding || s != seat {
		return ErrNotYourTurn
	}
	g.advance()
	return nil
}

// Vote records a rematch vote. A decline closes the table; once every seat
// accepts, a new round is dealt with scores and turn order kept.
func (g *Game) Vote(seat int, accept bool) error {
	if err := g.checkSeat(seat); err != nil {
		return err
	}
	if g.phase != PhaseRoundOver {
		return ErrWrongPhase
	}
	if _, ok := g.votes[seat]; ok {
		return ErrAlreadyVoted
	}
	if !accept {
		g.votes[seat] = false
		g.phase = PhaseClosed
		return nil
	}
	g.votes[seat] = true
	if len(g.votes) < len(g.players) {
		return nil
	}
	if err := g.deal(); err != nil {
		// The seat can vote again once the deck source recovers.
		delete(g.votes, seat)
		return err
	}
	return nil
}

// Voted reports whether the seat has voted in the current rematch poll.
func (g *Game) Voted(seat int) bool {
	_, ok := g.votes[seat]
	return ok
}
