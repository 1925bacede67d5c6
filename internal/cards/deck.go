package cards

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// Standard returns every card of the deck in rank-major order.
func Standard() []Card {
	deck := make([]Card, 0, DeckSize)
	for r := Ace; r <= King; r++ {
		for _, s := range Suits {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// Shuffle permutes cs uniformly with crypto/rand (Fisher-Yates).
func Shuffle(cs []Card) error {
	for i := len(cs) - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return err
		}
		cs[i], cs[j] = cs[j], cs[i]
	}
	return nil
}

// Permutation returns a uniformly random ordering of 0..n-1.
func Permutation(n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return nil, err
		}
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("cards: shuffle: %w", err)
	}
	return int(v.Int64()), nil
}

// Deck is the face-down draw pile. Cards are drawn from the end.
type Deck struct {
	cards []Card
}

// NewDeck returns a full, freshly shuffled deck.
func NewDeck() (*Deck, error) {
	cs := Standard()
	if err := Shuffle(cs); err != nil {
		return nil, err
	}
	return &Deck{cards: cs}, nil
}

// DeckOf returns a deck holding cs in the given order; the last card is drawn
// first. Intended for deterministic setups.
func DeckOf(cs ...Card) *Deck {
	return &Deck{cards: Clone(cs)}
}

// Draw removes and returns the next card. ok is false when the deck is empty.
func (d *Deck) Draw() (c Card, ok bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	c = d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, true
}

// Len returns the number of cards left.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Pile is the face-up discard pile; the last card is the top.
type Pile struct {
	cards []Card
}

// Push places c on top of the pile.
func (p *Pile) Push(c Card) {
	p.cards = append(p.cards, c)
}

// Top returns the top card without removing it.
func (p *Pile) Top() (Card, bool) {
	if len(p.cards) == 0 {
		return Card{}, false
	}
	return p.cards[len(p.cards)-1], true
}

// Pop removes and returns the top card.
func (p *Pile) Pop() (Card, bool) {
	c, ok := p.Top()
	if ok {
		p.cards = p.cards[:len(p.cards)-1]
	}
	return c, ok
}

// Len returns the number of cards in the pile.
func (p *Pile) Len() int {
	return len(p.cards)
}

// Cards returns a copy of the pile, bottom first.
func (p *Pile) Cards() []Card {
	out := make([]Card, len(p.cards))
	copy(out, p.cards)
	return out
}
