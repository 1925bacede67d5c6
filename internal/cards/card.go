// Package cards provides the standard 52-card model used by the table:
// ranks, suits, immutable cards, the shuffled deck and the discard pile.
package cards

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Rank is a card rank, ordered Ace (low) through King.
type Rank int

// Ranks in ascending order.
const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// rankNames holds the wire/display symbol for each rank, indexed by Rank-1.
var rankNames = [...]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Valid reports whether r is one of the 13 ranks.
func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

// String returns the rank symbol ("A", "2", ..., "K").
func (r Rank) String() string {
	if !r.Valid() {
		return "?"
	}
	return rankNames[r-1]
}

// ParseRank converts a rank symbol back to a Rank.
func ParseRank(s string) (Rank, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range rankNames {
		if name == s {
			return Rank(i + 1), nil
		}
	}
	return 0, fmt.Errorf("cards: invalid rank %q", s)
}

// Points returns the scoring value of a rank: Ace is 1, number cards are
// worth their face value and court cards are worth 10.
func Points(r Rank) int {
	if !r.Valid() {
		return 0
	}
	return min(int(r), 10)
}

// LegacyPoints reproduces the older scoring table where the value is derived
// from the rank index: Ace and Two are both worth 1, Three is worth 2, and so
// on up to 10 for Jack and above.
func LegacyPoints(r Rank) int {
	if !r.Valid() {
		return 0
	}
	return min(max(1, int(r)-1), 10)
}

// Suit is one of the four card suits.
type Suit string

// Suits use single-letter wire codes.
const (
	Clubs    Suit = "C"
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
)

// Suits lists every suit in deck order.
var Suits = []Suit{Clubs, Spades, Hearts, Diamonds}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	switch s {
	case Clubs, Spades, Hearts, Diamonds:
		return true
	}
	return false
}

// Symbol returns the unicode glyph for the suit.
func (s Suit) Symbol() string {
	switch s {
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	}
	return "?"
}

// order is the position of the suit inside Suits, used for stable sorting.
func (s Suit) order() int {
	for i, v := range Suits {
		if v == s {
			return i
		}
	}
	return len(Suits)
}

// Card pairs a rank and a suit. Cards are plain values; two cards with the
// same rank and suit are the same card.
type Card struct {
	Rank Rank
	Suit Suit
}

// New returns the card with the given rank and suit.
func New(r Rank, s Suit) Card {
	return Card{Rank: r, Suit: s}
}

// Valid reports whether the card belongs to the standard deck.
func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Suit.Valid()
}

// String renders the card for display, e.g. "10♥".
func (c Card) String() string {
	return c.Rank.String() + c.Suit.Symbol()
}

// Decompose returns the wire form of the card: rank symbol and suit code.
func (c Card) Decompose() [2]string {
	return [2]string{c.Rank.String(), string(c.Suit)}
}

// Compose rebuilds a card from its wire form.
func Compose(parts [2]string) (Card, error) {
	r, err := ParseRank(parts[0])
	if err != nil {
		return Card{}, err
	}
	s := Suit(strings.ToUpper(strings.TrimSpace(parts[1])))
	if !s.Valid() {
		return Card{}, fmt.Errorf("cards: invalid suit %q", parts[1])
	}
	return Card{Rank: r, Suit: s}, nil
}

// Parse reads the short text form used at the command line, e.g. "10H" or "qs".
func Parse(s string) (Card, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if len(s) < 2 {
		return Card{}, fmt.Errorf("cards: invalid card %q", s)
	}
	return Compose([2]string{s[:len(s)-1], s[len(s)-1:]})
}

// MarshalJSON encodes the card as a two-element array, e.g. ["Q","H"].
func (c Card) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cards: cannot encode invalid card %v/%q", int(c.Rank), string(c.Suit))
	}
	return json.Marshal(c.Decompose())
}

// UnmarshalJSON decodes the two-element array form.
func (c *Card) UnmarshalJSON(data []byte) error {
	var parts [2]string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("cards: malformed card: %w", err)
	}
	card, err := Compose(parts)
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// Sort orders cards by rank, then suit, in place.
func Sort(cs []Card) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Rank != cs[j].Rank {
			return cs[i].Rank < cs[j].Rank
		}
		return cs[i].Suit.order() < cs[j].Suit.order()
	})
}

// Contains reports whether c is present in cs.
func Contains(cs []Card, c Card) bool {
	for _, v := range cs {
		if v == c {
			return true
		}
	}
	return false
}

// ContainsAll reports whether every card of want is present in have,
// counting multiplicity.
func ContainsAll(have, want []Card) bool {
	_, ok := Remove(have, want)
	return ok
}

// Remove returns a copy of from without the cards in take. The second result
// is false, and from is returned unchanged, if any card of take is missing.
func Remove(from, take []Card) ([]Card, bool) {
	rest := make([]Card, len(from))
	copy(rest, from)
	for _, t := range take {
		idx := -1
		for i, c := range rest {
			if c == t {
				idx = i
				break
			}
		}
		if idx < 0 {
			return from, false
		}
		rest = append(rest[:idx], rest[idx+1:]...)
	}
	return rest, true
}

// Clone returns a copy of cs that shares no memory with it.
func Clone(cs []Card) []Card {
	if cs == nil {
		return nil
	}
	out := make([]Card, len(cs))
	copy(out, cs)
	return out
}
