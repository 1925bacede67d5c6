// Package meld decides whether sets of cards form legal melds.
// A meld is either a group (three or four cards of one rank) or a run
// (three or more consecutive ranks of one suit, Ace low, no wrap-around).
package meld

import (
	"sort"

	"github.com/vovakirdan/tongits/internal/cards"
)

// MinSize is the smallest legal meld.
const MinSize = 3

// Kind classifies a set of cards.
type Kind int

const (
	Invalid Kind = iota
	Group        // same rank
	Run          // same suit, consecutive ranks
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case Group:
		return "group"
	case Run:
		return "run"
	default:
		return "invalid"
	}
}

// Classify returns the kind of meld cs forms, or Invalid.
func Classify(cs []cards.Card) Kind {
	if len(cs) < MinSize || hasDuplicate(cs) {
		return Invalid
	}

	sameRank, sameSuit := true, true
	for _, c := range cs[1:] {
		if c.Rank != cs[0].Rank {
			sameRank = false
		}
		if c.Suit != cs[0].Suit {
			sameSuit = false
		}
	}
	if sameRank {
		return Group
	}
	if !sameSuit {
		return Invalid
	}

	ranks := make([]int, len(cs))
	for i, c := range cs {
		ranks[i] = int(c.Rank)
	}
	sort.Ints(ranks)
	for i := 1; i < len(ranks); i++ {
		if ranks[i] != ranks[i-1]+1 {
			return Invalid
		}
	}
	return Run
}

// IsLegal reports whether cs is a legal meld.
func IsLegal(cs []cards.Card) bool {
	return Classify(cs) != Invalid
}

// Extends reports whether adding c to an exposed meld keeps it legal.
func Extends(existing []cards.Card, c cards.Card) bool {
	grown := make([]cards.Card, 0, len(existing)+1)
	grown = append(grown, existing...)
	grown = append(grown, c)
	return IsLegal(grown)
}

// Exists reports whether some three cards of cs form a legal meld. When
// required is non-nil the meld must include that card.
func Exists(cs []cards.Card, required *cards.Card) bool {
	return Find(cs, required) != nil
}

// Find returns the first legal three-card meld within cs, or nil. When
// required is non-nil the returned meld contains it. Every three-card subset
// is tried, which is cheap for hands of a dozen or so cards.
func Find(cs []cards.Card, required *cards.Card) []cards.Card {
	n := len(cs)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				trio := []cards.Card{cs[i], cs[j], cs[k]}
				if required != nil && !cards.Contains(trio, *required) {
					continue
				}
				if IsLegal(trio) {
					return trio
				}
			}
		}
	}
	return nil
}

func hasDuplicate(cs []cards.Card) bool {
	seen := make(map[cards.Card]struct{}, len(cs))
	for _, c := range cs {
		if _, ok := seen[c]; ok {
			return true
		}
		seen[c] = struct{}{}
	}
	return false
}
