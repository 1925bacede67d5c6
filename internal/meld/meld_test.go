package meld

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/vovakirdan/tongits/internal/cards"
)

func c(r cards.Rank, s cards.Suit) cards.Card { return cards.New(r, s) }

func TestIsLegal(t *testing.T) {
	tests := []struct {
		name string
		in   []cards.Card
		want Kind
	}{
		{"empty", nil, Invalid},
		{"two of a rank", []cards.Card{c(cards.Five, cards.Hearts), c(cards.Five, cards.Clubs)}, Invalid},
		{"group of three", []cards.Card{c(cards.Five, cards.Hearts), c(cards.Five, cards.Clubs), c(cards.Five, cards.Spades)}, Group},
		{"group of four", []cards.Card{c(cards.King, cards.Hearts), c(cards.King, cards.Clubs), c(cards.King, cards.Spades), c(cards.King, cards.Diamonds)}, Group},
		{"run unsorted", []cards.Card{c(cards.Seven, cards.Spades), c(cards.Five, cards.Spades), c(cards.Six, cards.Spades)}, Run},
		{"ace low run", []cards.Card{c(cards.Ace, cards.Diamonds), c(cards.Two, cards.Diamonds), c(cards.Three, cards.Diamonds)}, Run},
		{"no wrap", []cards.Card{c(cards.Queen, cards.Diamonds), c(cards.King, cards.Diamonds), c(cards.Ace, cards.Diamonds)}, Invalid},
		{"gap", []cards.Card{c(cards.Two, cards.Hearts), c(cards.Three, cards.Hearts), c(cards.Five, cards.Hearts)}, Invalid},
		{"mixed suits", []cards.Card{c(cards.Two, cards.Hearts), c(cards.Three, cards.Clubs), c(cards.Four, cards.Hearts)}, Invalid},
		{"duplicate", []cards.Card{c(cards.Two, cards.Hearts), c(cards.Two, cards.Hearts), c(cards.Two, cards.Clubs)}, Invalid},
		{"long run", []cards.Card{c(cards.Nine, cards.Clubs), c(cards.Ten, cards.Clubs), c(cards.Jack, cards.Clubs), c(cards.Queen, cards.Clubs), c(cards.King, cards.Clubs)}, Run},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got := IsLegal(tt.in); got != (tt.want != Invalid) {
				t.Errorf("IsLegal(%v) = %v", tt.in, got)
			}
		})
	}
}

func TestExtends(t *testing.T) {
	run := []cards.Card{c(cards.Four, cards.Hearts), c(cards.Five, cards.Hearts), c(cards.Six, cards.Hearts)}
	if !Extends(run, c(cards.Seven, cards.Hearts)) {
		t.Error("Expected 7♥ to extend 4-5-6♥")
	}
	if !Extends(run, c(cards.Three, cards.Hearts)) {
		t.Error("Expected 3♥ to extend 4-5-6♥")
	}
	if Extends(run, c(cards.Eight, cards.Hearts)) {
		t.Error("8♥ must not extend 4-5-6♥")
	}
	if Extends(run, c(cards.Seven, cards.Clubs)) {
		t.Error("7♣ must not extend 4-5-6♥")
	}
	if len(run) != 3 {
		t.Error("Extends must not modify the meld")
	}
}

func TestExistsWithRequiredCard(t *testing.T) {
	hand := []cards.Card{
		c(cards.Nine, cards.Spades), c(cards.Nine, cards.Hearts), c(cards.Nine, cards.Clubs),
		c(cards.Two, cards.Diamonds),
	}
	if !Exists(hand, nil) {
		t.Fatal("Expected a meld of nines")
	}
	two := c(cards.Two, cards.Diamonds)
	if Exists(hand, &two) {
		t.Error("No meld contains 2♦")
	}
	nine := c(cards.Nine, cards.Clubs)
	if m := Find(hand, &nine); m == nil || !cards.Contains(m, nine) {
		t.Errorf("Find with required 9♣ returned %v", m)
	}
}

// legalByDefinition is an independent statement of the meld rule.
func legalByDefinition(cs []cards.Card) bool {
	if len(cs) < 3 {
		return false
	}
	seen := map[cards.Card]bool{}
	for _, x := range cs {
		if seen[x] {
			return false
		}
		seen[x] = true
	}
	rank := true
	for _, x := range cs {
		rank = rank && x.Rank == cs[0].Rank
	}
	if rank {
		return true
	}
	var ranks []int
	for _, x := range cs {
		if x.Suit != cs[0].Suit {
			return false
		}
		ranks = append(ranks, int(x.Rank))
	}
	sort.Ints(ranks)
	return ranks[len(ranks)-1]-ranks[0] == len(ranks)-1
}

func TestIsLegalMatchesDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	deck := cards.Standard()

	for i := 0; i < 5000; i++ {
		n := 1 + rng.Intn(6)
		pick := make([]cards.Card, n)
		for j := range pick {
			// Only draw from a narrow slice so groups and runs actually occur.
			pick[j] = deck[rng.Intn(20)]
		}
		if got, want := IsLegal(pick), legalByDefinition(pick); got != want {
			t.Fatalf("IsLegal(%v) = %v, definition says %v", pick, got, want)
		}
	}
}

func TestExistsMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	deck := cards.Standard()

	for i := 0; i < 500; i++ {
		perm := rng.Perm(len(deck))
		hand := make([]cards.Card, 8)
		for j := range hand {
			hand[j] = deck[perm[j]]
		}
		req := hand[rng.Intn(len(hand))]

		want, wantReq := false, false
		for a := 0; a < len(hand); a++ {
			for b := a + 1; b < len(hand); b++ {
				for d := b + 1; d < len(hand); d++ {
					trio := []cards.Card{hand[a], hand[b], hand[d]}
					if legalByDefinition(trio) {
						want = true
						if cards.Contains(trio, req) {
							wantReq = true
						}
					}
				}
			}
		}
		if got := Exists(hand, nil); got != want {
			t.Fatalf("Exists(%v) = %v, want %v", hand, got, want)
		}
		if got := Exists(hand, &req); got != wantReq {
			t.Fatalf("Exists(%v, %v) = %v, want %v", hand, req, got, wantReq)
		}
	}
}
