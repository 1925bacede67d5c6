// Package game implements the authoritative Tong-its table: the deck, the
// discard pile, every hand and meld, the turn order, and the three ways a
// round can end. The package is pure logic; the host serializes access.
package game

import (
	"fmt"

	"github.com/vovakirdan/tongits/internal/cards"
)

// NoWinner marks a round that ended without a winner, or one still running.
const NoWinner = -1

// DefaultHandSize is the number of cards dealt to every player.
const DefaultHandSize = 12

// Phase is the turn engine state.
type Phase int

const (
	PhaseAwaitingDraw Phase = iota // active player must take from deck or discard
	PhasePostDraw                  // active player may meld and lay off, then must discard
	PhaseSettlement                // round is ending; final melds and challenge answers
	PhaseRoundOver                 // round resolved; waiting for rematch votes
	PhaseClosed                    // rematch declined; the table is done
)

var phaseNames = map[Phase]string{
	PhaseAwaitingDraw: "awaiting_draw",
	PhasePostDraw:     "post_draw",
	PhaseSettlement:   "settlement",
	PhaseRoundOver:    "round_over",
	PhaseClosed:       "closed",
}

// String returns the wire name of the phase.
func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if _, ok := phaseNames[p]; !ok {
		return nil, fmt.Errorf("game: unknown phase %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	for k, v := range phaseNames {
		if v == string(text) {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("game: unknown phase %q", text)
}

// Ending describes how a round finished.
type Ending int

const (
	EndingNone       Ending = iota // round in progress
	EndingEmptyHand                // someone played out their hand
	EndingExhaustion               // the deck ran out
	EndingChallenge                // a player called draw
)

var endingNames = map[Ending]string{
	EndingNone:       "in_progress",
	EndingEmptyHand:  "empty_hand",
	EndingExhaustion: "exhaustion",
	EndingChallenge:  "challenge",
}

// String returns the wire name of the ending.
func (e Ending) String() string {
	if s, ok := endingNames[e]; ok {
		return s
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (e Ending) MarshalText() ([]byte, error) {
	if _, ok := endingNames[e]; !ok {
		return nil, fmt.Errorf("game: unknown ending %d", int(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Ending) UnmarshalText(text []byte) error {
	for k, v := range endingNames {
		if v == string(text) {
			*e = k
			return nil
		}
	}
	return fmt.Errorf("game: unknown ending %q", text)
}

// Player is one seat at the table.
type Player struct {
	Name  string
	Hand  []cards.Card
	Melds [][]cards.Card
	// Score counts round wins and survives rematches.
	Score int
	// CanDraw allows the player to call draw on their turn.
	CanDraw bool
}

// HasMeld reports whether the player has exposed at least one meld.
func (p *Player) HasMeld() bool {
	return len(p.Melds) > 0
}

// Result is the outcome of a resolved round.
type Result struct {
	Round      int    `json:"round"`
	Ending     Ending `json:"ending"`
	Winner     int    `json:"winner"`
	Contenders []int  `json:"contenders"`
	// Points holds the hand value of every seat when the round ended.
	Points []int `json:"points"`
	// Scores holds every seat's round-win tally after this round.
	Scores []int `json:"scores"`
}

// Config controls the deal and scoring.
type Config struct {
	HandSize     int
	LegacyPoints bool
}

// DefaultConfig returns the standard table rules.
func DefaultConfig() Config {
	return Config{HandSize: DefaultHandSize}
}
