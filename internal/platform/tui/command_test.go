package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tongits/internal/cards"
	"github.com/vovakirdan/tongits/internal/protocol"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"pick", Command{Action: protocol.PickDeck{}}},
		{"  DECK ", Command{Action: protocol.PickDeck{}}},
		{"take 5h 5d", Command{Action: protocol.PickDiscard{Cards: []cards.Card{
			cards.New(cards.Five, cards.Hearts), cards.New(cards.Five, cards.Diamonds),
		}}}},
		{"expose 7h,8h,9h", Command{Action: protocol.Expose{Cards: []cards.Card{
			cards.New(cards.Seven, cards.Hearts), cards.New(cards.Eight, cards.Hearts), cards.New(cards.Nine, cards.Hearts),
		}}}},
		{"meld 10c 10s, 10d", Command{Action: protocol.Expose{Cards: []cards.Card{
			cards.New(cards.Ten, cards.Clubs), cards.New(cards.Ten, cards.Spades), cards.New(cards.Ten, cards.Diamonds),
		}}}},
		{"layoff 10h 1 0", Command{Action: protocol.LayOff{Card: cards.New(cards.Ten, cards.Hearts), Owner: 1, Meld: 0}}},
		{"discard KC", Command{Action: protocol.Discard{Card: cards.New(cards.King, cards.Clubs)}}},
		{"draw", Command{Action: protocol.Draw{}}},
		{"challenge", Command{Action: protocol.Challenge{Value: 1}}},
		{"fold", Command{Action: protocol.Challenge{Value: 0}}},
		{"done", Command{Action: protocol.Done{}}},
		{"yes", Command{Action: protocol.Rematch{Value: 1}}},
		{"no", Command{Action: protocol.Rematch{Value: 0}}},
		{"start", Command{Kind: CommandStart}},
		{"who", Command{Kind: CommandNames}},
		{"refresh", Command{Kind: CommandState}},
		{"?", Command{Kind: CommandHelp}},
		{"quit", Command{Kind: CommandQuit}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	_, err := ParseCommand("   ")
	assert.ErrorIs(t, err, ErrEmptyCommand)

	bad := []string{
		"shuffle",
		"pick now",
		"take 5h",         // needs two cards from hand
		"expose 7h 8h",    // needs three
		"discard",         // no card
		"discard 1x",      // bad card
		"layoff 7h one 0", // bad seat
		"layoff 7h 1 -1",  // negative meld
		"layoff 7h 1",
		"start 2",
	}
	for _, line := range bad {
		_, err := ParseCommand(line)
		assert.Error(t, err, line)
	}
}
