package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vovakirdan/tongits/internal/cards"
	"github.com/vovakirdan/tongits/internal/game"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(sampleView())

	assert.Contains(t, out, "ROUND 2")
	assert.Contains(t, out, "deck 15")
	assert.Contains(t, out, "Discard: Q♥")
	assert.Contains(t, out, "(1 below)")
	assert.Contains(t, out, "> [1] ann (you)")
	assert.Contains(t, out, "meld 0: 7♥ 8♥ 9♥")
	assert.Contains(t, out, "can draw")
	assert.Contains(t, out, "Your hand: 10♥ K♣")
	assert.Contains(t, out, "your turn: pick, take, or draw")
}

func TestRenderResult(t *testing.T) {
	v := sampleView()
	v.Phase = game.PhaseRoundOver
	v.Prompt = game.PromptVote
	v.Order = []int{0, 1, 2}
	v.Result = &game.Result{
		Round:  2,
		Ending: game.EndingExhaustion,
		Winner: 2,
		Points: []int{20, 20, 5},
	}

	out := RenderTable(v)
	assert.Contains(t, out, "Round 2 over (exhaustion): bob wins")
	assert.Regexp(t, `bob\s+5 points`, out)
	assert.Contains(t, out, "rematch? yes or no")

	v.Result.Winner = game.NoWinner
	assert.Contains(t, RenderTable(v), "nobody wins")
}

func TestRenderEmptyDiscard(t *testing.T) {
	v := sampleView()
	v.Discard = nil
	assert.Contains(t, RenderTable(v), "Discard: empty")
	assert.Equal(t, "A♠", RenderCard(cards.New(cards.Ace, cards.Spades)))
}
