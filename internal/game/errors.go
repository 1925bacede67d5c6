package game

import "errors"

// Rule violations. Every action returns one of these and leaves the game
// untouched when a precondition fails.
var (
	ErrUnknownSeat    = errors.New("game: unknown seat")
	ErrWrongPhase     = errors.New("game: action not allowed in this phase")
	ErrNotYourTurn    = errors.New("game: not your turn")
	ErrDeckEmpty      = errors.New("game: deck is empty")
	ErrDiscardEmpty   = errors.New("game: discard pile is empty")
	ErrCardNotInHand  = errors.New("game: card not in hand")
	ErrIllegalMeld    = errors.New("game: cards do not form a legal meld")
	ErrNoSuchMeld     = errors.New("game: no such meld")
	ErrIllegalLayOff  = errors.New("game: card does not extend that meld")
	ErrCannotCallDraw = errors.New("game: draw cannot be called now")
	ErrNoMeld         = errors.New("game: an exposed meld is required to challenge")
	ErrAlreadyVoted   = errors.New("game: vote already recorded")
	ErrTooFewPlayers  = errors.New("game: not enough players")
	ErrBadHandSize    = errors.New("game: deck too small for this deal")
)
