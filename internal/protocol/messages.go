package protocol

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/tongits/internal/cards"
	"github.com/vovakirdan/tongits/internal/game"
)

// Command names on the wire.
const (
	CmdJoin           = "join"
	CmdGetClientNames = "get_client_names"
	CmdRefresh        = "refresh"
	CmdPing           = "ping"
	CmdLeave          = "leave"
	CmdKick           = "kick"
	CmdDisband        = "disband"
	CmdAbort          = "abort"
	CmdStart          = "start"
	CmdGameState      = "gamestate"
	CmdResult         = "result"
	CmdPickDeck       = "pick_deck"
	CmdPickDiscard    = "pick_discard"
	CmdExpose         = "expose"
	CmdLayOff         = "lay_off"
	CmdDiscard        = "discard"
	CmdDraw           = "draw"
	CmdChallenge      = "challenge"
	CmdDone           = "done"
	CmdRematch        = "rematch"
)

// Message is any value that can travel in a frame.
type Message interface {
	Command() string
	isMessage()
}

// Action is a gameplay request from a seated player.
type Action interface {
	Message
	isAction()
}

type validator interface {
	Validate() error
}

// Client to host.

// Join is the handshake a client must send first.
type Join struct {
	Name string `json:"name"`
}

// GetClientNames asks for the current membership.
type GetClientNames struct{}

// Ping is the client heartbeat.
type Ping struct{}

// Leave announces a graceful disconnect.
type Leave struct{}

// GameStateRequest asks the host to resend the caller's view.
type GameStateRequest struct{}

// PickDeck draws from the deck.
type PickDeck struct{}

// PickDiscard takes the discard top together with Cards from the hand.
type PickDiscard struct {
	Cards []cards.Card `json:"cards"`
}

// Expose lays a meld from the hand.
type Expose struct {
	Cards []cards.Card `json:"cards"`
}

// LayOff adds Card to meld number Meld of seat Owner.
type LayOff struct {
	Card  cards.Card `json:"card"`
	Owner int        `json:"owner"`
	Meld  int        `json:"meld"`
}

// Discard ends the turn.
type Discard struct {
	Card cards.Card `json:"card"`
}

// Draw calls draw (the challenge ending).
type Draw struct{}

// Challenge answers a draw call: 1 to challenge, 0 to fold.
type Challenge struct {
	Value int `json:"value"`
}

// Done finishes final melding.
type Done struct{}

// Rematch votes on another round: 1 to accept, 0 to decline.
type Rematch struct {
	Value int `json:"value"`
}

// Host to client.

// Status is the outcome carried by a join reply or a result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// StatusOf maps a boolean outcome onto the wire form.
func StatusOf(ok bool) Status {
	if ok {
		return StatusSuccess
	}
	return StatusFailure
}

// OK reports whether the status is a success.
func (s Status) OK() bool { return s == StatusSuccess }

// Validate rejects anything but "success" or "failure".
func (s Status) Validate() error {
	if s != StatusSuccess && s != StatusFailure {
		return fmt.Errorf("status must be %q or %q, got %q", StatusSuccess, StatusFailure, string(s))
	}
	return nil
}

// JoinReply accepts or refuses a Join.
type JoinReply struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// ClientNames is the reply to GetClientNames.
type ClientNames struct {
	Host        string   `json:"host"`
	ClientNames []string `json:"client_names"`
}

// Refresh pushes membership after every change.
type Refresh struct {
	Host        string   `json:"host"`
	ClientNames []string `json:"client_names"`
}

// Kick removes a client from the table.
type Kick struct {
	Reason string `json:"reason"`
}

// Disband tells clients the host is shutting down.
type Disband struct{}

// Abort tears down the running round.
type Abort struct {
	Reason string `json:"reason"`
}

// Start announces a freshly dealt round.
type Start struct {
	Round int `json:"round"`
}

// GameState carries the recipient's view of the table.
type GameState struct {
	View game.View `json:"view"`
}

// Result reports whether the host applied a request.
type Result struct {
	Action string `json:"action"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (Join) Command() string             { return CmdJoin }
func (GetClientNames) Command() string   { return CmdGetClientNames }
func (Ping) Command() string             { return CmdPing }
func (Leave) Command() string            { return CmdLeave }
func (GameStateRequest) Command() string { return CmdGameState }
func (PickDeck) Command() string         { return CmdPickDeck }
func (PickDiscard) Command() string      { return CmdPickDiscard }
func (Expose) Command() string           { return CmdExpose }
func (LayOff) Command() string           { return CmdLayOff }
func (Discard) Command() string          { return CmdDiscard }
func (Draw) Command() string             { return CmdDraw }
func (Challenge) Command() string        { return CmdChallenge }
func (Done) Command() string             { return CmdDone }
func (Rematch) Command() string          { return CmdRematch }
func (JoinReply) Command() string        { return CmdJoin }
func (ClientNames) Command() string      { return CmdGetClientNames }
func (Refresh) Command() string          { return CmdRefresh }
func (Kick) Command() string             { return CmdKick }
func (Disband) Command() string          { return CmdDisband }
func (Abort) Command() string            { return CmdAbort }
func (Start) Command() string            { return CmdStart }
func (GameState) Command() string        { return CmdGameState }
func (Result) Command() string           { return CmdResult }

func (Join) isMessage()             {}
func (GetClientNames) isMessage()   {}
func (Ping) isMessage()             {}
func (Leave) isMessage()            {}
func (GameStateRequest) isMessage() {}
func (PickDeck) isMessage()         {}
func (PickDiscard) isMessage()      {}
func (Expose) isMessage()           {}
func (LayOff) isMessage()           {}
func (Discard) isMessage()          {}
func (Draw) isMessage()             {}
func (Challenge) isMessage()        {}
func (Done) isMessage()             {}
func (Rematch) isMessage()          {}
func (JoinReply) isMessage()        {}
func (ClientNames) isMessage()      {}
func (Refresh) isMessage()          {}
func (Kick) isMessage()             {}
func (Disband) isMessage()          {}
func (Abort) isMessage()            {}
func (Start) isMessage()            {}
func (GameState) isMessage()        {}
func (Result) isMessage()           {}

func (PickDeck) isAction()    {}
func (PickDiscard) isAction() {}
func (Expose) isAction()      {}
func (LayOff) isAction()      {}
func (Discard) isAction()     {}
func (Draw) isAction()        {}
func (Challenge) isAction()   {}
func (Done) isAction()        {}
func (Rematch) isAction()     {}

var errEmptyName = errors.New("name must not be empty")

// MaxNameLength bounds a display name.
const MaxNameLength = 32

func (m Join) Validate() error {
	if m.Name == "" {
		return errEmptyName
	}
	if len(m.Name) > MaxNameLength {
		return fmt.Errorf("name longer than %d bytes", MaxNameLength)
	}
	return nil
}

func (m PickDiscard) Validate() error {
	if len(m.Cards) < 2 {
		return errors.New("pick_discard needs at least two cards from hand")
	}
	return validCards(m.Cards)
}

func (m Expose) Validate() error {
	if len(m.Cards) < 3 {
		return errors.New("expose needs at least three cards")
	}
	return validCards(m.Cards)
}

func (m LayOff) Validate() error {
	if !m.Card.Valid() {
		return errors.New("invalid card")
	}
	if m.Owner < 0 || m.Meld < 0 {
		return errors.New("negative meld reference")
	}
	return nil
}

func (m Discard) Validate() error {
	if !m.Card.Valid() {
		return errors.New("invalid card")
	}
	return nil
}

func (m JoinReply) Validate() error { return m.Status.Validate() }

func (m Result) Validate() error { return m.Status.Validate() }

func (m Challenge) Validate() error { return binaryValue(m.Value) }

func (m Rematch) Validate() error { return binaryValue(m.Value) }

func binaryValue(v int) error {
	if v != 0 && v != 1 {
		return fmt.Errorf("value must be 0 or 1, got %d", v)
	}
	return nil
}

func validCards(cs []cards.Card) error {
	for _, c := range cs {
		if !c.Valid() {
			return fmt.Errorf("invalid card %v", c.Decompose())
		}
	}
	return nil
}
