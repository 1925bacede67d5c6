// Package multiplayer runs a Tong-its table over TCP. The host owns the
// authoritative game and every connection; clients are thin and only ever
// see their own view.
package multiplayer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ConnID uniquely identifies an accepted connection. IDs are never reused,
// so a stale reference can never address a newer client.
type ConnID string

// NewConnID returns a fresh connection identifier.
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

// TableID identifies one hosting session in saved history.
type TableID string

// HostSeat is the host's seat at every table.
const HostSeat = 0

// NoSeat marks a client that joined while no round is dealt.
const NoSeat = -1

// Errors returned by Host and Client operations.
var (
	ErrRoundRunning   = errors.New("multiplayer: a round is already running")
	ErrNoRound        = errors.New("multiplayer: no round in progress")
	ErrPartyTooSmall  = errors.New("multiplayer: not enough players to start")
	ErrHostClosed     = errors.New("multiplayer: host is shut down")
	ErrNotListening   = errors.New("multiplayer: host is not listening")
	ErrRejected       = errors.New("multiplayer: join rejected")
	ErrClientClosed   = errors.New("multiplayer: client is closed")
	ErrUnexpectedJoin = errors.New("multiplayer: unexpected handshake reply")
	ErrKicked         = errors.New("multiplayer: kicked by host")
	ErrDisbanded      = errors.New("multiplayer: table disbanded")
)

// Abort and kick reasons sent to clients.
const (
	ReasonTableFull   = "table is full"
	ReasonNameTaken   = "name already taken"
	ReasonClosing     = "host is shutting down"
	ReasonPingTimeout = "ping timeout"
	ReasonSlowPeer    = "outbound queue overflow"
	ReasonViolation   = "protocol violation"
)

// RoundRecord is a resolved round as persisted in history.
type RoundRecord struct {
	TableID  TableID
	Round    int
	Ending   string
	Winner   string // empty when nobody won
	Players  []string
	Points   []int
	Scores   []int
	PlayedAt time.Time
}

// RoundSaver persists resolved rounds. It allows the host to record history
// without depending on the storage package.
type RoundSaver interface {
	SaveRound(rec RoundRecord) error
}
