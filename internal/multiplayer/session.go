package multiplayer

import (
	"sync"

	"github.com/vovakirdan/tongits/internal/protocol"
)

// Peer is the transport-neutral interface for pushing messages to one seat.
// It lets the host broadcast without caring whether a seat is a remote
// socket or the local host UI.
type Peer interface {
	// ID returns the unique connection identifier.
	ID() ConnID

	// Send queues msg for delivery. Must be non-blocking; false means the
	// peer is closed or has failed.
	Send(msg protocol.Message) bool

	// Done returns a channel that closes when the peer is finished.
	Done() <-chan struct{}

	// Close stops delivery once queued messages are flushed.
	Close()
}

// localQueue is the queue length used when a caller asks for none.
const localQueue = 64

// ChannelSession is a Peer backed by a Go channel. The host uses one for its
// own seat, and Client uses one to hand host messages to the UI. Every view
// is a full snapshot, so when the reader falls behind the stalest message
// makes way for the new one.
type ChannelSession struct {
	id     ConnID
	queue  chan protocol.Message
	closed chan struct{}
	once   sync.Once
}

// NewChannelSession returns a session holding up to queueLen undelivered
// messages. A non-positive queueLen means localQueue.
func NewChannelSession(id ConnID, queueLen int) *ChannelSession {
	if queueLen < 1 {
		queueLen = localQueue
	}
	return &ChannelSession{
		id:     id,
		queue:  make(chan protocol.Message, queueLen),
		closed: make(chan struct{}),
	}
}

func (s *ChannelSession) ID() ConnID { return s.id }

// Send never blocks. It evicts at most one queued message to make room and
// reports false once the session is closed or a concurrent sender won the
// freed slot.
func (s *ChannelSession) Send(msg protocol.Message) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	if s.offer(msg) {
		return true
	}
	select {
	case <-s.queue:
	default:
	}
	return s.offer(msg)
}

func (s *ChannelSession) offer(msg protocol.Message) bool {
	select {
	case s.queue <- msg:
		return true
	default:
		return false
	}
}

// Events yields queued messages in the order they were sent.
func (s *ChannelSession) Events() <-chan protocol.Message { return s.queue }

func (s *ChannelSession) Done() <-chan struct{} { return s.closed }

// Close is idempotent. Messages already queued stay readable.
func (s *ChannelSession) Close() {
	s.once.Do(func() { close(s.closed) })
}
