package multiplayer

import (
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tongits/internal/protocol"
)

// connPeer is a Peer writing to a TCP connection. Messages go through a
// bounded queue drained by one writer goroutine, so a slow client can never
// stall the host; a full queue fails the peer instead.
type connPeer struct {
	id      ConnID
	conn    net.Conn
	timeout time.Duration
	logger  *log.Logger

	mu      sync.Mutex
	out     chan protocol.Message
	closing bool
	failed  bool

	done chan struct{}
}

func newConnPeer(id ConnID, conn net.Conn, queue int, timeout time.Duration, logger *log.Logger) *connPeer {
	p := &connPeer{
		id:      id,
		conn:    conn,
		timeout: timeout,
		logger:  logger,
		out:     make(chan protocol.Message, queue),
		done:    make(chan struct{}),
	}
	go p.writeLoop()
	return p
}

func (p *connPeer) ID() ConnID { return p.id }

func (p *connPeer) Done() <-chan struct{} { return p.done }

// Send queues msg without blocking. Overflow fails the peer: the socket is
// closed, which also ends the connection's reader.
func (p *connPeer) Send(msg protocol.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closing {
		return false
	}
	select {
	case p.out <- msg:
		return true
	default:
		p.logger.Warn("outbound queue full, dropping peer", "conn", p.id, "command", msg.Command())
		p.failed = true
		p.closing = true
		close(p.out)
		_ = p.conn.Close()
		return false
	}
}

// Close stops accepting messages; already queued ones are still written
// before the socket closes.
func (p *connPeer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closing {
		return
	}
	p.closing = true
	close(p.out)
}

// Failed reports whether the peer was dropped for overflowing its queue.
func (p *connPeer) Failed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

func (p *connPeer) writeLoop() {
	defer close(p.done)
	defer p.conn.Close()

	broken := false
	for msg := range p.out {
		if broken {
			continue
		}
		_ = p.conn.SetWriteDeadline(time.Now().Add(p.timeout))
		if err := protocol.Send(p.conn, msg); err != nil {
			p.logger.Debug("write failed", "conn", p.id, "command", msg.Command(), "err", err)
			broken = true
			_ = p.conn.Close()
		}
	}
}
