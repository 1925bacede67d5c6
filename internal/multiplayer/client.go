package multiplayer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tongits/internal/config"
	"github.com/vovakirdan/tongits/internal/game"
	"github.com/vovakirdan/tongits/internal/protocol"
)

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client logger.
func WithClientLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// Client is a joined seat at a remote table. It keeps the connection alive
// with pings and hands every host message to Updates.
type Client struct {
	cfg    config.TableConfig
	name   string
	conn   net.Conn
	logger *log.Logger
	sink   *ChannelSession

	writeMu sync.Mutex

	mu      sync.Mutex
	last    *game.View
	members protocol.Refresh
	err     error
	leaving bool

	done chan struct{}
}

// Dial connects to the table at addr and performs the join handshake.
func Dial(ctx context.Context, addr, name string, cfg config.TableConfig, opts ...ClientOption) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("multiplayer: dial %s: %w", addr, err)
	}

	c := &Client{
		cfg:    cfg,
		name:   name,
		conn:   conn,
		logger: log.New(io.Discard),
		sink:   NewChannelSession(NewConnID(), cfg.OutboundQueue),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.handshake(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.start()
	return c, nil
}

func (c *Client) handshake(ctx context.Context) error {
	deadline := time.Now().Add(c.cfg.StaleAfter())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)
	defer func() { _ = c.conn.SetDeadline(time.Time{}) }()

	if err := protocol.Send(c.conn, protocol.Join{Name: c.name}); err != nil {
		return fmt.Errorf("multiplayer: join: %w", err)
	}
	msg, err := protocol.Receive(c.conn, c.cfg.MaxMessageBytes, protocol.ToClient)
	if err != nil {
		return fmt.Errorf("multiplayer: join: %w", err)
	}
	reply, ok := msg.(protocol.JoinReply)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnexpectedJoin, msg.Command())
	}
	if !reply.Status.OK() {
		return fmt.Errorf("%w: %s", ErrRejected, reply.Reason)
	}
	c.logger.Info("joined table", "addr", c.conn.RemoteAddr().String(), "name", c.name)
	return nil
}

func (c *Client) start() {
	g, ctx := errgroup.WithContext(context.Background())
	// A failed ping must also unblock the reader.
	context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	g.Go(c.readLoop)
	g.Go(func() error { return c.pingLoop(ctx) })
	go func() {
		c.finish(g.Wait())
	}()
}

// readLoop always ends with an error: the connection died, or the host
// kicked us or disbanded.
func (c *Client) readLoop() error {
	for {
		msg, err := protocol.Receive(c.conn, c.cfg.MaxMessageBytes, protocol.ToClient)
		if err != nil {
			return err
		}
		c.observe(msg)
		c.sink.Send(msg)

		switch m := msg.(type) {
		case protocol.Kick:
			return fmt.Errorf("%w: %s", ErrKicked, m.Reason)
		case protocol.Disband:
			return ErrDisbanded
		}
	}
}

func (c *Client) observe(msg protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch m := msg.(type) {
	case protocol.GameState:
		v := m.View
		c.last = &v
	case protocol.Refresh:
		c.members = m
	case protocol.ClientNames:
		c.members = protocol.Refresh{Host: m.Host, ClientNames: m.ClientNames}
	case protocol.Abort:
		c.last = nil
	}
}

func (c *Client) pingLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.send(protocol.Ping{}); err != nil {
				return err
			}
		}
	}
}

func (c *Client) finish(err error) {
	_ = c.conn.Close()
	c.mu.Lock()
	if c.leaving && errors.Is(err, protocol.ErrDisconnected) {
		err = nil
	}
	c.err = err
	c.mu.Unlock()
	if err != nil {
		c.logger.Info("left table", "reason", err)
	}
	c.sink.Close()
	close(c.done)
}

func (c *Client) send(m protocol.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.SendTimeout))
	return protocol.Send(c.conn, m)
}

// Name returns the display name the client joined with.
func (c *Client) Name() string { return c.name }

// Updates carries every message from the host in arrival order.
func (c *Client) Updates() <-chan protocol.Message { return c.sink.Events() }

// Done closes when the connection has ended.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns why the connection ended; nil after a clean Leave.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Last returns the most recent view, if a round is running.
func (c *Client) Last() (game.View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return game.View{}, false
	}
	return *c.last, true
}

// Members returns the most recent membership.
func (c *Client) Members() protocol.Refresh {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.members
}

// Submit sends a gameplay action. The outcome arrives as a Result message.
func (c *Client) Submit(a protocol.Action) error {
	return c.send(a)
}

// RequestNames asks for the membership list.
func (c *Client) RequestNames() error {
	return c.send(protocol.GetClientNames{})
}

// RequestState asks the host to resend this seat's view.
func (c *Client) RequestState() error {
	return c.send(protocol.GameStateRequest{})
}

// Leave says goodbye and closes the connection.
func (c *Client) Leave() error {
	c.mu.Lock()
	c.leaving = true
	c.mu.Unlock()

	err := c.send(protocol.Leave{})
	_ = c.conn.Close()
	<-c.done
	if errors.Is(err, ErrClientClosed) {
		return nil
	}
	return err
}
