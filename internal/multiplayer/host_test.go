package multiplayer

import (
	"context"
	"errors"
	"net"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tongits/internal/cards"
	"github.com/vovakirdan/tongits/internal/catalog"
	"github.com/vovakirdan/tongits/internal/config"
	"github.com/vovakirdan/tongits/internal/game"
	"github.com/vovakirdan/tongits/internal/protocol"
)

const waitTimeout = 3 * time.Second

func testConfig() config.TableConfig {
	cfg := config.DefaultTableConfig()
	cfg.PingInterval = 100 * time.Millisecond
	cfg.GraceDelay = 200 * time.Millisecond
	cfg.RegisterInterval = time.Hour
	cfg.CatalogTimeout = time.Second
	cfg.SendTimeout = time.Second
	return cfg
}

type servedHost struct {
	*Host
	done chan struct{}
	err  error
}

func (s *servedHost) wait(t *testing.T) error {
	t.Helper()
	select {
	case <-s.done:
		return s.err
	case <-time.After(waitTimeout):
		t.Fatal("host did not stop")
		return nil
	}
}

func serveHost(t *testing.T, cfg config.TableConfig, opts ...HostOption) *servedHost {
	t.Helper()
	h, err := NewHost(cfg, "host", opts...)
	require.NoError(t, err)
	require.NoError(t, h.Listen("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	s := &servedHost{Host: h, done: make(chan struct{})}
	go func() {
		s.err = h.Serve(ctx)
		close(s.done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-s.done:
		case <-time.After(waitTimeout):
			t.Error("host did not stop")
		}
	})
	return s
}

func dial(t *testing.T, h *servedHost, name string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	c, err := Dial(ctx, h.Addr().String(), name, h.cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Leave() })
	return c
}

// waitFor skips messages until one of type T satisfies match.
func waitFor[T protocol.Message](t *testing.T, ch <-chan protocol.Message, match func(T) bool) T {
	t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case msg := <-ch:
			if m, ok := msg.(T); ok && (match == nil || match(m)) {
				return m
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func names(want ...string) func(protocol.Refresh) bool {
	return func(r protocol.Refresh) bool { return slices.Equal(r.ClientNames, want) }
}

func phase(p game.Phase) func(protocol.GameState) bool {
	return func(s protocol.GameState) bool { return s.View.Phase == p }
}

// turn matches a view where seat is active in phase p.
func turn(seat int, p game.Phase) func(protocol.GameState) bool {
	return func(s protocol.GameState) bool { return s.View.Phase == p && s.View.Order[0] == seat }
}

func round(n int) func(protocol.Start) bool {
	return func(s protocol.Start) bool { return s.Round == n }
}

func result(cmd string) func(protocol.Result) bool {
	return func(r protocol.Result) bool { return r.Action == cmd }
}

// stackedDeck deals hands[seat] to each seat when the turn order is
// 0..n-1; the remaining cards form the stock, drawn from King of Diamonds
// down.
func stackedDeck(hands ...[]cards.Card) game.DeckSource {
	return func() (*cards.Deck, error) {
		used := make(map[cards.Card]bool)
		for _, h := range hands {
			for _, c := range h {
				used[c] = true
			}
		}
		var deck []cards.Card
		for _, c := range cards.Standard() {
			if !used[c] {
				deck = append(deck, c)
			}
		}
		var dealt []cards.Card
		for i := range hands[0] {
			for _, h := range hands {
				dealt = append(dealt, h[i])
			}
		}
		slices.Reverse(dealt)
		return cards.DeckOf(append(deck, dealt...)...), nil
	}
}

type fakeRegistrar struct {
	regs chan catalog.Registration
	err  error
}

func newFakeRegistrar(err error) *fakeRegistrar {
	return &fakeRegistrar{regs: make(chan catalog.Registration, 32), err: err}
}

func (f *fakeRegistrar) Register(_ context.Context, reg catalog.Registration) error {
	if f.err != nil {
		return f.err
	}
	select {
	case f.regs <- reg:
	default:
	}
	return nil
}

func (f *fakeRegistrar) next(t *testing.T) catalog.Registration {
	t.Helper()
	select {
	case r := <-f.regs:
		return r
	case <-time.After(waitTimeout):
		t.Fatal("no registration")
		return catalog.Registration{}
	}
}

type fakeSaver struct {
	recs chan RoundRecord
}

func (f *fakeSaver) SaveRound(rec RoundRecord) error {
	f.recs <- rec
	return nil
}

// slowSaver holds every save until release is closed.
type slowSaver struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	saved   []RoundRecord
}

func (f *slowSaver) SaveRound(rec RoundRecord) error {
	f.started <- struct{}{}
	<-f.release
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, rec)
	return nil
}

func TestServeWaitsForPendingSave(t *testing.T) {
	saver := &slowSaver{started: make(chan struct{}, 1), release: make(chan struct{})}
	short := func() (*cards.Deck, error) {
		return cards.DeckOf(cards.Standard()[:3*game.DefaultHandSize+1]...), nil
	}
	h := serveHost(t, testConfig(),
		WithRoundSaver(saver),
		WithGameOptions(game.WithOrder([]int{0, 1, 2}), game.WithDeckSource(short)),
	)
	ann := dial(t, h, "ann")
	dial(t, h, "bob")
	waitFor(t, ann.Updates(), names("ann", "bob"))
	require.NoError(t, h.Start())

	// Drawing the last card and discarding ends the round by exhaustion.
	require.NoError(t, h.Submit(protocol.PickDeck{}))
	v, _ := h.View()
	require.NoError(t, h.Submit(protocol.Discard{Card: v.Players[0].Hand[0]}))

	select {
	case <-saver.started:
	case <-time.After(waitTimeout):
		t.Fatal("round was not handed to the saver")
	}
	h.Shutdown()

	select {
	case <-h.done:
		t.Fatal("Serve returned while a save was in flight")
	case <-time.After(100 * time.Millisecond):
	}
	close(saver.release)
	require.NoError(t, h.wait(t))

	saver.mu.Lock()
	defer saver.mu.Unlock()
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "exhaustion", saver.saved[0].Ending)
}

func TestMembershipFollowsJoinOrder(t *testing.T) {
	h := serveHost(t, testConfig())

	ann := dial(t, h, "ann")
	waitFor(t, ann.Updates(), names("ann"))

	bob := dial(t, h, "bob")
	waitFor(t, ann.Updates(), names("ann", "bob"))
	r := waitFor(t, bob.Updates(), names("ann", "bob"))
	assert.Equal(t, "host", r.Host)
	waitFor(t, h.Updates(), names("ann", "bob"))

	assert.Equal(t, []string{"ann", "bob"}, h.Members().ClientNames)
	assert.Equal(t, []string{"ann", "bob"}, bob.Members().ClientNames)
}

func TestJoinRejections(t *testing.T) {
	cfg := testConfig()
	cfg.MaxClients, cfg.MinClients = 1, 1
	h := serveHost(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	_, err := Dial(ctx, h.Addr().String(), "host", cfg)
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), ReasonNameTaken)

	dial(t, h, "ann")
	_, err = Dial(ctx, h.Addr().String(), "bob", cfg)
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), ReasonTableFull)

	assert.Equal(t, []string{"ann"}, h.Members().ClientNames)
}

func TestFirstMessageMustBeJoin(t *testing.T) {
	h := serveHost(t, testConfig())

	conn, err := net.Dial("tcp", h.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(waitTimeout))

	require.NoError(t, protocol.Send(conn, protocol.Ping{}))
	msg, err := protocol.Receive(conn, 0, protocol.ToClient)
	require.NoError(t, err)
	assert.Equal(t, protocol.JoinReply{Status: protocol.StatusFailure, Reason: ReasonViolation}, msg)

	_, err = protocol.Receive(conn, 0, protocol.ToClient)
	assert.ErrorIs(t, err, protocol.ErrDisconnected)
	assert.Empty(t, h.Members().ClientNames)
}

func TestActionBeforeStartIsRejected(t *testing.T) {
	h := serveHost(t, testConfig())
	ann := dial(t, h, "ann")

	require.NoError(t, ann.Submit(protocol.PickDeck{}))
	r := waitFor(t, ann.Updates(), result(protocol.CmdPickDeck))
	assert.False(t, r.Status.OK())
	assert.Equal(t, ErrNoRound.Error(), r.Reason)

	require.NoError(t, ann.RequestState())
	r = waitFor(t, ann.Updates(), result(protocol.CmdGameState))
	assert.False(t, r.Status.OK())

	assert.ErrorIs(t, h.Start(), ErrPartyTooSmall)
	assert.ErrorIs(t, h.Submit(protocol.PickDeck{}), ErrNoRound)
}

func TestTurnBroadcastsPerSeatViews(t *testing.T) {
	h := serveHost(t, testConfig(), WithGameOptions(game.WithOrder([]int{0, 1, 2})))
	ann := dial(t, h, "ann")
	bob := dial(t, h, "bob")
	waitFor(t, ann.Updates(), names("ann", "bob"))

	require.NoError(t, h.Start())
	assert.ErrorIs(t, h.Start(), ErrRoundRunning)

	start := waitFor[protocol.Start](t, ann.Updates(), nil)
	assert.Equal(t, 1, start.Round)
	st := waitFor[protocol.GameState](t, ann.Updates(), nil)
	assert.Equal(t, 1, st.View.ID)
	assert.Len(t, st.View.Players[1].Hand, game.DefaultHandSize)
	assert.Nil(t, st.View.Players[0].Hand, "other hands are redacted")
	assert.Nil(t, st.View.Players[2].Hand)
	assert.Equal(t, game.PromptWait, st.View.Prompt)

	// Host plays its turn locally.
	require.NoError(t, h.Submit(protocol.PickDeck{}))
	v, ok := h.View()
	require.True(t, ok)
	discarded := v.Players[0].Hand[0]
	require.NoError(t, h.Submit(protocol.Discard{Card: discarded}))

	rotated := func(s protocol.GameState) bool {
		return slices.Equal(s.View.Order, []int{1, 2, 0}) && s.View.Phase == game.PhaseAwaitingDraw
	}
	st = waitFor(t, ann.Updates(), rotated)
	assert.Equal(t, []cards.Card{discarded}, st.View.Discard)
	assert.Equal(t, game.PromptDraw, st.View.Prompt)
	waitFor(t, bob.Updates(), rotated)

	// Now it is ann's turn, over the wire.
	assert.ErrorIs(t, h.Submit(protocol.PickDeck{}), game.ErrNotYourTurn)
	require.NoError(t, ann.Submit(protocol.PickDeck{}))
	r := waitFor(t, ann.Updates(), result(protocol.CmdPickDeck))
	assert.True(t, r.Status.OK())
	st = waitFor(t, ann.Updates(), turn(1, game.PhasePostDraw))
	assert.Len(t, st.View.Players[1].Hand, game.DefaultHandSize+1)

	st = waitFor(t, bob.Updates(), turn(1, game.PhasePostDraw))
	assert.Equal(t, game.DefaultHandSize+1, st.View.Players[1].NumCards)
	assert.Nil(t, st.View.Players[1].Hand)

	got, ok := ann.Last()
	require.True(t, ok)
	assert.Equal(t, game.PhasePostDraw, got.Phase)
}

func TestEmptyDeckStartsExhaustion(t *testing.T) {
	saver := &fakeSaver{recs: make(chan RoundRecord, 4)}
	short := func() (*cards.Deck, error) {
		// One card left after the deal.
		return cards.DeckOf(cards.Standard()[:3*game.DefaultHandSize+1]...), nil
	}
	h := serveHost(t, testConfig(),
		WithRoundSaver(saver),
		WithGameOptions(game.WithOrder([]int{0, 1, 2}), game.WithDeckSource(short)),
	)
	ann := dial(t, h, "ann")
	bob := dial(t, h, "bob")
	waitFor(t, ann.Updates(), names("ann", "bob"))
	require.NoError(t, h.Start())

	require.NoError(t, h.Submit(protocol.PickDeck{}))
	v, _ := h.View()
	assert.Zero(t, v.DeckSize)
	require.NoError(t, h.Submit(protocol.Discard{Card: v.Players[0].Hand[0]}))

	st := waitFor(t, ann.Updates(), phase(game.PhaseRoundOver))
	assert.Equal(t, game.EndingExhaustion, st.View.Ending)
	assert.Equal(t, game.NoWinner, st.View.Winner)
	assert.Zero(t, st.View.DeckSize)

	require.NoError(t, ann.Submit(protocol.PickDeck{}))
	r := waitFor(t, ann.Updates(), result(protocol.CmdPickDeck))
	assert.False(t, r.Status.OK())

	select {
	case rec := <-saver.recs:
		assert.Equal(t, h.ID(), rec.TableID)
		assert.Equal(t, 1, rec.Round)
		assert.Equal(t, "exhaustion", rec.Ending)
		assert.Empty(t, rec.Winner)
		assert.Equal(t, []string{"host", "ann", "bob"}, rec.Players)
		assert.Len(t, rec.Points, 3)
	case <-time.After(waitTimeout):
		t.Fatal("round was not saved")
	}

	// Everyone accepts the rematch.
	require.NoError(t, h.Submit(protocol.Rematch{Value: 1}))
	require.NoError(t, ann.Submit(protocol.Rematch{Value: 1}))
	waitFor(t, ann.Updates(), result(protocol.CmdRematch))
	require.NoError(t, bob.Submit(protocol.Rematch{Value: 1}))

	waitFor(t, bob.Updates(), round(2))
	st = waitFor(t, bob.Updates(), phase(game.PhaseAwaitingDraw))
	assert.Equal(t, 2, st.View.Round)
	assert.Len(t, st.View.Players[2].Hand, game.DefaultHandSize)
}

func TestDeclinedRematchReturnsToLobby(t *testing.T) {
	short := func() (*cards.Deck, error) {
		return cards.DeckOf(cards.Standard()[:3*game.DefaultHandSize+1]...), nil
	}
	h := serveHost(t, testConfig(), WithGameOptions(game.WithOrder([]int{0, 1, 2}), game.WithDeckSource(short)))
	ann := dial(t, h, "ann")
	dial(t, h, "bob")
	waitFor(t, ann.Updates(), names("ann", "bob"))
	require.NoError(t, h.Start())

	require.NoError(t, h.Submit(protocol.PickDeck{}))
	v, _ := h.View()
	require.NoError(t, h.Submit(protocol.Discard{Card: v.Players[0].Hand[0]}))
	waitFor(t, ann.Updates(), phase(game.PhaseRoundOver))

	require.NoError(t, ann.Submit(protocol.Rematch{Value: 0}))
	waitFor(t, ann.Updates(), phase(game.PhaseClosed))

	_, ok := h.View()
	assert.False(t, ok)
	assert.Equal(t, []string{"ann", "bob"}, h.Members().ClientNames, "members stay connected")
	require.NoError(t, h.Start(), "a new game can be dealt")
}

func TestIllegalLayOffLeavesStateUnchanged(t *testing.T) {
	c := cards.New
	deck := stackedDeck(
		[]cards.Card{c(cards.Seven, cards.Hearts), c(cards.Eight, cards.Hearts), c(cards.Nine, cards.Hearts), c(cards.King, cards.Clubs)},
		[]cards.Card{c(cards.Two, cards.Spades), c(cards.Three, cards.Clubs), c(cards.Five, cards.Diamonds), c(cards.Jack, cards.Diamonds)},
		[]cards.Card{c(cards.Four, cards.Spades), c(cards.Six, cards.Clubs), c(cards.Ten, cards.Diamonds), c(cards.Queen, cards.Spades)},
	)
	cfg := testConfig()
	cfg.HandSize = 4
	h := serveHost(t, cfg, WithGameOptions(game.WithOrder([]int{0, 1, 2}), game.WithDeckSource(deck)))
	ann := dial(t, h, "ann")
	dial(t, h, "bob")
	waitFor(t, ann.Updates(), names("ann", "bob"))
	require.NoError(t, h.Start())

	run := []cards.Card{c(cards.Seven, cards.Hearts), c(cards.Eight, cards.Hearts), c(cards.Nine, cards.Hearts)}
	require.NoError(t, h.Submit(protocol.PickDeck{}))
	require.NoError(t, h.Submit(protocol.Expose{Cards: run}))
	require.NoError(t, h.Submit(protocol.Discard{Card: c(cards.King, cards.Clubs)}))

	require.NoError(t, ann.Submit(protocol.PickDeck{}))
	waitFor(t, ann.Updates(), turn(1, game.PhasePostDraw))

	require.NoError(t, ann.RequestState())
	before := waitFor[protocol.GameState](t, ann.Updates(), nil)
	require.Equal(t, [][]cards.Card{run}, before.View.Players[0].Melds)

	require.NoError(t, ann.Submit(protocol.LayOff{Card: c(cards.Two, cards.Spades), Owner: 0, Meld: 0}))
	r := waitFor(t, ann.Updates(), result(protocol.CmdLayOff))
	assert.False(t, r.Status.OK())
	assert.Equal(t, game.ErrIllegalLayOff.Error(), r.Reason)

	require.NoError(t, ann.RequestState())
	after := waitFor[protocol.GameState](t, ann.Updates(), nil)
	assert.Equal(t, before.View, after.View)
}

func TestSilentClientIsPruned(t *testing.T) {
	h := serveHost(t, testConfig())
	ann := dial(t, h, "ann")
	waitFor(t, ann.Updates(), names("ann"))

	ghost, err := net.Dial("tcp", h.Addr().String())
	require.NoError(t, err)
	defer ghost.Close()
	_ = ghost.SetDeadline(time.Now().Add(waitTimeout))
	require.NoError(t, protocol.Send(ghost, protocol.Join{Name: "ghost"}))
	msg, err := protocol.Receive(ghost, 0, protocol.ToClient)
	require.NoError(t, err)
	require.Equal(t, protocol.JoinReply{Status: protocol.StatusSuccess}, msg)

	waitFor(t, ann.Updates(), names("ann", "ghost"))
	waitFor(t, ann.Updates(), names("ann"))
	waitFor(t, h.Updates(), names("ann"))

	var kick protocol.Kick
	for {
		msg, err := protocol.Receive(ghost, 0, protocol.ToClient)
		require.NoError(t, err)
		if k, ok := msg.(protocol.Kick); ok {
			kick = k
			break
		}
	}
	assert.Equal(t, ReasonPingTimeout, kick.Reason)

	require.NoError(t, ann.RequestNames())
	cn := waitFor[protocol.ClientNames](t, ann.Updates(), nil)
	assert.Equal(t, []string{"ann"}, cn.ClientNames)
	assert.Equal(t, "host", cn.Host)
}

func TestPurgeStaleKeepsFreshClients(t *testing.T) {
	h := serveHost(t, testConfig())
	ann := dial(t, h, "ann")
	waitFor(t, ann.Updates(), names("ann"))

	assert.Zero(t, h.purgeStale(time.Now()))
	assert.Equal(t, 1, h.purgeStale(time.Now().Add(time.Minute)))
	<-ann.Done()
	assert.ErrorIs(t, ann.Err(), ErrKicked)
}

func TestLeaveMidRoundAborts(t *testing.T) {
	h := serveHost(t, testConfig())
	ann := dial(t, h, "ann")
	bob := dial(t, h, "bob")
	waitFor(t, ann.Updates(), names("ann", "bob"))
	require.NoError(t, h.Start())
	waitFor[protocol.GameState](t, ann.Updates(), nil)

	require.NoError(t, bob.Leave())
	assert.NoError(t, bob.Err())

	abort := waitFor[protocol.Abort](t, ann.Updates(), nil)
	assert.Contains(t, abort.Reason, "bob")
	waitFor(t, ann.Updates(), names("ann"))
	waitFor[protocol.Abort](t, h.Updates(), nil)

	_, ok := ann.Last()
	assert.False(t, ok)
	_, ok = h.View()
	assert.False(t, ok)
	assert.ErrorIs(t, h.Start(), ErrPartyTooSmall)
}

func TestShutdownDisbandsClients(t *testing.T) {
	h := serveHost(t, testConfig())
	ann := dial(t, h, "ann")
	waitFor(t, ann.Updates(), names("ann"))

	h.Shutdown()
	require.NoError(t, h.wait(t))

	select {
	case <-ann.Done():
	case <-time.After(waitTimeout):
		t.Fatal("client still connected")
	}
	assert.ErrorIs(t, ann.Err(), ErrDisbanded)
	assert.ErrorIs(t, ann.Submit(protocol.PickDeck{}), ErrClientClosed)
	assert.ErrorIs(t, h.Start(), ErrHostClosed)
	h.Shutdown()
}

func TestPresenceRegistersAndHides(t *testing.T) {
	reg := newFakeRegistrar(nil)
	cfg := testConfig()
	h := serveHost(t, cfg, WithRegistrar(reg))

	first := reg.next(t)
	assert.Equal(t, catalog.Registration{Type: cfg.EntryType, Owner: "host", Port: h.Port(), NumClients: 0}, first)

	dial(t, h, "ann")
	assert.Equal(t, 1, reg.next(t).NumClients)

	h.Shutdown()
	require.NoError(t, h.wait(t))
	assert.Equal(t, cfg.MaxClients+1, reg.next(t).NumClients)
}

func TestPresenceFailureStopsHosting(t *testing.T) {
	boom := errors.New("catalog unreachable")
	h := serveHost(t, testConfig(), WithRegistrar(newFakeRegistrar(boom)))

	err := h.wait(t)
	require.ErrorIs(t, err, boom)
	<-h.Done()
}

func TestHostSeatRequests(t *testing.T) {
	h := serveHost(t, testConfig())
	ann := dial(t, h, "ann")
	bob := dial(t, h, "bob")
	waitFor(t, ann.Updates(), names("ann", "bob"))

	require.NoError(t, h.RequestState())
	r := waitFor(t, h.Updates(), result(protocol.CmdGameState))
	assert.False(t, r.Status.OK())

	require.NoError(t, h.RequestNames())
	cn := waitFor[protocol.ClientNames](t, h.Updates(), nil)
	assert.Equal(t, []string{"ann", "bob"}, cn.ClientNames)

	require.NoError(t, h.Start())
	require.NoError(t, h.RequestState())
	st := waitFor[protocol.GameState](t, h.Updates(), nil)
	assert.Equal(t, HostSeat, st.View.ID)
	assert.Len(t, st.View.Players[HostSeat].Hand, game.DefaultHandSize)

	require.NoError(t, h.Leave())
	<-bob.Done()
	assert.ErrorIs(t, bob.Err(), ErrDisbanded)
	assert.ErrorIs(t, h.RequestNames(), ErrHostClosed)
}

func TestServeRequiresListener(t *testing.T) {
	h, err := NewHost(testConfig(), "host")
	require.NoError(t, err)
	assert.ErrorIs(t, h.Serve(context.Background()), ErrNotListening)

	_, err = NewHost(testConfig(), "")
	assert.Error(t, err)

	bad := testConfig()
	bad.PingInterval = 0
	_, err = NewHost(bad, "host")
	assert.Error(t, err)
}
