package tui

import (
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tongits/internal/cards"
	"github.com/vovakirdan/tongits/internal/game"
	"github.com/vovakirdan/tongits/internal/protocol"
)

// fakeSeat records what the table screen asks of its seat.
type fakeSeat struct {
	mu        sync.Mutex
	updates   chan protocol.Message
	done      chan struct{}
	submitted []protocol.Action
	requests  []string
	left      bool
	submitErr error
}

func newFakeSeat() *fakeSeat {
	return &fakeSeat{
		updates: make(chan protocol.Message, 8),
		done:    make(chan struct{}),
	}
}

func (s *fakeSeat) Name() string                     { return "ann" }
func (s *fakeSeat) Updates() <-chan protocol.Message { return s.updates }
func (s *fakeSeat) Done() <-chan struct{}            { return s.done }

func (s *fakeSeat) Submit(a protocol.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, a)
	return s.submitErr
}

func (s *fakeSeat) RequestNames() error {
	s.requests = append(s.requests, "names")
	return nil
}

func (s *fakeSeat) RequestState() error {
	s.requests = append(s.requests, "state")
	return nil
}

func (s *fakeSeat) Leave() error {
	s.left = true
	return nil
}

// fakeHostSeat can also deal.
type fakeHostSeat struct {
	*fakeSeat
	started int
}

func (s *fakeHostSeat) Start() error {
	s.started++
	return nil
}

func typeLine(t *testing.T, m TableModel, line string) (TableModel, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	out, ok := next.(TableModel)
	require.True(t, ok)
	return out, cmd
}

func feed(t *testing.T, m TableModel, msg tea.Msg) TableModel {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(TableModel)
	require.True(t, ok)
	return out
}

func sampleView() game.View {
	return game.View{
		ID:       1,
		Round:    2,
		Phase:    game.PhaseAwaitingDraw,
		DeckSize: 15,
		Discard:  []cards.Card{cards.New(cards.Two, cards.Clubs), cards.New(cards.Queen, cards.Hearts)},
		Order:    []int{1, 2, 0},
		Winner:   game.NoWinner,
		Prompt:   game.PromptDraw,
		Players: []game.PlayerView{
			{Name: "host", Score: 1, NumCards: 12, Melds: [][]cards.Card{{
				cards.New(cards.Seven, cards.Hearts), cards.New(cards.Eight, cards.Hearts), cards.New(cards.Nine, cards.Hearts),
			}}},
			{Name: "ann", NumCards: 2, Hand: []cards.Card{cards.New(cards.Ten, cards.Hearts), cards.New(cards.King, cards.Clubs)}},
			{Name: "bob", NumCards: 12, CanDraw: true},
		},
	}
}

func TestTableSubmitsParsedActions(t *testing.T) {
	seat := newFakeSeat()
	m := NewTableModel(seat, 80, 24)

	m, _ = typeLine(t, m, "discard kc")
	m, _ = typeLine(t, m, "fold")

	assert.Equal(t, []protocol.Action{
		protocol.Discard{Card: cards.New(cards.King, cards.Clubs)},
		protocol.Challenge{Value: 0},
	}, seat.submitted)
	assert.Empty(t, m.Log())
	assert.Empty(t, m.input.Value())
}

func TestTableReportsBadInput(t *testing.T) {
	seat := newFakeSeat()
	m := NewTableModel(seat, 80, 24)

	m, _ = typeLine(t, m, "take 5h")
	m, _ = typeLine(t, m, "start")

	require.Len(t, m.Log(), 2)
	assert.True(t, strings.HasPrefix(m.Log()[0], "error: "))
	assert.Equal(t, "error: only the host can start a round", m.Log()[1])
	assert.Empty(t, seat.submitted)
}

func TestTableHostCanStart(t *testing.T) {
	seat := &fakeHostSeat{fakeSeat: newFakeSeat()}
	m := NewTableModel(seat, 80, 24)

	m, _ = typeLine(t, m, "deal")
	assert.Equal(t, 1, seat.started)
	assert.Empty(t, m.Log())
}

func TestTableRequests(t *testing.T) {
	seat := newFakeSeat()
	m := NewTableModel(seat, 80, 24)

	m, _ = typeLine(t, m, "names")
	_, _ = typeLine(t, m, "state")
	assert.Equal(t, []string{"names", "state"}, seat.requests)
}

func TestTableAppliesHostMessages(t *testing.T) {
	seat := newFakeSeat()
	m := NewTableModel(seat, 80, 24)

	_, ok := m.TableView()
	assert.False(t, ok)

	m = feed(t, m, HostMsg{protocol.Refresh{Host: "host", ClientNames: []string{"ann", "bob"}}})
	m = feed(t, m, HostMsg{protocol.Start{Round: 2}})
	m = feed(t, m, HostMsg{protocol.GameState{View: sampleView()}})
	m = feed(t, m, HostMsg{protocol.Result{Action: protocol.CmdDiscard, Status: protocol.StatusFailure, Reason: "game: not your turn"}})

	v, ok := m.TableView()
	require.True(t, ok)
	assert.Equal(t, 2, v.Round)
	assert.Equal(t, []string{
		"at the table: host (host), ann, bob",
		"round 2 dealt",
		"discard rejected: game: not your turn",
	}, m.Log())

	m = feed(t, m, HostMsg{protocol.Abort{Reason: "bob left"}})
	_, ok = m.TableView()
	assert.False(t, ok)
	assert.Equal(t, "round aborted: bob left", m.Log()[len(m.Log())-1])
}

func TestTableLogIsBounded(t *testing.T) {
	m := NewTableModel(newFakeSeat(), 80, 24)
	for i := 0; i < maxLogLines+3; i++ {
		m = feed(t, m, HostMsg{protocol.Start{Round: i + 1}})
	}
	require.Len(t, m.Log(), maxLogLines)
	assert.Equal(t, "round 4 dealt", m.Log()[0])
}

func TestTableClosedConnection(t *testing.T) {
	seat := newFakeSeat()
	m := NewTableModel(seat, 80, 24)

	m = feed(t, m, ClosedMsg{})
	assert.True(t, m.Closed())

	m, _ = typeLine(t, m, "pick")
	assert.Empty(t, seat.submitted)
	assert.Equal(t, "error: not connected", m.Log()[len(m.Log())-1])

	// Leaving a closed table does not say goodbye again.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)
	assert.False(t, seat.left)
}

func TestTableQuitLeaves(t *testing.T) {
	seat := newFakeSeat()
	m := NewTableModel(seat, 80, 24)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, seat.left)
	assert.Empty(t, next.View())

	seat = newFakeSeat()
	m = NewTableModel(seat, 80, 24)
	_, cmd = typeLine(t, m, "leave")
	require.NotNil(t, cmd)
	assert.True(t, seat.left)
}

func TestWaitForEventDrainsBeforeClosing(t *testing.T) {
	seat := newFakeSeat()
	m := NewTableModel(seat, 80, 24)

	seat.updates <- protocol.Disband{}
	close(seat.done)

	msg := m.waitForEvent()()
	assert.Equal(t, HostMsg{protocol.Disband{}}, msg)
	assert.Equal(t, ClosedMsg{}, m.waitForEvent()())
}

func TestTableViewRendersLobbyThenTable(t *testing.T) {
	m := NewTableModel(newFakeSeat(), 80, 24)
	assert.Contains(t, m.View(), "waiting for the host to start")

	m = feed(t, m, HostMsg{protocol.GameState{View: sampleView()}})
	out := m.View()
	assert.Contains(t, out, "ROUND 2")
	assert.Contains(t, out, "ann (you)")
}
