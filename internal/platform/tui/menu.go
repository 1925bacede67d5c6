package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tongits/internal/catalog"
)

// LobbySource lists open tables.
type LobbySource interface {
	Lobbies(ctx context.Context, f catalog.Filter) ([]catalog.Lobby, error)
}

var _ LobbySource = (*catalog.Client)(nil)

// lobbiesMsg carries the result of one catalog query.
type lobbiesMsg struct {
	lobbies []catalog.Lobby
	err     error
}

// LobbyMenuModel is the Bubble Tea model for picking a table to join.
type LobbyMenuModel struct {
	source   LobbySource
	filter   catalog.Filter
	every    time.Duration
	timeout  time.Duration
	lobbies  []catalog.Lobby
	err      error
	loaded   bool
	cursor   int
	keys     ListKeyMap
	help     help.Model
	width    int
	height   int
	quitting bool
	selected *catalog.Lobby
}

// NewLobbyMenuModel creates a lobby picker that re-queries source every
// interval.
func NewLobbyMenuModel(source LobbySource, f catalog.Filter, every, timeout time.Duration, width, height int) LobbyMenuModel {
	keys := DefaultListKeyMap()
	keys.Switch.SetEnabled(false)
	h := help.New()
	h.Width = width
	return LobbyMenuModel{
		source:  source,
		filter:  f,
		every:   every,
		timeout: timeout,
		keys:    keys,
		help:    h,
		width:   width,
		height:  height,
	}
}

// Init starts the first query and the refresh timer.
func (m LobbyMenuModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), refreshCmd(m.every))
}

func (m LobbyMenuModel) fetch() tea.Cmd {
	source, f, timeout := m.source, m.filter, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		lobbies, err := source.Lobbies(ctx, f)
		return lobbiesMsg{lobbies: lobbies, err: err}
	}
}

// Update handles messages for the menu.
func (m LobbyMenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case lobbiesMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.lobbies = msg.lobbies
		}
		if m.cursor >= len(m.lobbies) {
			m.cursor = max(len(m.lobbies)-1, 0)
		}
		return m, nil

	case RefreshMsg:
		return m, tea.Batch(m.fetch(), refreshCmd(m.every))
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m LobbyMenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Back):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.lobbies)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch()

	case key.Matches(msg, m.keys.Select):
		if len(m.lobbies) > 0 {
			selected := m.lobbies[m.cursor]
			m.selected = &selected
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the menu.
func (m LobbyMenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(centerText("T O N G - I T S", m.width)))
	b.WriteString("\n\n")
	b.WriteString(centerText("Open tables", m.width))
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString(dimStyle.Render(centerText("asking the catalog...", m.width)))
		b.WriteString("\n")
	case m.err != nil && len(m.lobbies) == 0:
		b.WriteString(errorStyle.Render(centerText("catalog: "+m.err.Error(), m.width)))
		b.WriteString("\n")
	case len(m.lobbies) == 0:
		b.WriteString(dimStyle.Render(centerText("no open tables", m.width)))
		b.WriteString("\n")
	}

	now := time.Now()
	for i, l := range m.lobbies {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-16s %-22s %d/%d seated  %s ago",
			cursor, l.Owner, l.Addr(), l.NumClients, m.filter.MaxClients,
			now.Sub(l.LastHeardFrom).Truncate(time.Second))
		if i == m.cursor {
			line = activeStyle.Render(line)
		}
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	b.WriteString("\n")

	return b.String()
}

// Selected returns the chosen lobby, or nil if none was chosen.
func (m LobbyMenuModel) Selected() *catalog.Lobby {
	return m.selected
}

// IsQuitting returns true if user requested to quit.
func (m LobbyMenuModel) IsQuitting() bool {
	return m.quitting
}

// RunLobbyMenu runs the lobby picker and returns the chosen lobby, or nil.
func RunLobbyMenu(source LobbySource, f catalog.Filter, every, timeout time.Duration, width, height int) (*catalog.Lobby, error) {
	model := NewLobbyMenuModel(source, f, every, timeout, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	m, ok := finalModel.(LobbyMenuModel)
	if !ok {
		return nil, nil
	}
	return m.Selected(), nil
}
