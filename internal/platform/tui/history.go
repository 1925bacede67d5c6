package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tongits/internal/storage"
)

// maxRounds is how many saved rounds the history screen loads.
const maxRounds = 100

// HistorySource is the read side of the round history store.
type HistorySource interface {
	RecentRounds(limit int) ([]storage.RoundEntry, error)
	Standings() ([]storage.Standing, error)
}

var _ HistorySource = (*storage.Store)(nil)

// historyTab selects what the history screen shows.
type historyTab int

const (
	tabRounds historyTab = iota
	tabStandings
)

// HistoryModel is the Bubble Tea model for the round history screen.
type HistoryModel struct {
	source    HistorySource
	tab       historyTab
	rounds    []storage.RoundEntry
	standings []storage.Standing
	loadErr   error
	table     table.Model
	help      help.Model
	keys      ListKeyMap
	width     int
	height    int
	quitting  bool
}

// NewHistoryModel creates a history model reading from source.
func NewHistoryModel(source HistorySource, width, height int) HistoryModel {
	keys := DefaultListKeyMap()
	keys.Select.SetEnabled(false)
	h := help.New()
	h.Width = width

	m := HistoryModel{
		source: source,
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
	m.load()
	m.table = m.createTable()
	return m
}

// load reads both views from the source.
func (m *HistoryModel) load() {
	m.loadErr = nil
	if m.source == nil {
		return
	}
	rounds, err := m.source.RecentRounds(maxRounds)
	if err != nil {
		m.loadErr = err
		return
	}
	standings, err := m.source.Standings()
	if err != nil {
		m.loadErr = err
		return
	}
	m.rounds, m.standings = rounds, standings
}

// createTable creates a table with columns for the current tab.
func (m *HistoryModel) createTable() table.Model {
	var columns []table.Column
	switch m.tab {
	case tabRounds:
		columns = []table.Column{
			{Title: "Played", Width: 14},
			{Title: "Round", Width: 6},
			{Title: "Ending", Width: 11},
			{Title: "Winner", Width: 14},
			{Title: "Points", Width: m.pointsWidth()},
		}
	case tabStandings:
		columns = []table.Column{
			{Title: "Rank", Width: 6},
			{Title: "Player", Width: 16},
			{Title: "Wins", Width: 6},
			{Title: "Rounds", Width: 8},
			{Title: "Points", Width: 8},
			{Title: "Last played", Width: 14},
		}
	}

	height := m.height - 8 // Leave room for header, help, and margins
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(m.rows()),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func (m *HistoryModel) pointsWidth() int {
	w := m.width - 4 - 14 - 6 - 11 - 14 - 10
	if w < 16 {
		w = 16
	}
	if w > 48 {
		w = 48
	}
	return w
}

// rows renders the current tab's data as table rows.
func (m *HistoryModel) rows() []table.Row {
	switch m.tab {
	case tabStandings:
		rows := make([]table.Row, len(m.standings))
		for i, s := range m.standings {
			rows[i] = table.Row{
				fmt.Sprintf("#%d", i+1),
				s.Name,
				fmt.Sprintf("%d", s.Wins),
				fmt.Sprintf("%d", s.Rounds),
				fmt.Sprintf("%d", s.Points),
				s.LastPlayed.Format("Jan 02 15:04"),
			}
		}
		return rows
	default:
		rows := make([]table.Row, len(m.rounds))
		for i, r := range m.rounds {
			winner := r.Winner
			if winner == "" {
				winner = "-"
			}
			rows[i] = table.Row{
				r.PlayedAt.Format("Jan 02 15:04"),
				fmt.Sprintf("%d", r.Round),
				r.Ending,
				winner,
				seatPoints(r.Seats),
			}
		}
		return rows
	}
}

// seatPoints summarises a round as "host 0, ann 14".
func seatPoints(seats []storage.SeatResult) string {
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = fmt.Sprintf("%s %d", s.Name, s.Points)
	}
	return strings.Join(parts, ", ")
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history screen.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Back):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Switch):
			m.tab = (m.tab + 1) % 2
			m.table = m.createTable()
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			m.load()
			m.table.SetRows(m.rows())
			m.table.GotoTop()
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history screen.
func (m HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "ROUND HISTORY"
	if m.tab == tabStandings {
		title = "STANDINGS"
	}
	b.WriteString(titleStyle.MarginBottom(1).Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	var content string
	switch {
	case m.loadErr != nil:
		content = errorStyle.Padding(2, 4).Render("Could not read history:\n" + m.loadErr.Error())
	case len(m.table.Rows()) == 0:
		content = dimStyle.Italic(true).Padding(2, 4).Render("No rounds recorded yet.\nHost a table to start one!")
	default:
		content = m.table.View()
	}
	b.WriteString(panelStyle.Render(content))

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// Tab reports which view is showing: 0 for rounds, 1 for standings.
func (m HistoryModel) Tab() int {
	return int(m.tab)
}

// Rows returns the rows currently in the table.
func (m HistoryModel) Rows() []table.Row {
	return m.table.Rows()
}

// RunHistory runs the history screen.
func RunHistory(source HistorySource, width, height int) error {
	model := NewHistoryModel(source, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
