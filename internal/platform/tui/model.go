package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tongits/internal/game"
	"github.com/vovakirdan/tongits/internal/multiplayer"
	"github.com/vovakirdan/tongits/internal/protocol"
)

// Seat is one player's connection to a table. *multiplayer.Host and
// *multiplayer.Client both satisfy it.
type Seat interface {
	Name() string
	Updates() <-chan protocol.Message
	Done() <-chan struct{}
	Submit(a protocol.Action) error
	RequestNames() error
	RequestState() error
	Leave() error
}

// starter is the host-only part of a seat.
type starter interface {
	Start() error
}

var (
	_ Seat = (*multiplayer.Host)(nil)
	_ Seat = (*multiplayer.Client)(nil)
)

// maxLogLines bounds the event log under the table.
const maxLogLines = 6

// HostMsg wraps a message received from the table.
type HostMsg struct {
	protocol.Message
}

// ClosedMsg reports that the seat's connection has ended.
type ClosedMsg struct{}

// TableModel is the Bubble Tea model for sitting at a table.
type TableModel struct {
	seat     Seat
	input    textinput.Model
	help     help.Model
	keys     TableKeyMap
	view     *game.View
	members  protocol.Refresh
	log      []string
	showHelp bool
	closed   bool
	width    int
	height   int
	quitting bool
}

// NewTableModel creates a table model for seat.
func NewTableModel(seat Seat, width, height int) TableModel {
	in := textinput.New()
	in.Placeholder = "type a command, e.g. pick"
	in.Prompt = "> "
	in.CharLimit = 80
	in.Focus()

	h := help.New()
	h.Width = width

	return TableModel{
		seat:   seat,
		input:  in,
		help:   h,
		keys:   DefaultTableKeyMap(),
		width:  width,
		height: height,
	}
}

// Init starts listening for table messages.
func (m TableModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

// waitForEvent returns a command that waits for the next table message.
// Messages still buffered when the connection ends are delivered first.
func (m TableModel) waitForEvent() tea.Cmd {
	updates, done := m.seat.Updates(), m.seat.Done()
	return func() tea.Msg {
		select {
		case msg := <-updates:
			return HostMsg{msg}
		case <-done:
			select {
			case msg := <-updates:
				return HostMsg{msg}
			default:
				return ClosedMsg{}
			}
		}
	}
}

// Update handles messages.
func (m TableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case HostMsg:
		m.apply(msg.Message)
		return m, m.waitForEvent()

	case ClosedMsg:
		m.closed = true
		m.addLog("connection closed; press ctrl+c to exit")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m TableModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		m.input.SetValue("")
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		line := m.input.Value()
		m.input.SetValue("")
		return m.execute(line)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m TableModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if !m.closed {
		//nolint:errcheck // Best-effort goodbye, we exit regardless
		m.seat.Leave()
	}
	return m, tea.Quit
}

// execute runs one typed command line.
func (m TableModel) execute(line string) (tea.Model, tea.Cmd) {
	cmd, err := ParseCommand(line)
	if errors.Is(err, ErrEmptyCommand) {
		return m, nil
	}
	if err != nil {
		m.addLog("error: " + err.Error())
		return m, nil
	}
	if cmd.Kind == CommandQuit {
		return m.quit()
	}
	if m.closed {
		m.addLog("error: not connected")
		return m, nil
	}

	switch cmd.Kind {
	case CommandAction:
		err = m.seat.Submit(cmd.Action)
	case CommandStart:
		s, ok := m.seat.(starter)
		if !ok {
			err = errors.New("only the host can start a round")
			break
		}
		err = s.Start()
	case CommandNames:
		err = m.seat.RequestNames()
	case CommandState:
		err = m.seat.RequestState()
	case CommandHelp:
		m.showHelp = !m.showHelp
	}
	if err != nil {
		m.addLog("error: " + err.Error())
	}
	return m, nil
}

// apply folds one table message into the model.
func (m *TableModel) apply(msg protocol.Message) {
	switch msg := msg.(type) {
	case protocol.GameState:
		v := msg.View
		m.view = &v
	case protocol.Refresh:
		m.members = msg
		m.addLog(fmt.Sprintf("at the table: %s", m.memberList()))
	case protocol.ClientNames:
		m.members = protocol.Refresh{Host: msg.Host, ClientNames: msg.ClientNames}
		m.addLog(fmt.Sprintf("at the table: %s", m.memberList()))
	case protocol.Start:
		m.addLog(fmt.Sprintf("round %d dealt", msg.Round))
	case protocol.Result:
		if !msg.Status.OK() {
			m.addLog(fmt.Sprintf("%s rejected: %s", msg.Action, msg.Reason))
		}
	case protocol.Abort:
		m.view = nil
		m.addLog("round aborted: " + msg.Reason)
	case protocol.Kick:
		m.addLog("kicked: " + msg.Reason)
	case protocol.Disband:
		m.addLog("the host closed the table")
	}
}

func (m TableModel) memberList() string {
	all := append([]string{m.members.Host + " (host)"}, m.members.ClientNames...)
	return strings.Join(all, ", ")
}

func (m *TableModel) addLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

// View renders the table, the event log and the input line.
func (m TableModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText("T O N G - I T S", m.width)))
	b.WriteString("\n\n")

	if m.view != nil {
		b.WriteString(RenderTable(*m.view))
	} else {
		lobby := fmt.Sprintf("Lobby - %s", m.seat.Name())
		if m.members.Host != "" {
			lobby += "\nAt the table: " + m.memberList()
		}
		lobby += "\n" + dimStyle.Render("waiting for the host to start")
		b.WriteString(panelStyle.Render(lobby))
	}
	b.WriteString("\n\n")

	for _, line := range m.log {
		style := dimStyle
		if strings.HasPrefix(line, "error") || strings.Contains(line, "rejected") {
			style = errorStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(Usage))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// TableView returns the last received view, if a round is running.
func (m TableModel) TableView() (game.View, bool) {
	if m.view == nil {
		return game.View{}, false
	}
	return *m.view, true
}

// Log returns the event log, oldest first.
func (m TableModel) Log() []string {
	return m.log
}

// Closed reports whether the connection has ended.
func (m TableModel) Closed() bool {
	return m.closed
}

// RunTable runs the table screen for seat until the user leaves.
func RunTable(seat Seat, width, height int, opts ...tea.ProgramOption) error {
	model := NewTableModel(seat, width, height)

	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(model, opts...)

	_, err := p.Run()
	return err
}
