package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tongits/internal/cards"
	"github.com/vovakirdan/tongits/internal/game"
)

// suitStyles maps each suit to its card colour.
var suitStyles = map[cards.Suit]lipgloss.Style{
	cards.Clubs:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	cards.Spades:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	cards.Hearts:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	cards.Diamonds: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// RenderCard renders one card in its suit colour, e.g. "10♥".
func RenderCard(c cards.Card) string {
	style, ok := suitStyles[c.Suit]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(c.String())
}

// RenderCards renders cards separated by spaces.
func RenderCards(cs []cards.Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = RenderCard(c)
	}
	return strings.Join(parts, " ")
}

var promptText = map[game.Prompt]string{
	game.PromptWait:    "waiting for other players",
	game.PromptDraw:    "your turn: pick, take, or draw",
	game.PromptPlay:    "expose, layoff, draw, or discard",
	game.PromptRespond: "draw was called: challenge or fold",
	game.PromptMeld:    "expose your final melds, then done",
	game.PromptVote:    "rematch? yes or no",
}

// RenderTable renders the full table as seen by v.ID.
func RenderTable(v game.View) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("ROUND %d", v.Round)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s  deck %d", v.Phase, v.DeckSize)))
	b.WriteString("\n\n")

	b.WriteString("Discard: ")
	if n := len(v.Discard); n > 0 {
		b.WriteString(RenderCard(v.Discard[n-1]))
		if n > 1 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  (%d below)", n-1)))
		}
	} else {
		b.WriteString(dimStyle.Render("empty"))
	}
	b.WriteString("\n\n")

	active := -1
	if len(v.Order) > 0 {
		active = v.Order[0]
	}
	for seat, p := range v.Players {
		b.WriteString(renderPlayer(v, seat, p, seat == active))
		b.WriteString("\n")
	}

	if me := v.ID; me >= 0 && me < len(v.Players) {
		b.WriteString("\nYour hand: ")
		b.WriteString(RenderCards(v.Players[me].Hand))
		b.WriteString("\n")
	}

	if v.Result != nil {
		b.WriteString("\n")
		b.WriteString(renderResult(v))
	}

	b.WriteString("\n")
	if text, ok := promptText[v.Prompt]; ok {
		style := promptStyle
		if v.Prompt == game.PromptWait {
			style = dimStyle
		}
		b.WriteString(style.Render(text))
	}
	if hints := renderHints(v.Hints); hints != "" {
		b.WriteString(dimStyle.Render("  " + hints))
	}

	return panelStyle.Render(b.String())
}

func renderPlayer(v game.View, seat int, p game.PlayerView, active bool) string {
	marker := "  "
	style := lipgloss.NewStyle()
	if active {
		marker = "> "
		style = activeStyle
	}
	if v.Phase == game.PhaseSettlement && v.Pending == seat {
		marker = "? "
	}

	name := p.Name
	if seat == v.ID {
		name += " (you)"
	}
	line := fmt.Sprintf("%s[%d] %-16s score %d  cards %d", marker, seat, name, p.Score, p.NumCards)
	if p.CanDraw {
		line += "  can draw"
	}

	var b strings.Builder
	b.WriteString(style.Render(line))
	for i, m := range p.Melds {
		fmt.Fprintf(&b, "\n      meld %d: %s", i, RenderCards(m))
	}
	return b.String()
}

func renderResult(v game.View) string {
	r := v.Result
	winner := "nobody"
	if r.Winner >= 0 && r.Winner < len(v.Players) {
		winner = v.Players[r.Winner].Name
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Round %d over (%s): %s wins", r.Round, r.Ending, winner)))
	for seat, pts := range r.Points {
		if seat >= len(v.Players) {
			break
		}
		fmt.Fprintf(&b, "\n  %-16s %3d points", v.Players[seat].Name, pts)
	}
	b.WriteString("\n")
	return b.String()
}

func renderHints(h game.Hints) string {
	var hints []string
	if h.CanPickDiscard {
		hints = append(hints, "discard top melds")
	}
	if h.CanExpose {
		hints = append(hints, "meld in hand")
	}
	if h.CanCallDraw {
		hints = append(hints, "draw allowed")
	}
	return strings.Join(hints, ", ")
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}
