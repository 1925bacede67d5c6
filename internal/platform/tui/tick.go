// Package tui provides the Bubble Tea screens for Tong-its: the table, the
// lobby picker and the round history, plus an SSH front door via Wish.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RefreshMsg is sent to trigger a periodic reload.
type RefreshMsg time.Time

// refreshCmd returns a Bubble Tea command that sends a refresh message after interval.
func refreshCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return RefreshMsg(t)
	})
}
