// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Asks before removing an offer and its follow-ups
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	o, err := m.selectedOffer()
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	title := warningStyle.Render("⚠  DELETE OFFER  ⚠")
	info := fmt.Sprintf("\n%s via %s on %s\n", o.OfferType, o.Channel, o.Date.Format("2006-01-02"))
	warning := fmt.Sprintf("\n%d follow-up(s) will be removed too. This cannot be undone!", len(o.Followups))

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		"Are you sure you want to delete this offer?",
		info,
		warning,
		"",
		buttons,
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		confirmBoxStyle.Render(content),
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		o, err := m.selectedOffer()
		if err == nil {
			err = m.tr.DeleteOffer(o.ID)
		}
		m.setResult("Offer deleted", err)
		m.viewMode = ViewList
		m.selectedID = ""
		m.selectedRow = 0
	case "n", "N", "esc":
		m.viewMode = ViewDetail
	}

	return m, nil
}
