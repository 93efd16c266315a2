// ABOUTME: TUI views for the follow-up queue and scheduling form
// ABOUTME: Lists overdue and upcoming follow-ups and adds new ones to an offer
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/harperreed/offertrack/importer"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/tracker"
)

// defaultFollowupDays prefills the scheduling form.
const defaultFollowupDays = 7

func (m Model) renderFollowupsTable() string {
	due := m.tr.DueFollowups(followupWindow)
	if len(due) == 0 {
		return "Nothing due in the next week."
	}

	columns := []table.Column{
		{Title: "Status", Width: 10},
		{Title: "Offer", Width: 8},
		{Title: "Due", Width: 12},
		{Title: "Type", Width: 14},
		{Title: "Channel", Width: 12},
		{Title: "Notes", Width: 30},
	}

	today := models.StartOfDay(m.tr.Now())
	var rows []table.Row
	for _, d := range due {
		rows = append(rows, table.Row{
			followupStatus(d, today),
			d.Offer.ID.String()[:8],
			d.Followup.Date.Format("2006-01-02"),
			d.Offer.OfferType,
			d.Offer.Channel,
			d.Followup.Notes,
		})
	}

	return m.newTable(columns, rows).View()
}

func followupStatus(d tracker.DueFollowup, today time.Time) string {
	switch {
	case d.Overdue:
		return "🔴 late"
	case models.SameDay(d.Followup.Date, today):
		return "🟡 today"
	}
	return "🟢 soon"
}

func (m Model) renderFollowupView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("SCHEDULE FOLLOW-UP"))
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString(helpStyle.Render(strings.Join([]string{"Tab: Next field", "Enter: Save", "Esc: Cancel"}, " • ")))

	return s.String()
}

func (m *Model) initFollowupInputs() {
	inputs := make([]textinput.Model, 2)

	inputs[0] = textinput.New()
	inputs[0].Placeholder = "Date (YYYY-MM-DD)"
	inputs[0].CharLimit = 20
	inputs[0].SetValue(m.tr.Now().AddDate(0, 0, defaultFollowupDays).Format("2006-01-02"))

	inputs[1] = textinput.New()
	inputs[1].Placeholder = "Notes"
	inputs[1].CharLimit = 500

	m.formInputs = inputs
	m.focusIndex = 0
	m.message = ""
	m.updateFormFocus()
}

func (m Model) handleFollowupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewDetail
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		err := m.saveFollowup()
		m.setResult("Follow-up scheduled", err)
		if err == nil {
			m.viewMode = ViewDetail
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m Model) saveFollowup() error {
	id, err := uuid.Parse(m.selectedID)
	if err != nil {
		return fmt.Errorf("invalid ID: %w", err)
	}
	date, err := importer.ParseDate(m.formInputs[0].Value(), m.tr.Now().Location())
	if err != nil {
		return err
	}
	_, err = m.tr.AddFollowup(id, date, strings.TrimSpace(m.formInputs[1].Value()))
	return err
}
