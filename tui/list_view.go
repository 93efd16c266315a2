package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/offertrack/metrics"
	"github.com/harperreed/offertrack/models"
	"github.com/harperreed/offertrack/viz"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("OFFERTRACK"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.tab {
	case TabDashboard:
		s.WriteString(viz.RenderDashboard(viz.GenerateDashboardStats(m.tr)))
	case TabOffers:
		s.WriteString(m.renderOffersTable())
	case TabFollowups:
		s.WriteString(m.renderFollowupsTable())
	}
	s.WriteString("\n")

	s.WriteString(m.renderStatus())
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"Dashboard", "Offers", "Follow-ups"}
	var rendered []string

	for i, tab := range tabs {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderStatus() string {
	if m.message == "" {
		return ""
	}
	if m.err != nil {
		return errorStyle.Render(m.message) + "\n"
	}
	return messageStyle.Render(m.message) + "\n"
}

func (m Model) tableHeight() int {
	if h := m.height - 10; h > 3 {
		return h
	}
	return 3
}

func (m Model) renderOffersTable() string {
	offers := m.tr.Offers()
	if len(offers) == 0 {
		return "No offers logged yet. Press n to log one."
	}

	columns := []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Date", Width: 16},
		{Title: "Type", Width: 14},
		{Title: "Channel", Width: 12},
		{Title: "Status", Width: 14},
		{Title: "CSAT", Width: 9},
		{Title: "Next Follow-up", Width: 14},
	}

	now := m.tr.Now()
	var rows []table.Row
	for _, o := range offers {
		next := ""
		if d := o.LegacyFollowupDate(); d != nil {
			next = d.Format("2006-01-02")
		}
		rows = append(rows, table.Row{
			o.ID.String()[:8],
			o.Date.Format("2006-01-02 15:04"),
			o.OfferType,
			o.Channel,
			conversionLabel(o, now),
			o.CSAT,
			next,
		})
	}

	return m.newTable(columns, rows).View()
}

func (m Model) newTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t
}

func conversionLabel(o models.Offer, now time.Time) string {
	switch metrics.ConversionStatusAt(o, now) {
	case metrics.ConversionConverted:
		return "converted"
	case metrics.ConversionNotConverted:
		if o.Converted == nil {
			return "expired"
		}
		return "not converted"
	}
	return "pending"
}

func (m Model) renderListHelp() string {
	help := []string{
		"Tab: Switch",
		"↑/↓: Navigate",
		"Enter: Open",
		"n: Log offer",
	}
	if m.tab == TabFollowups {
		help = append(help, "c: Complete")
	}
	help = append(help, "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "tab":
		m.tab = (m.tab + 1) % tabCount
		m.selectedRow = 0
	case "shift+tab":
		m.tab = (m.tab + tabCount - 1) % tabCount
		m.selectedRow = 0
	case "enter":
		if id := m.getSelectedID(); id != "" {
			m.viewMode = ViewDetail
			m.selectedID = id
			m.message = ""
		}
	case "n":
		m.viewMode = ViewEdit
		m.selectedID = ""
		m.initFormInputs()
	case "c":
		if m.tab != TabFollowups {
			break
		}
		due := m.tr.DueFollowups(followupWindow)
		if m.selectedRow >= len(due) {
			break
		}
		d := due[m.selectedRow]
		_, err := m.tr.CompleteFollowup(d.Offer.ID, d.Followup.ID)
		m.setResult("Follow-up completed", err)
		if m.selectedRow > 0 && m.selectedRow >= len(due)-1 {
			m.selectedRow--
		}
	}

	return m, nil
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabOffers:
		return len(m.tr.Offers())
	case TabFollowups:
		return len(m.tr.DueFollowups(followupWindow))
	}
	return 0
}

func (m Model) getSelectedID() string {
	switch m.tab {
	case TabOffers:
		offers := m.tr.Offers()
		if m.selectedRow < len(offers) {
			return offers[m.selectedRow].ID.String()
		}
	case TabFollowups:
		due := m.tr.DueFollowups(followupWindow)
		if m.selectedRow < len(due) {
			return due[m.selectedRow].Offer.ID.String()
		}
	}
	return ""
}
