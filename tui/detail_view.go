package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/harperreed/offertrack/models"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) selectedOffer() (models.Offer, error) {
	id, err := uuid.Parse(m.selectedID)
	if err != nil {
		return models.Offer{}, fmt.Errorf("invalid ID: %w", err)
	}
	return m.tr.GetOffer(id)
}

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("OFFER"))
	s.WriteString("\n\n")

	o, err := m.selectedOffer()
	if err != nil {
		s.WriteString(fmt.Sprintf("Error: %v\n", err))
	} else {
		s.WriteString(m.renderOfferDetail(o))
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderOfferDetail(o models.Offer) string {
	var s strings.Builder

	s.WriteString(m.renderField("ID", o.ID.String()))
	s.WriteString(m.renderField("Date", o.Date.Format("Mon 2006-01-02 15:04")))
	s.WriteString(m.renderField("Offer Type", o.OfferType))
	s.WriteString(m.renderField("Channel", o.Channel))
	if o.CaseNumber != "" {
		s.WriteString(m.renderField("Case", o.CaseNumber))
	}
	s.WriteString(m.renderField("Status", conversionLabel(o, m.tr.Now())))
	if o.ConversionDate != nil {
		s.WriteString(m.renderField("Converted On", o.ConversionDate.Format("2006-01-02")))
	}
	if o.CSAT != "" {
		s.WriteString(m.renderField("CSAT", o.CSAT))
	}
	if o.CSATComment != "" {
		s.WriteString(m.renderField("CSAT Comment", o.CSATComment))
	}
	s.WriteString(m.renderField("Notes", o.Notes))

	s.WriteString("\n")
	s.WriteString(titleStyle.Render("Follow-ups"))
	s.WriteString("\n")
	if len(o.Followups) == 0 {
		s.WriteString("  none scheduled\n")
	}
	current := o.CurrentFollowup()
	for _, f := range o.Followups {
		marker := "[ ]"
		if f.Completed {
			marker = "[x]"
		}
		line := fmt.Sprintf("  %s %s", marker, f.Date.Format("2006-01-02"))
		if current != nil && current.ID == f.ID {
			line += " (next)"
		}
		if f.Notes != "" {
			line += "  " + f.Notes
		}
		s.WriteString(line + "\n")
	}

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"e: Edit",
		"y/x: Converted/Not",
		"f: Add follow-up",
		"c: Complete follow-up",
		"d: Delete",
		"Esc: Back",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.viewMode = ViewList
		m.message = ""
	case "e":
		m.viewMode = ViewEdit
		m.initFormInputs()
	case "y", "x":
		converted := msg.String() == "y"
		id, err := uuid.Parse(m.selectedID)
		if err == nil {
			_, err = m.tr.UpdateOffer(id, models.OfferPatch{Converted: &converted})
		}
		if converted {
			m.setResult("Marked converted", err)
		} else {
			m.setResult("Marked not converted", err)
		}
	case "f":
		m.viewMode = ViewFollowup
		m.initFollowupInputs()
	case "c":
		id, err := uuid.Parse(m.selectedID)
		if err == nil {
			_, err = m.tr.CompleteFollowup(id, "")
		}
		m.setResult("Follow-up completed", err)
	case "d":
		m.viewMode = ViewConfirmDelete
	}

	return m, nil
}
