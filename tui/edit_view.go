package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/harperreed/offertrack/models"
)

// Offer form field order.
const (
	fieldOfferType = iota
	fieldChannel
	fieldCaseNumber
	fieldNotes
	fieldCSAT
	fieldCSATComment
	offerFieldCount
)

func (m Model) renderEditView() string {
	var s strings.Builder

	if m.selectedID == "" {
		s.WriteString(titleStyle.Render("LOG OFFER"))
	} else {
		s.WriteString(titleStyle.Render("EDIT OFFER"))
	}
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

	settings := m.tr.Settings()
	s.WriteString("\n")
	if len(settings.OfferTypes) > 0 {
		s.WriteString("Types: " + strings.Join(settings.OfferTypes, ", ") + "\n")
	}
	if len(settings.Channels) > 0 {
		s.WriteString("Channels: " + strings.Join(settings.Channels, ", ") + "\n")
	}

	s.WriteString(m.renderStatus())
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.selectedID != "" {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewList
		}
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
		id, err := m.saveOffer()
		if err != nil {
			m.setResult("", err)
			return m, nil
		}
		m.setResult("Offer saved", nil)
		m.selectedID = id
		m.viewMode = ViewDetail
		return m, nil
	}

	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) initFormInputs() {
	inputs := make([]textinput.Model, offerFieldCount)

	placeholders := []struct {
		text  string
		limit int
	}{
		{"Offer type", 50},
		{"Channel", 50},
		{"Case number", 50},
		{"Notes", 500},
		{"CSAT (positive/neutral/negative)", 10},
		{"CSAT comment", 500},
	}
	for i, p := range placeholders {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = p.text
		inputs[i].CharLimit = p.limit
	}

	if o, err := m.selectedOffer(); m.selectedID != "" && err == nil {
		inputs[fieldOfferType].SetValue(o.OfferType)
		inputs[fieldChannel].SetValue(o.Channel)
		inputs[fieldCaseNumber].SetValue(o.CaseNumber)
		inputs[fieldNotes].SetValue(o.Notes)
		inputs[fieldCSAT].SetValue(o.CSAT)
		inputs[fieldCSATComment].SetValue(o.CSATComment)
	}

	m.formInputs = inputs
	m.focusIndex = 0
	m.message = ""
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

func (m Model) formValue(i int) string {
	return strings.TrimSpace(m.formInputs[i].Value())
}

// saveOffer logs a new offer or patches the selected one, returning its ID.
func (m Model) saveOffer() (string, error) {
	csat := strings.ToLower(m.formValue(fieldCSAT))

	if m.selectedID == "" {
		o, err := m.tr.AddOffer(models.Offer{
			Date:        m.tr.Now(),
			OfferType:   m.formValue(fieldOfferType),
			Channel:     m.formValue(fieldChannel),
			CaseNumber:  m.formValue(fieldCaseNumber),
			Notes:       m.formValue(fieldNotes),
			CSAT:        csat,
			CSATComment: m.formValue(fieldCSATComment),
		})
		if err != nil {
			return "", err
		}
		return o.ID.String(), nil
	}

	id, err := uuid.Parse(m.selectedID)
	if err != nil {
		return "", err
	}
	offerType := m.formValue(fieldOfferType)
	channel := m.formValue(fieldChannel)
	caseNumber := m.formValue(fieldCaseNumber)
	notes := m.formValue(fieldNotes)
	comment := m.formValue(fieldCSATComment)
	o, err := m.tr.UpdateOffer(id, models.OfferPatch{
		OfferType:   &offerType,
		Channel:     &channel,
		CaseNumber:  &caseNumber,
		Notes:       &notes,
		CSAT:        &csat,
		CSATComment: &comment,
	})
	if err != nil {
		return "", err
	}
	return o.ID.String(), nil
}
