// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen dashboard, offer list, and follow-up queue over the tracker
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/offertrack/tracker"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewFollowup
	ViewConfirmDelete
)

// Tab is the list-level section shown in ViewList.
type Tab int

const (
	TabDashboard Tab = iota
	TabOffers
	TabFollowups
)

const tabCount = 3

// followupWindow is how many days ahead the follow-up queue looks.
const followupWindow = 7

// Model is the main bubbletea model
type Model struct {
	tr       *tracker.Tracker
	viewMode ViewMode
	tab      Tab

	// List view state
	selectedRow int

	// Detail view state
	selectedID string

	// Form state, shared by the offer and follow-up forms
	formInputs []textinput.Model
	focusIndex int

	message string

	// UI state
	width  int
	height int
	err    error
}

// NewModel creates a new TUI model
func NewModel(tr *tracker.Tracker) Model {
	return Model{
		tr:       tr,
		viewMode: ViewList,
		tab:      TabDashboard,
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewFollowup:
		return m.renderFollowupView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	// Forms take printable keys, so q only quits outside them.
	if msg.String() == "q" && m.viewMode != ViewEdit && m.viewMode != ViewFollowup {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewFollowup:
		return m.handleFollowupKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// setResult records the outcome of an action for the status line.
func (m *Model) setResult(ok string, err error) {
	if err != nil {
		m.err = err
		m.message = "Error: " + err.Error()
		return
	}
	m.err = nil
	m.message = ok
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
