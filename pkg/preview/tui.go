package preview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
	"github.com/lepinkainen/cricket-forge/pkg/render"
)

// ViewMode represents the current view mode
type ViewMode int

// View modes for the preview TUI
const (
	ListViewMode ViewMode = iota
	DetailViewMode
	RawViewMode
)

// RefreshFunc reloads the match list, bypassing the cache.
type RefreshFunc func() []cricket.MatchRecord

type refreshedMsg []cricket.MatchRecord

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	liveStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Model represents the Bubble Tea model for the preview TUI
type Model struct {
	matches       []cricket.MatchRecord
	cursor        int
	viewMode      ViewMode
	rawFormat     string
	refresh       RefreshFunc
	refreshing    bool
	width         int
	height        int
	selectedIndex int // Index of the match currently being viewed in detail
}

// NewModel creates a new preview model. refresh may be nil.
func NewModel(matches []cricket.MatchRecord, rawFormat string, refresh RefreshFunc) Model {
	if rawFormat == "" {
		rawFormat = render.FormatYAML
	}
	return Model{
		matches:       matches,
		viewMode:      ListViewMode,
		rawFormat:     rawFormat,
		refresh:       refresh,
		selectedIndex: -1,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshedMsg:
		m.matches = msg
		m.refreshing = false
		m.cursor = min(m.cursor, max(len(m.matches)-1, 0))
		return m, nil

	case tea.KeyMsg:
		switch m.viewMode {
		case ListViewMode:
			return m.updateListView(msg)
		case DetailViewMode, RawViewMode:
			return m.updateDetailView(msg)
		}
	}

	return m, nil
}

func (m Model) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}

	case "enter":
		if len(m.matches) > 0 {
			m.selectedIndex = m.cursor
			m.viewMode = DetailViewMode
		}

	case "v":
		if len(m.matches) > 0 {
			m.selectedIndex = m.cursor
			m.viewMode = RawViewMode
		}

	case "r":
		if m.refresh != nil && !m.refreshing {
			m.refreshing = true
			refresh := m.refresh
			return m, func() tea.Msg { return refreshedMsg(refresh()) }
		}
	}

	return m, nil
}

func (m Model) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.viewMode = ListViewMode

	case "v":
		if m.viewMode == DetailViewMode {
			m.viewMode = RawViewMode
		} else {
			m.viewMode = DetailViewMode
		}
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	switch m.viewMode {
	case ListViewMode:
		return m.renderListView()
	case DetailViewMode:
		return m.renderDetailView()
	case RawViewMode:
		return m.renderRawView()
	}
	return ""
}

func (m Model) renderListView() string {
	var b strings.Builder

	header := fmt.Sprintf("Live Cricket - %d matches", len(m.matches))
	if m.refreshing {
		header += " (refreshing...)"
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	if len(m.matches) == 0 {
		b.WriteString("  No matches available\n")
	}

	visibleStart, visibleEnd := 0, len(m.matches)
	if m.height > 0 {
		maxVisible := m.height - 6 // header, footer and padding
		if maxVisible > 0 && maxVisible < len(m.matches) {
			// Keep the cursor centred when possible
			visibleStart = max(m.cursor-maxVisible/2, 0)
			visibleEnd = visibleStart + maxVisible
			if visibleEnd > len(m.matches) {
				visibleEnd = len(m.matches)
				visibleStart = max(visibleEnd-maxVisible, 0)
			}
		}
	}

	for i := visibleStart; i < visibleEnd; i++ {
		match := m.matches[i]
		line := FormatCompactListItem(i, match)

		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("→ " + line))
		case match.Status == cricket.StatusLive:
			b.WriteString("  " + liveStyle.Render(line))
		default:
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := "↑/↓ or j/k: navigate • enter: details • v: raw view • q: quit"
	if m.refresh != nil {
		footer = "↑/↓ or j/k: navigate • enter: details • v: raw view • r: refresh • q: quit"
	}
	b.WriteString(footerStyle.Render(footer))

	return b.String()
}

func (m Model) renderDetailView() string {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.matches) {
		return "No match selected"
	}

	var b strings.Builder
	b.WriteString(FormatDetailedItem(m.matches[m.selectedIndex]))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("esc: back to list • v: toggle raw view • q: quit"))

	return b.String()
}

func (m Model) renderRawView() string {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.matches) {
		return "No match selected"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.ToUpper(m.rawFormat) + " Record"))
	b.WriteString("\n\n")
	b.WriteString(render.String(m.rawFormat, m.matches[m.selectedIndex]))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("esc: back to list • v: toggle detail view • q: quit"))

	return b.String()
}

// Run starts the Bubble Tea program
func Run(matches []cricket.MatchRecord, rawFormat string, refresh RefreshFunc) error {
	if len(matches) == 0 && refresh == nil {
		fmt.Println("No matches to preview")
		return nil
	}

	p := tea.NewProgram(NewModel(matches, rawFormat, refresh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
