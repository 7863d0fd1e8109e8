package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/orgchart"
)

const listLimit = 200

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("ORGMAP · %s", m.accountID)))
	s.WriteString("\n\n")

	if m.searching || m.searchInput.Value() != "" {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderPersonTable())
	s.WriteString("\n\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(m.renderListHelp())

	return s.String()
}

// visiblePersons applies the search query to the working chart.
func (m Model) visiblePersons() []models.Person {
	persons := m.persons()
	query := strings.TrimSpace(m.searchInput.Value())
	if query == "" {
		if len(persons) > listLimit {
			persons = persons[:listLimit]
		}
		return persons
	}
	matches := orgchart.Suggest(persons, query, listLimit)
	out := make([]models.Person, len(matches))
	for i, match := range matches {
		out[i] = match.Person
	}
	return out
}

func (m Model) renderPersonTable() string {
	persons := m.visiblePersons()
	if len(persons) == 0 {
		return "No persons found."
	}

	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Email", Width: 28},
		{Title: "Designation", Width: 20},
		{Title: "Manager", Width: 28},
	}

	rows := make([]table.Row, 0, len(persons))
	for i := range persons {
		p := &persons[i]
		rows = append(rows, table.Row{p.Name, p.Email, p.Designation, p.Manager()})
	}

	height := m.height - 10
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(!m.searching),
		table.WithHeight(height),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderListHelp() string {
	if m.searching {
		return helpStyle.Render("Enter: Apply • Esc: Clear search")
	}
	help := []string{
		"↑/↓: Navigate",
		"Enter: Chart",
		"/: Search",
		"m: Move",
		"u: Undo",
		"s: Save",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.visiblePersons())-1 {
			m.selectedRow++
		}
	case "enter":
		if email := m.selectedEmail(); email != "" {
			m.focus = email
			m.viewMode = ViewChart
			m.status = ""
		}
	case "/":
		m.searching = true
		cmd := m.searchInput.Focus()
		return m, cmd
	case "m":
		if email := m.selectedEmail(); email != "" {
			return m.startMove(email)
		}
	case "esc":
		m.searchInput.SetValue("")
		m.selectedRow = 0
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.selectedRow = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.selectedRow = 0
	return m, cmd
}

func (m Model) selectedEmail() string {
	persons := m.visiblePersons()
	if m.selectedRow < len(persons) {
		return persons[m.selectedRow].Email
	}
	return ""
}
