// ABOUTME: Move view for TUI
// ABOUTME: Reads a new manager email and queues the move in the journal, showing rejections inline
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/orgmap/models"
)

var moveBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("62")).
	Padding(1, 2).
	Width(64)

// startMove opens the move prompt for email, prefilled with the current manager.
func (m Model) startMove(email string) (tea.Model, tea.Cmd) {
	p, ok := m.journal.Working().Get(email)
	if !ok {
		m.status = fmt.Sprintf("%s is not in the chart", email)
		return m, nil
	}
	m.prevMode = m.viewMode
	m.viewMode = ViewMove
	m.focus = p.Email
	m.moveErr = ""
	m.moveInput.SetValue(p.Manager())
	m.moveInput.CursorEnd()
	cmd := m.moveInput.Focus()
	return m, cmd
}

func (m Model) renderMoveView() string {
	var s strings.Builder

	p, _ := m.journal.Working().Get(m.focus)
	s.WriteString(titleStyle.Render(fmt.Sprintf("MOVE %s", displayName(&p))))
	s.WriteString("\n")
	if mgr := p.Manager(); mgr != "" {
		s.WriteString(fmt.Sprintf("Currently reports to %s\n\n", mgr))
	} else {
		s.WriteString("Currently at the top of the chart\n\n")
	}
	s.WriteString("New manager:\n")
	s.WriteString(m.moveInput.View())
	if m.moveErr != "" {
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(m.moveErr))
	}

	var out strings.Builder
	out.WriteString(moveBoxStyle.Render(s.String()))
	out.WriteString("\n")
	out.WriteString(helpStyle.Render("Enter: Queue move • Esc: Cancel"))
	return out.String()
}

func (m Model) handleMoveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.moveInput.Blur()
		m.viewMode = m.prevMode
		m.moveErr = ""
		return m, nil
	case "enter":
		return m.applyMove()
	}

	var cmd tea.Cmd
	m.moveInput, cmd = m.moveInput.Update(msg)
	return m, cmd
}

// applyMove validates the move against the working chart. A rejected move
// keeps the prompt open with the reason.
func (m Model) applyMove() (tea.Model, tea.Cmd) {
	target := strings.TrimSpace(m.moveInput.Value())
	if target != "" && !strings.Contains(target, "@") {
		if match := m.resolve(target); match != "" {
			target = match
		}
	}

	mv, err := m.journal.Move(m.focus, target)
	if err != nil {
		m.moveErr = err.Error()
		return m, nil
	}

	m.moveInput.Blur()
	m.moveErr = ""
	m.viewMode = m.prevMode
	switch {
	case mv.NoOp:
		m.status = "No change"
	case mv.NewManager == "":
		m.status = fmt.Sprintf("Moved %s to the top of the chart", mv.Child)
	default:
		m.status = fmt.Sprintf("Moved %s under %s", mv.Child, mv.NewManager)
	}
	return m, nil
}

// resolve turns a typed name into an email when it names exactly one person.
func (m Model) resolve(query string) string {
	persons := m.persons()
	var found *models.Person
	for i := range persons {
		if strings.EqualFold(persons[i].Name, query) {
			if found != nil {
				return ""
			}
			found = &persons[i]
		}
	}
	if found == nil {
		return ""
	}
	return found.Email
}
