// ABOUTME: Save confirmation view for TUI
// ABOUTME: Sends the journal's pending relation updates as one batch and reloads the chart
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/orgmap/models"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(1, 2).
			Width(64)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("28")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m *Model) requestSave() {
	if len(m.journal.Pending()) == 0 {
		m.status = "Nothing to save"
		return
	}
	m.err = nil
	m.prevMode = m.viewMode
	m.viewMode = ViewConfirmSave
}

func (m Model) renderConfirmSaveView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("SAVE CHANGES"))
	s.WriteString("\n")

	for _, cmd := range m.journal.Commands() {
		if cmd.NewManager == "" {
			s.WriteString(fmt.Sprintf("  %s → top of chart\n", cmd.Child))
		} else {
			s.WriteString(fmt.Sprintf("  %s → %s\n", cmd.Child, cmd.NewManager))
		}
	}
	s.WriteString(fmt.Sprintf("\n%d record(s) will be updated.\n\n", len(m.journal.Pending())))
	s.WriteString(lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Save (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	))

	return confirmBoxStyle.Render(s.String())
}

func (m Model) handleConfirmSaveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.viewMode = m.prevMode
		if err := m.save(); err != nil {
			m.err = err
		}
	case "n", "N", "esc":
		m.viewMode = m.prevMode
	}
	return m, nil
}

// save commits the pending updates and restarts the journal from the stored chart.
func (m *Model) save() error {
	updates := m.journal.Pending()
	res, err := m.svc.BulkUpdate(m.ctx, models.BulkUpdateRequest{AccountID: m.accountID, Updates: updates})
	if err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	persons, err := m.svc.ListPersons(m.ctx, m.accountID)
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	m.journal.Reset(persons)
	m.err = nil
	m.status = fmt.Sprintf("Saved %d record(s) in batch %s", res.Updated, res.BatchID)
	return nil
}
