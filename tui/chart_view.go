// ABOUTME: Chart view for TUI
// ABOUTME: Shows the manager chain as a breadcrumb and the reports below the focus as an indented tree
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/orgmap/orgchart"
)

var (
	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	focusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Width(14)
)

func (m Model) scopedTree() orgchart.ScopedTree {
	return m.journal.Working().ScopedTree(m.focus)
}

func (m Model) renderChartView() string {
	var s strings.Builder

	tree := m.scopedTree()
	if tree.Root == nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("%s is no longer in the chart", m.focus)))
		s.WriteString("\n")
		s.WriteString(m.renderChartHelp())
		return s.String()
	}

	s.WriteString(titleStyle.Render("ORG CHART"))
	s.WriteString("\n\n")

	if len(tree.Ancestors) > 0 {
		crumbs := make([]string, len(tree.Ancestors))
		for i := range tree.Ancestors {
			crumbs[i] = displayName(&tree.Ancestors[i])
		}
		s.WriteString(breadcrumbStyle.Render(strings.Join(crumbs, " › ") + " ›"))
		s.WriteString("\n")
	}

	root := &tree.Root.Person
	s.WriteString(focusStyle.Render(displayName(root)))
	s.WriteString("\n")
	for _, field := range [][2]string{
		{"Email", root.Email},
		{"Designation", root.Designation},
		{"Location", root.Location},
		{"Sentiment", root.Sentiment},
		{"Awareness", root.Awareness},
		{"Role", root.Type},
	} {
		if field[1] == "" {
			continue
		}
		s.WriteString(detailLabelStyle.Render(field[0]))
		s.WriteString(field[1])
		s.WriteString("\n")
	}
	s.WriteString("\n")

	s.WriteString(renderIndentedTree(tree.Root))
	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(m.renderChartHelp())

	return s.String()
}

// renderIndentedTree lists the reports below root, one level of indent per level.
func renderIndentedTree(root *orgchart.TreeNode) string {
	type frame struct {
		node  *orgchart.TreeNode
		depth int
	}
	var s strings.Builder
	stack := make([]frame, 0, len(root.Children))
	for i := len(root.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: root.Children[i], depth: 1})
	}
	if len(stack) == 0 {
		return "No direct reports.\n"
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s.WriteString(fmt.Sprintf("%s└ %s (%s)\n", strings.Repeat("  ", f.depth-1), displayName(&f.node.Person), f.node.Email))
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], depth: f.depth + 1})
		}
	}
	return s.String()
}

func (m Model) renderChartHelp() string {
	help := []string{
		"m: Move",
		"g: Graph",
		"↑: Manager",
		"u: Undo",
		"s: Save",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleChartKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.status = ""
	case "m":
		return m.startMove(m.focus)
	case "up", "k":
		if tree := m.scopedTree(); len(tree.Ancestors) > 0 {
			m.focus = tree.Ancestors[len(tree.Ancestors)-1].Email
		}
	case "g":
		if err := m.generateGraph(); err != nil {
			m.err = err
			return m, nil
		}
		m.prevMode = ViewChart
		m.viewMode = ViewGraph
	}
	return m, nil
}
