package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/OptimiLabs/velocity-sub007/pkg/layout"
)

// renderPane draws a resolved layout subtree into a width x height cell.
// Collapsed (zero-size) children take no space; visible siblings absorb the
// remainder, mirroring the tree's size vector.
func (m *workspaceModel) renderPane(pane *layout.RenderPane, width, height int) string {
	if width < 2 || height < 2 {
		return ""
	}
	if pane.Node.IsLeaf() {
		return m.renderLeaf(pane, width, height)
	}

	first, second := pane.Children[0], pane.Children[1]

	if pane.Node.Orientation == layout.Horizontal {
		w0 := int(float64(width) * pane.Sizes[0] / 100)
		w1 := width - w0
		if w0 == 0 {
			return m.renderPane(second, width, height)
		}
		if w1 == 0 {
			return m.renderPane(first, width, height)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderPane(first, w0, height),
			m.renderPane(second, w1, height))
	}

	h0 := int(float64(height) * pane.Sizes[0] / 100)
	h1 := height - h0
	if h0 == 0 {
		return m.renderPane(second, width, height)
	}
	if h1 == 0 {
		return m.renderPane(first, width, height)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderPane(first, width, h0),
		m.renderPane(second, width, h1))
}

func (m *workspaceModel) renderLeaf(pane *layout.RenderPane, width, height int) string {
	t := m.theme
	border := t.PaneBorder
	if pane.Node.ID == m.focusedLeafID() {
		border = t.FocusedPaneBorder
	}

	var label string
	switch pane.Node.Content {
	case layout.ContentTerminal:
		label = m.terminalLabel(pane.Node.TerminalID)
	case layout.ContentSettings:
		label = "settings"
	case layout.ContentContext:
		label = "context"
	default:
		label = t.Muted.Render("empty")
	}

	return border.
		Width(width - 2).
		Height(height - 2).
		Render(label)
}

func (m *workspaceModel) terminalLabel(terminalID string) string {
	t := m.theme
	term, _, ok := m.core.Tree().Terminal(terminalID)
	if !ok {
		return t.Muted.Render("detached terminal")
	}

	label := term.Command
	if sess, ok := m.core.Store().SessionByTerminal(terminalID); ok {
		label = sess.Label
	}

	switch term.State {
	case layout.TerminalRunning:
		return fmt.Sprintf("%s %s", t.Success.Render("▶"), label)
	case layout.TerminalExited:
		code := ""
		if term.ExitCode != nil {
			code = fmt.Sprintf(" (exit %d)", *term.ExitCode)
		}
		return fmt.Sprintf("%s %s%s", t.Muted.Render("■"), label, t.Muted.Render(code))
	default:
		return fmt.Sprintf("%s %s %s", t.Error.Render("✖"), label, t.Error.Render("died"))
	}
}
