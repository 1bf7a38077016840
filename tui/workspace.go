package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/OptimiLabs/velocity-sub007/pkg/console"
	"github.com/OptimiLabs/velocity-sub007/pkg/layout"
	"github.com/OptimiLabs/velocity-sub007/pkg/notify"
	"github.com/OptimiLabs/velocity-sub007/pkg/transport"
	"github.com/OptimiLabs/velocity-sub007/tui/theme"
)

// RefreshMsg signals that the store or layout changed; the view re-reads
// everything from the core on the next render.
type RefreshMsg struct{}

// ConnStateMsg carries a connection state transition.
type ConnStateMsg transport.State

// NoticeMsg carries a user notice for the status bar.
type NoticeMsg struct {
	Level   notify.Level
	Message string
}

const sessionListWidth = 34

type keyMap struct {
	Quit        key.Binding
	NextGroup   key.Binding
	NextSession key.Binding
	PrevSession key.Binding
	Select      key.Binding
	New         key.Binding
	SplitH      key.Binding
	SplitV      key.Binding
	ClosePane   key.Binding
	Maximize    key.Binding
	Restart     key.Binding
	StopSession key.Binding
	Help        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextGroup:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next group")),
		NextSession: key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "select session")),
		PrevSession: key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("", "")),
		Select:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "focus session")),
		New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new session")),
		SplitH:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "split right")),
		SplitV:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "split down")),
		ClosePane:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close pane")),
		Maximize:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "maximize")),
		Restart:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart session")),
		StopSession: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "stop session")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextGroup, k.New, k.SplitH, k.ClosePane, k.Maximize, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextGroup, k.NextSession, k.Select},
		{k.New, k.Restart, k.StopSession},
		{k.SplitH, k.SplitV, k.ClosePane, k.Maximize},
		{k.Help, k.Quit},
	}
}

type workspaceModel struct {
	core  *console.Core
	theme *theme.Theme
	keys  keyMap
	help  help.Model
	spin  spinner.Model

	width  int
	height int

	conn          transport.State
	groupIdx      int
	sessionIdx    int
	focusedPane   string
	activeSession string
	status        string
	statusIsError bool
}

func newWorkspaceModel(core *console.Core) *workspaceModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &workspaceModel{
		core:  core,
		theme: theme.DefaultTheme,
		keys:  defaultKeyMap(),
		help:  help.New(),
		spin:  sp,
		conn:  transport.StateConnecting,
	}
}

func (m *workspaceModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m *workspaceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case RefreshMsg:
		m.clampSelection()
		return m, nil

	case ConnStateMsg:
		m.conn = transport.State(msg)
		return m, nil

	case NoticeMsg:
		m.status = msg.Message
		m.statusIsError = msg.Level == notify.LevelError
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *workspaceModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.NextGroup):
		groups := m.core.Store().Groups()
		if len(groups) > 0 {
			m.groupIdx = (m.groupIdx + 1) % len(groups)
			m.sessionIdx = 0
			m.focusedPane = ""
			m.activeSession = ""
		}

	case key.Matches(msg, m.keys.NextSession):
		m.moveSelection(1)

	case key.Matches(msg, m.keys.PrevSession):
		m.moveSelection(-1)

	case key.Matches(msg, m.keys.Select):
		if sess := m.selectedSession(); sess != nil {
			if m.activeSession == sess.ID {
				m.activeSession = ""
			} else {
				m.activeSession = sess.ID
			}
		}

	case key.Matches(msg, m.keys.New):
		m.runAction(func() error {
			_, err := m.core.Create(console.CreateOptions{
				Label:   "new session",
				GroupID: m.currentGroupID(),
			})
			return err
		}, "Session created")

	case key.Matches(msg, m.keys.SplitH):
		m.splitFocused(layout.Horizontal)

	case key.Matches(msg, m.keys.SplitV):
		m.splitFocused(layout.Vertical)

	case key.Matches(msg, m.keys.ClosePane):
		if group, pane := m.currentGroupID(), m.focusedLeafID(); group != "" && pane != "" {
			m.runAction(func() error {
				_, err := m.core.Tree().CloseLeaf(group, pane)
				m.focusedPane = ""
				return err
			}, "Pane closed")
		}

	case key.Matches(msg, m.keys.Maximize):
		group := m.currentGroupID()
		if group == "" {
			break
		}
		if m.core.Tree().MaximizedPane(group) != "" {
			m.core.Tree().Restore(group)
			m.setStatus("Layout restored", false)
		} else if pane := m.focusedLeafID(); pane != "" {
			m.runAction(func() error {
				return m.core.Tree().Maximize(group, pane)
			}, "Pane maximized")
		}

	case key.Matches(msg, m.keys.Restart):
		if sess := m.selectedSession(); sess != nil {
			m.runAction(func() error {
				return m.core.Restart(sess.ID)
			}, "Session restarted")
		}

	case key.Matches(msg, m.keys.StopSession):
		if sess := m.selectedSession(); sess != nil {
			m.runAction(func() error {
				return m.core.Stop(sess.ID)
			}, "Session stopped")
		}
	}
	return m, nil
}

func (m *workspaceModel) runAction(fn func() error, okStatus string) {
	if err := fn(); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus(okStatus, false)
}

func (m *workspaceModel) setStatus(message string, isError bool) {
	m.status = message
	m.statusIsError = isError
}

func (m *workspaceModel) currentGroupID() string {
	groups := m.core.Store().Groups()
	if len(groups) == 0 {
		return ""
	}
	if m.groupIdx >= len(groups) {
		m.groupIdx = 0
	}
	return groups[m.groupIdx].ID
}

func (m *workspaceModel) selectedSession() *console.Session {
	sessions := m.core.Store().SessionsInGroup(m.currentGroupID())
	if len(sessions) == 0 {
		return nil
	}
	if m.sessionIdx >= len(sessions) {
		m.sessionIdx = len(sessions) - 1
	}
	return sessions[m.sessionIdx]
}

func (m *workspaceModel) moveSelection(delta int) {
	sessions := m.core.Store().SessionsInGroup(m.currentGroupID())
	if len(sessions) == 0 {
		return
	}
	m.sessionIdx = (m.sessionIdx + delta + len(sessions)) % len(sessions)
}

func (m *workspaceModel) clampSelection() {
	groups := m.core.Store().Groups()
	if m.groupIdx >= len(groups) {
		m.groupIdx = 0
	}
}

// focusedLeafID returns the focused pane if set, falling back to the pane of
// the selected session's terminal, then to the group's first leaf.
func (m *workspaceModel) focusedLeafID() string {
	group := m.currentGroupID()
	if group == "" {
		return ""
	}
	leaves := m.core.Tree().Leaves(group)
	if m.focusedPane != "" {
		for _, leaf := range leaves {
			if leaf.ID == m.focusedPane {
				return m.focusedPane
			}
		}
		m.focusedPane = ""
	}
	if sess := m.selectedSession(); sess != nil && sess.TerminalID != "" {
		for _, leaf := range leaves {
			if leaf.TerminalID == sess.TerminalID {
				return leaf.ID
			}
		}
	}
	if len(leaves) > 0 {
		return leaves[0].ID
	}
	return ""
}

func (m *workspaceModel) splitFocused(orientation layout.Orientation) {
	group, pane := m.currentGroupID(), m.focusedLeafID()
	if group == "" || pane == "" {
		return
	}
	m.runAction(func() error {
		newPane, err := m.core.Tree().SplitLeaf(group, pane, orientation)
		if err == nil {
			m.focusedPane = newPane
		}
		return err
	}, "Pane split")
}

func (m *workspaceModel) View() string {
	if m.width == 0 {
		return "loading..."
	}

	header := m.viewHeader()
	status := m.viewStatusBar()
	helpView := m.help.View(m.keys)

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(status) - lipgloss.Height(helpView)
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	list := m.viewSessionList(bodyHeight)
	panes := m.viewLayout(m.width-sessionListWidth, bodyHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, panes)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status, helpView)
}

func (m *workspaceModel) viewHeader() string {
	t := m.theme
	title := t.Title.Render("VELOCITY")

	var tabs []string
	for i, g := range m.core.Store().Groups() {
		label := g.Label
		if label == "" {
			label = g.ID
		}
		if i == m.groupIdx {
			tabs = append(tabs, t.SelectedRow.Render(" "+label+" "))
		} else {
			tabs = append(tabs, t.Muted.Render(" "+label+" "))
		}
	}
	return title + "  " + strings.Join(tabs, " ")
}

func (m *workspaceModel) viewSessionList(height int) string {
	t := m.theme
	var b strings.Builder
	b.WriteString(t.Section.Render("Sessions") + "\n")

	sessions := m.core.Store().SessionsInGroup(m.currentGroupID())
	for i, sess := range sessions {
		marker := "  "
		if sess.ID == m.activeSession {
			marker = "* "
		}
		line := fmt.Sprintf("%s%s %s", marker, statusIcon(t, sess.Status), sess.Label)
		if sess.Provider != "" {
			line += t.Muted.Render(" [" + sess.Provider + "]")
		}
		if i == m.sessionIdx {
			line = t.SelectedRow.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if len(sessions) == 0 {
		b.WriteString(t.Muted.Render("  (none)") + "\n")
	}

	return lipgloss.NewStyle().
		Width(sessionListWidth).
		Height(height).
		Render(b.String())
}

func statusIcon(t *theme.Theme, status console.Status) string {
	if status == console.StatusActive {
		return t.Success.Render("●")
	}
	return t.Muted.Render("○")
}

func (m *workspaceModel) viewLayout(width, height int) string {
	group := m.currentGroupID()
	if group == "" {
		return m.theme.Muted.Render("no groups")
	}
	pane := m.core.Tree().EffectiveLayout(group, layout.VisibilityContext{
		ActiveSessionID: m.activeSession,
		FocusedPaneID:   m.focusedPane,
	})
	if pane == nil {
		return m.theme.Muted.Render("no panes, press n to start a session")
	}
	return m.renderPane(pane, width, height)
}

func (m *workspaceModel) viewStatusBar() string {
	t := m.theme

	var conn string
	switch m.conn {
	case transport.StateConnected:
		conn = t.Success.Render("connected")
	case transport.StateConnecting:
		conn = m.spin.View() + t.Warning.Render("connecting")
	case transport.StateReconnecting:
		conn = m.spin.View() + t.Warning.Render("reconnecting")
	default:
		conn = t.Error.Render("disconnected")
	}

	status := m.status
	if m.statusIsError {
		status = t.Error.Render(status)
	} else {
		status = t.Muted.Render(status)
	}

	bar := " " + conn + "  " + status
	return t.StatusBar.Width(m.width).Render(bar)
}
