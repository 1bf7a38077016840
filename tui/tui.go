// Package tui is the interactive workspace viewer: the session list, the
// per-group pane layout and the connection state, rendered with bubbletea.
package tui

import (
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/OptimiLabs/velocity-sub007/pkg/console"
	"github.com/OptimiLabs/velocity-sub007/pkg/notify"
	"github.com/OptimiLabs/velocity-sub007/pkg/transport"
)

// InitializeTUI prepares the terminal environment. It honors the variables
// that force color output in non-interactive environments and has no effect
// elsewhere. Call it before starting the program.
func InitializeTUI() {
	if os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor" {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// Run starts the workspace viewer and blocks until the user quits. Store,
// layout and connection changes are forwarded into the program as messages;
// the model itself never polls. The notice sink, created before the program
// exists, is bound here so user notices land in the status bar.
func Run(core *console.Core, mgr *transport.Manager, sink *NoticeSink) error {
	InitializeTUI()

	model := newWorkspaceModel(core)
	program := tea.NewProgram(model, tea.WithAltScreen())

	core.Store().Subscribe(func() {
		program.Send(RefreshMsg{})
	})
	core.Tree().OnChange(func(string) {
		program.Send(RefreshMsg{})
	})
	mgr.OnStateChange(func(s transport.State) {
		program.Send(ConnStateMsg(s))
	})
	if sink != nil {
		sink.bind(program.Send)
	}

	_, err := program.Run()
	return err
}

// NoticeSink adapts user notices into program messages, so transport
// transitions and terminal deaths surface in the status bar. Until a program
// is bound, notices fall through to the fallback sink.
type NoticeSink struct {
	mu       sync.Mutex
	send     func(tea.Msg)
	fallback notify.Sink
}

// NewNoticeSink creates an unbound sink. fallback may be nil.
func NewNoticeSink(fallback notify.Sink) *NoticeSink {
	return &NoticeSink{fallback: fallback}
}

func (s *NoticeSink) bind(send func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = send
}

// Notify implements notify.Sink.
func (s *NoticeSink) Notify(level notify.Level, message string) {
	s.mu.Lock()
	send := s.send
	s.mu.Unlock()
	if send != nil {
		send(NoticeMsg{Level: level, Message: message})
		return
	}
	if s.fallback != nil {
		s.fallback.Notify(level, message)
	}
}
