package console

import (
	"github.com/OptimiLabs/velocity-sub007/pkg/layout"
	"github.com/OptimiLabs/velocity-sub007/pkg/notify"
	"github.com/OptimiLabs/velocity-sub007/pkg/protocol"
)

// HandlePtyCreated acknowledges a terminal allocation. Reclaimed means the
// backend handed back a process that survived the disconnect.
func (c *Core) HandlePtyCreated(frame protocol.PtyCreated) {
	if err := c.tree.SetTerminalState(frame.TerminalID, layout.TerminalRunning, nil); err != nil {
		c.logger.WithField("terminalId", frame.TerminalID).
			Debug("pty:created for unknown terminal")
		return
	}

	owner, ok := c.owners.Resolve(frame.TerminalID)
	if !ok || owner.SessionID == "" {
		return
	}
	c.store.UpdateSession(owner.SessionID, func(s *Session) {
		s.Status = StatusActive
		s.TerminalID = frame.TerminalID
		s.LastActivityAt = c.now()
	})
	if frame.Reclaimed {
		c.logger.WithField("terminalId", frame.TerminalID).Info("Reclaimed terminal")
	}
}

// HandleTerminalFrame routes a terminal-scoped frame via the ownership
// registry. Frames for terminals this client does not own are dropped.
func (c *Core) HandleTerminalFrame(env *protocol.Envelope) {
	switch env.Type {
	case protocol.TypePtyOutput:
		c.handleOutput(env.TerminalID)
	case protocol.TypePtyExit:
		var frame protocol.PtyExit
		if err := env.Unmarshal(&frame); err != nil {
			c.logger.WithError(err).Debug("Dropping malformed pty:exit frame")
			return
		}
		c.handleTerminalGone(frame.TerminalID, layout.TerminalExited, &frame.ExitCode)
	case protocol.TypePtyDied:
		c.handleTerminalGone(env.TerminalID, layout.TerminalDead, nil)
		c.notifier.Notify(notify.LevelWarn, "A terminal process died unexpectedly")
	case protocol.TypePtyCwdChange:
		var frame protocol.PtyCwdChange
		if err := env.Unmarshal(&frame); err != nil {
			c.logger.WithError(err).Debug("Dropping malformed pty:cwd-change frame")
			return
		}
		c.handleCwdChange(frame.TerminalID, frame.Cwd)
	default:
		c.logger.WithField("type", env.Type).Debug("Unhandled terminal frame")
	}
}

// handleOutput only tracks activity; output rendering belongs to the
// terminal view, which consumes the generic event channel. Activity bumps
// are throttled per terminal by the ownership registry.
func (c *Core) handleOutput(terminalID string) {
	groupID, ok := c.owners.BumpActivity(terminalID)
	if !ok {
		return
	}
	now := c.now()
	c.store.UpdateGroup(groupID, func(g *Group) {
		g.LastActivityAt = now
	})
	if owner, ok := c.owners.Resolve(terminalID); ok && owner.SessionID != "" {
		c.store.UpdateSession(owner.SessionID, func(s *Session) {
			s.LastActivityAt = now
		})
	}
}

// handleTerminalGone flips the owning session to idle and clears its
// terminal binding. Other sessions are untouched. The pane stays mounted so
// the user can read the final output.
func (c *Core) handleTerminalGone(terminalID string, state layout.TerminalState, exitCode *int) {
	owner, owned := c.owners.Resolve(terminalID)

	if err := c.tree.SetTerminalState(terminalID, state, exitCode); err != nil {
		c.logger.WithField("terminalId", terminalID).Debug("Exit for unknown terminal")
		return
	}

	if !owned || owner.SessionID == "" {
		return
	}
	c.store.UpdateSession(owner.SessionID, func(s *Session) {
		if s.TerminalID == terminalID {
			s.TerminalID = ""
		}
		s.Status = StatusIdle
		s.LastActivityAt = c.now()
	})
}

func (c *Core) handleCwdChange(terminalID, cwd string) {
	if err := c.tree.SetTerminalCwd(terminalID, cwd); err != nil {
		return
	}
	if owner, ok := c.owners.Resolve(terminalID); ok && owner.SessionID != "" {
		c.store.UpdateSession(owner.SessionID, func(s *Session) {
			s.Cwd = cwd
		})
	}
}

// SendInput forwards keystrokes to a terminal. False when the socket is
// closed or the terminal is not owned.
func (c *Core) SendInput(terminalID, data string) bool {
	if _, ok := c.owners.Resolve(terminalID); !ok {
		return false
	}
	return c.sender.Send(protocol.NewPtyInput(terminalID, data))
}
