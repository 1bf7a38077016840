// Package console is the session core: the in-memory store of sessions and
// groups, the reconciliation engine that merges server state on every
// reconnect, and the lifecycle controller driving create/stop/restart/
// remove/archive/restore.
package console

// Status is a session's lifecycle status.
type Status string

const (
	// StatusActive means the session has a live terminal process.
	StatusActive Status = "active"
	// StatusIdle means the session record exists but no process runs.
	StatusIdle Status = "idle"
)

// Kind distinguishes AI provider sessions from plain shells.
type Kind string

const (
	// KindAgent is an AI CLI session (claude-style agent).
	KindAgent Kind = "agent"
	// KindShell is a plain shell with no provider attached.
	KindShell Kind = "shell"
)

// Session is a console session: one AI CLI conversation (or shell) and its
// persisted identity.
type Session struct {
	ID       string
	Label    string
	Cwd      string
	Kind     Kind
	Provider string
	Status   Status

	// TerminalID is the live terminal currently running this session.
	// Empty while idle.
	TerminalID string

	// Overrides applied at the next restart.
	Model  string
	Effort string
	Env    map[string]string

	GroupID        string
	CreatedAt      int64
	LastActivityAt int64
	FirstPrompt    string
	AgentName      string
}

// Clone returns a deep copy, for copy-on-write store updates.
func (s *Session) Clone() *Session {
	c := *s
	if s.Env != nil {
		c.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			c.Env[k] = v
		}
	}
	return &c
}

// Group is a named collection of sessions sharing one pane layout.
type Group struct {
	ID             string
	Label          string
	CreatedAt      int64
	LastActivityAt int64
}

// Clone returns a copy, for copy-on-write store updates.
func (g *Group) Clone() *Group {
	c := *g
	return &c
}
