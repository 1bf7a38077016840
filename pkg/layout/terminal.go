package layout

// TerminalState is the lifecycle state of a terminal process.
type TerminalState string

const (
	TerminalRunning TerminalState = "running"
	TerminalExited  TerminalState = "exited"
	TerminalDead    TerminalState = "dead"
)

// Terminal is the per-group metadata record for a live or previously-live
// terminal process. The layout tree owns these records; the ownership
// registry derives its cache from them.
type Terminal struct {
	ID        string
	Command   string
	Args      []string
	Cwd       string
	Env       map[string]string
	SessionID string
	State     TerminalState
	ExitCode  *int
}

// Alive reports whether the terminal process is still running.
func (t *Terminal) Alive() bool {
	return t.State == TerminalRunning
}
