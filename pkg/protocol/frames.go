// Package protocol defines the tagged-JSON frames exchanged with the
// process-hosting backend over the console WebSocket.
package protocol

import (
	"encoding/json"
)

// Type tags a wire frame.
type Type string

// Inbound frame types.
const (
	TypePong              Type = "pong"
	TypeResumableGroups   Type = "console:resumable-groups"
	TypeResumableSessions Type = "console:resumable-sessions"
	TypePtyCreated        Type = "pty:created"
	TypePtyOutput         Type = "pty:output"
	TypePtyExit           Type = "pty:exit"
	TypePtyDied           Type = "pty:died"
	TypePtyCwdChange      Type = "pty:cwd-change"
)

// Outbound frame types.
const (
	TypePing            Type = "ping"
	TypePtySyncActive   Type = "pty:sync-active"
	TypePtyClose        Type = "pty:close"
	TypePtyInput        Type = "pty:input"
	TypeSessionPersist  Type = "session:persist"
	TypeSessionSetGroup Type = "session:set-group"
	TypeRemoveSession   Type = "remove-session"
	TypeRenameSession   Type = "rename-session"
	TypeGroupCreate     Type = "group:create"
	TypeOrphanTimeout   Type = "settings:orphan-timeout"
)

// GroupInfo is the backend's record of a group.
type GroupInfo struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	CreatedAt      int64  `json:"createdAt"`
	LastActivityAt int64  `json:"lastActivityAt"`
}

// SessionInfo is the backend's record of a persisted console session.
type SessionInfo struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Cwd         string `json:"cwd"`
	Kind        string `json:"kind,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model,omitempty"`
	GroupID     string `json:"groupId,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
	FirstPrompt string `json:"firstPrompt,omitempty"`
	AgentName   string `json:"agentName,omitempty"`
}

// ResumableGroups carries the backend's group list on (re)connect.
type ResumableGroups struct {
	Type   Type        `json:"type"`
	Groups []GroupInfo `json:"groups"`
}

// ResumableSessions carries the backend's session list on (re)connect.
type ResumableSessions struct {
	Type     Type          `json:"type"`
	Sessions []SessionInfo `json:"sessions"`
}

// PtyCreated announces a newly allocated (or reclaimed) terminal process.
type PtyCreated struct {
	Type       Type   `json:"type"`
	TerminalID string `json:"terminalId"`
	Reclaimed  bool   `json:"reclaimed,omitempty"`
}

// PtyOutput carries raw terminal output bytes (base64 by encoding/json).
type PtyOutput struct {
	Type       Type   `json:"type"`
	TerminalID string `json:"terminalId"`
	Data       string `json:"data"`
}

// PtyExit reports a terminal process exit.
type PtyExit struct {
	Type       Type   `json:"type"`
	TerminalID string `json:"terminalId"`
	ExitCode   int    `json:"exitCode"`
}

// PtyDied reports a terminal whose process vanished without an exit status.
type PtyDied struct {
	Type       Type   `json:"type"`
	TerminalID string `json:"terminalId"`
}

// PtyCwdChange reports a working-directory change inside a terminal.
type PtyCwdChange struct {
	Type       Type   `json:"type"`
	TerminalID string `json:"terminalId"`
	Cwd        string `json:"cwd"`
}

// Ping is the heartbeat frame.
type Ping struct {
	Type Type `json:"type"`
}

// PtySyncActive tells the backend which terminal ids this client still owns.
type PtySyncActive struct {
	Type        Type     `json:"type"`
	TerminalIDs []string `json:"terminalIds"`
}

// PtyClose asks the backend to terminate a terminal process.
type PtyClose struct {
	Type       Type   `json:"type"`
	TerminalID string `json:"terminalId"`
}

// PtyInput forwards user keystrokes to a terminal process.
type PtyInput struct {
	Type       Type   `json:"type"`
	TerminalID string `json:"terminalId"`
	Data       string `json:"data"`
}

// SessionPersist asks the backend to persist a console session record.
type SessionPersist struct {
	Type             Type   `json:"type"`
	ConsoleSessionID string `json:"consoleSessionId"`
	Cwd              string `json:"cwd"`
	Label            string `json:"label"`
	CreatedAt        int64  `json:"createdAt"`
	FirstPrompt      string `json:"firstPrompt,omitempty"`
	AgentName        string `json:"agentName,omitempty"`
}

// SessionSetGroup moves a persisted session into a group.
type SessionSetGroup struct {
	Type             Type   `json:"type"`
	ConsoleSessionID string `json:"consoleSessionId"`
	GroupID          string `json:"groupId"`
}

// RemoveSession deletes a persisted session record.
type RemoveSession struct {
	Type             Type   `json:"type"`
	ConsoleSessionID string `json:"consoleSessionId"`
}

// RenameSession updates a persisted session's label.
type RenameSession struct {
	Type             Type   `json:"type"`
	ConsoleSessionID string `json:"consoleSessionId"`
	Label            string `json:"label"`
}

// GroupCreate asks the backend to persist a group.
type GroupCreate struct {
	Type      Type   `json:"type"`
	GroupID   string `json:"groupId"`
	Label     string `json:"label"`
	CreatedAt int64  `json:"createdAt"`
}

// OrphanTimeout configures how long the backend keeps unowned terminals.
type OrphanTimeout struct {
	Type      Type  `json:"type"`
	TimeoutMs int   `json:"timeoutMs"`
}

// Marshal encodes an outbound frame, filling its type tag.
func Marshal(frame interface{}) ([]byte, error) {
	return json.Marshal(frame)
}

// NewPing constructs a heartbeat frame.
func NewPing() Ping { return Ping{Type: TypePing} }

// NewPtySyncActive constructs a terminal ownership sync frame.
func NewPtySyncActive(ids []string) PtySyncActive {
	return PtySyncActive{Type: TypePtySyncActive, TerminalIDs: ids}
}

// NewPtyClose constructs a terminal close request.
func NewPtyClose(terminalID string) PtyClose {
	return PtyClose{Type: TypePtyClose, TerminalID: terminalID}
}

// NewPtyInput constructs a terminal input frame.
func NewPtyInput(terminalID, data string) PtyInput {
	return PtyInput{Type: TypePtyInput, TerminalID: terminalID, Data: data}
}

// NewRemoveSession constructs a session removal request.
func NewRemoveSession(sessionID string) RemoveSession {
	return RemoveSession{Type: TypeRemoveSession, ConsoleSessionID: sessionID}
}

// NewRenameSession constructs a session rename request.
func NewRenameSession(sessionID, label string) RenameSession {
	return RenameSession{Type: TypeRenameSession, ConsoleSessionID: sessionID, Label: label}
}

// NewSessionSetGroup constructs a group reassignment request.
func NewSessionSetGroup(sessionID, groupID string) SessionSetGroup {
	return SessionSetGroup{Type: TypeSessionSetGroup, ConsoleSessionID: sessionID, GroupID: groupID}
}

// NewGroupCreate constructs a group persistence request.
func NewGroupCreate(groupID, label string, createdAt int64) GroupCreate {
	return GroupCreate{Type: TypeGroupCreate, GroupID: groupID, Label: label, CreatedAt: createdAt}
}

// NewOrphanTimeout constructs an orphan timeout settings push.
func NewOrphanTimeout(timeoutMs int) OrphanTimeout {
	return OrphanTimeout{Type: TypeOrphanTimeout, TimeoutMs: timeoutMs}
}
