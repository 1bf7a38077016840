package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope is a partially-decoded inbound frame: the type tag, the terminal
// id when the frame carries one, and the raw bytes for a second typed pass.
type Envelope struct {
	Type       Type
	TerminalID string
	Raw        json.RawMessage
}

// Decode probes an inbound frame for its type tag. Frames without a type tag
// are rejected; unknown types are returned as-is so callers can broadcast
// them to generic consumers.
func Decode(data []byte) (*Envelope, error) {
	var probe struct {
		Type       Type   `json:"type"`
		TerminalID string `json:"terminalId"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if probe.Type == "" {
		return nil, fmt.Errorf("frame has no type tag")
	}

	return &Envelope{
		Type:       probe.Type,
		TerminalID: probe.TerminalID,
		Raw:        json.RawMessage(data),
	}, nil
}

// Unmarshal decodes the envelope's raw bytes into a typed frame.
func (e *Envelope) Unmarshal(target interface{}) error {
	return json.Unmarshal(e.Raw, target)
}
