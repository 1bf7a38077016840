package state

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// State represents the local velocity client state as a generic map of
// key-value pairs, so any velocity tool can store arbitrary state data.
type State map[string]interface{}

const pendingDeletionsKey = "pending_session_deletions"

// stateFilePath returns the path to the state file.
// The state file is located in .velocity/state.yml in the current working
// directory, so each project keeps its own independent console state.
func stateFilePath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current directory: %w", err)
	}
	return filepath.Join(cwd, ".velocity", "state.yml"), nil
}

// Load loads the state from the state file.
// Returns an empty state if the file doesn't exist.
func Load() (State, error) {
	path, err := stateFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(State), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}

	if state == nil {
		state = make(State)
	}

	return state, nil
}

// Save saves the state to the state file.
func Save(state State) error {
	path, err := stateFilePath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

// PendingDeletions returns session ids whose removal was requested locally
// but may not have reached the backend yet. Reconciliation re-sends removal
// for any of these the backend still reports.
func (s State) PendingDeletions() []string {
	raw, ok := s[pendingDeletionsKey]
	if !ok {
		return nil
	}

	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(list))
	for _, v := range list {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// AddPendingDeletion records a session id as pending deletion.
func (s State) AddPendingDeletion(sessionID string) {
	for _, id := range s.PendingDeletions() {
		if id == sessionID {
			return
		}
	}
	raw, _ := s[pendingDeletionsKey].([]interface{})
	s[pendingDeletionsKey] = append(raw, sessionID)
}

// RemovePendingDeletion clears a session id once the backend confirmed it is gone.
func (s State) RemovePendingDeletion(sessionID string) {
	raw, ok := s[pendingDeletionsKey].([]interface{})
	if !ok {
		return
	}
	kept := make([]interface{}, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok && id == sessionID {
			continue
		}
		kept = append(kept, v)
	}
	s[pendingDeletionsKey] = kept
}
