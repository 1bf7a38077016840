// Package archive is the client for the session persistence collaborator:
// an HTTP service that stores archived session records keyed by session id.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SessionRecord is the persisted form of a console session.
type SessionRecord struct {
	ID        string            `json:"id"`
	Label     string            `json:"label"`
	Cwd       string            `json:"cwd"`
	Kind      string            `json:"kind,omitempty"`
	Provider  string            `json:"provider,omitempty"`
	Model     string            `json:"model,omitempty"`
	Effort    string            `json:"effort,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	GroupID   string            `json:"groupId,omitempty"`
	CreatedAt int64             `json:"createdAt"`
}

// TerminalRecord is the persisted metadata of a terminal that belonged to an
// archived session. Restore recreates these in idle state.
type TerminalRecord struct {
	ID      string            `json:"id"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Cwd     string            `json:"cwd"`
	Env     map[string]string `json:"env,omitempty"`
}

// ArchivedSession bundles a session record with its terminal metadata.
type ArchivedSession struct {
	Session   SessionRecord    `json:"session"`
	Terminals []TerminalRecord `json:"terminals"`
}

// Client calls the archive service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the archive service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

// Archive stores an archived session record.
func (c *Client) Archive(ctx context.Context, record ArchivedSession) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal archive record: %w", err)
	}

	url := fmt.Sprintf("%s/sessions/%s/archive", c.baseURL, record.Session.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("archive service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("archive service returned status %d", resp.StatusCode)
	}
	return nil
}

// Restore fetches a previously archived session record.
func (c *Client) Restore(ctx context.Context, sessionID string) (*ArchivedSession, error) {
	url := fmt.Sprintf("%s/sessions/%s/archive", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no archive found for session %s", sessionID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive service returned status %d", resp.StatusCode)
	}

	var record ArchivedSession
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode archive record: %w", err)
	}
	return &record, nil
}

// Delete removes an archived session record, used after a successful restore.
func (c *Client) Delete(ctx context.Context, sessionID string) error {
	url := fmt.Sprintf("%s/sessions/%s/archive", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("archive service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("archive service returned status %d", resp.StatusCode)
	}
	return nil
}
