package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *VelocityError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *VelocityError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// ProviderDisabled creates a disabled-provider policy error. The message
// names the settings location so the user can fix it.
func ProviderDisabled(provider string) *VelocityError {
	return New(ErrCodeProviderDisabled,
		fmt.Sprintf("the '%s' CLI is disabled; enable it under providers.%s in velocity.yml", provider, provider)).
		WithDetail("provider", provider)
}

// SessionNotFound creates a session not found error
func SessionNotFound(sessionID string) *VelocityError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("session '%s' not found", sessionID)).
		WithDetail("sessionId", sessionID)
}

// GroupNotFound creates a group not found error
func GroupNotFound(groupID string) *VelocityError {
	return New(ErrCodeGroupNotFound, fmt.Sprintf("group '%s' not found", groupID)).
		WithDetail("groupId", groupID)
}

// PaneNotFound creates a pane not found error
func PaneNotFound(paneID string) *VelocityError {
	return New(ErrCodePaneNotFound, fmt.Sprintf("pane '%s' not found", paneID)).
		WithDetail("paneId", paneID)
}

// ArchiveFailed wraps a persistence-service failure during archive
func ArchiveFailed(sessionID string, err error) *VelocityError {
	return Wrap(err, ErrCodeArchiveFailed, fmt.Sprintf("failed to archive session '%s'", sessionID)).
		WithDetail("sessionId", sessionID)
}

// RestoreFailed wraps a persistence-service failure during restore
func RestoreFailed(sessionID string, err error) *VelocityError {
	return Wrap(err, ErrCodeRestoreFailed, fmt.Sprintf("failed to restore session '%s'", sessionID)).
		WithDetail("sessionId", sessionID)
}
