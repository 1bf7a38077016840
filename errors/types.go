package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Transport errors
	ErrCodeSocketClosed   ErrorCode = "SOCKET_CLOSED"
	ErrCodeConnectTimeout ErrorCode = "CONNECT_TIMEOUT"
	ErrCodeBadFrame       ErrorCode = "BAD_FRAME"

	// Policy errors
	ErrCodeProviderDisabled ErrorCode = "PROVIDER_DISABLED"
	ErrCodeProviderUnknown  ErrorCode = "PROVIDER_UNKNOWN"

	// Session errors
	ErrCodeSessionNotFound  ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeGroupNotFound    ErrorCode = "GROUP_NOT_FOUND"
	ErrCodeTerminalNotFound ErrorCode = "TERMINAL_NOT_FOUND"
	ErrCodeSessionActive    ErrorCode = "SESSION_ACTIVE"

	// Layout errors
	ErrCodePaneNotFound ErrorCode = "PANE_NOT_FOUND"
	ErrCodeLayoutEmpty  ErrorCode = "LAYOUT_EMPTY"

	// Persistence errors
	ErrCodeArchiveFailed ErrorCode = "ARCHIVE_FAILED"
	ErrCodeRestoreFailed ErrorCode = "RESTORE_FAILED"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// VelocityError represents a structured error with context
type VelocityError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *VelocityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *VelocityError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *VelocityError) WithDetail(key string, value interface{}) *VelocityError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *VelocityError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new VelocityError
func New(code ErrorCode, message string) *VelocityError {
	return &VelocityError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a VelocityError
func Wrap(err error, code ErrorCode, message string) *VelocityError {
	return &VelocityError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific VelocityError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	velErr, ok := err.(*VelocityError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return velErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	velErr, ok := err.(*VelocityError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return velErr.Code
}
