package cli

import (
	"fmt"
	"os"

	"github.com/OptimiLabs/velocity-sub007/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle provides user-friendly error messages based on error type
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Create a velocity.yml in your project root.\n")
		return err

	case errors.ErrCodeProviderDisabled:
		if velErr, ok := err.(*errors.VelocityError); ok {
			fmt.Fprintf(os.Stderr, "❌ The '%s' CLI is disabled\n", velErr.Details["provider"])
			fmt.Fprintf(os.Stderr, "Enable it under providers.%s in velocity.yml\n", velErr.Details["provider"])
		}
		return err

	case errors.ErrCodeConnectTimeout, errors.ErrCodeSocketClosed:
		fmt.Fprintf(os.Stderr, "❌ Could not reach the console backend\n")
		fmt.Fprintf(os.Stderr, "Check backend.url in velocity.yml and that the backend is running.\n")
		return err

	case errors.ErrCodeSessionNotFound:
		if velErr, ok := err.(*errors.VelocityError); ok {
			fmt.Fprintf(os.Stderr, "❌ Session '%s' not found\n", velErr.Details["sessionId"])
		}
		return err

	case errors.ErrCodeArchiveFailed:
		fmt.Fprintf(os.Stderr, "❌ Archiving failed; the session was left untouched\n")
		return err

	case errors.ErrCodeRestoreFailed:
		fmt.Fprintf(os.Stderr, "❌ Restore failed; no session was created\n")
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if velErr, ok := err.(*errors.VelocityError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", velErr.ToJSON())
			}
		}
		return err
	}
}
