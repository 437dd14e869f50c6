// Package output provides JSON output formatting and error handling.
package output

// Exit codes for the CLI.
const (
	ExitOK          = 0 // Success
	ExitUsage       = 1 // Invalid arguments or flags
	ExitValidation  = 2 // Local pre-flight validation failed
	ExitAuth        = 3 // Not authenticated / token expired
	ExitAuthInvalid = 4 // Refresh failed, re-link required
	ExitNotFound    = 5 // Resource not found
	ExitNetwork     = 6 // Connection/DNS/timeout error
	ExitAPI         = 7 // Server returned error
	ExitCancelled   = 8 // User aborted an interactive flow
)

// Error codes for the JSON envelope.
const (
	CodeUsage       = "usage"
	CodeValidation  = "validation"
	CodeAuth        = "auth_required"
	CodeAuthInvalid = "auth_invalid"
	CodeNotFound    = "not_found"
	CodeNetwork     = "network"
	CodeAPI         = "api_error"
	CodeCancelled   = "cancelled"
)

// ExitCodeFor returns the exit code for a given error code.
func ExitCodeFor(code string) int {
	switch code {
	case CodeUsage:
		return ExitUsage
	case CodeValidation:
		return ExitValidation
	case CodeAuth:
		return ExitAuth
	case CodeAuthInvalid:
		return ExitAuthInvalid
	case CodeNotFound:
		return ExitNotFound
	case CodeNetwork:
		return ExitNetwork
	case CodeAPI:
		return ExitAPI
	case CodeCancelled:
		return ExitCancelled
	default:
		return ExitAPI
	}
}
