package pagetoll

import (
	"errors"
	"fmt"
)

// Error is the structured error type surfaced by every component.
// Kind discriminates the failure class; Details carries kind-specific
// context (for example the current capability list on a registry miss).
type Error struct {
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Error kinds.
const (
	KindValidation              = "validation"
	KindNotFound                = "not_found"
	KindSessionNotFound         = "session_not_found"
	KindVerificationFailed      = "verification_failed"
	KindVerificationUnavailable = "verification_unavailable"
	KindUpstreamUnavailable     = "upstream_unavailable"
	KindUploadFailed            = "upload_failed"
	KindRegistryMiss            = "registry_miss"
)

// NewError creates a structured error.
func NewError(kind, message string, details map[string]interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Details: details,
	}
}

// Errorf creates a structured error with a formatted message and no details.
func Errorf(kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is (or wraps) a *Error of the given kind.
func IsKind(err error, kind string) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
