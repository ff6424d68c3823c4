package domain

import (
	"errors"
	"fmt"
)

var (
	ErrKeyNotFound = errors.New("storage key not found")

	ErrProbeNotReady = errors.New("connection is not ready")
	ErrUnreachable   = errors.New("chat service is unreachable")
	ErrProbeTimeout  = errors.New("chat service did not respond in time")

	ErrSessionExpired = errors.New("session expired")
	ErrSessionInvalid = errors.New("session record is invalid")

	// ErrPostRegistrationLogin is returned when registration itself succeeded
	// but the follow-up login did not. Callers get this instead of the raw
	// login error.
	ErrPostRegistrationLogin = errors.New("post-registration login failed")
)

type RegistrationErrorKind string

const (
	RegistrationAlreadyRegistered    RegistrationErrorKind = "already-registered"
	RegistrationUsernameOrEmailTaken RegistrationErrorKind = "username-or-email-taken"
	RegistrationUnknown              RegistrationErrorKind = "unknown"
)

// RegistrationError carries the structured failure result the remote service
// returns for a registration attempt, mapped onto the client taxonomy.
type RegistrationError struct {
	Kind RegistrationErrorKind
	Code string
}

func (e *RegistrationError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("registration failed: %s", e.Kind)
	}
	return fmt.Sprintf("registration failed: %s (%s)", e.Kind, e.Code)
}

// UserMessage is the fixed friendly-message table for registration failures.
func (e *RegistrationError) UserMessage() string {
	switch e.Kind {
	case RegistrationAlreadyRegistered:
		return "An account with these details already exists. Try logging in instead."
	case RegistrationUsernameOrEmailTaken:
		return "That username or email is already taken."
	default:
		return "Registration failed. Please try again."
	}
}

// NewRegistrationError maps a remote result code onto the taxonomy. Codes the
// client does not recognize collapse into RegistrationUnknown.
func NewRegistrationError(code string) *RegistrationError {
	kind := RegistrationUnknown
	switch code {
	case "already_registered":
		kind = RegistrationAlreadyRegistered
	case "username_taken", "email_taken":
		kind = RegistrationUsernameOrEmailTaken
	}
	return &RegistrationError{Kind: kind, Code: code}
}
