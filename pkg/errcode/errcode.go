// Package errcode defines the portable error taxonomy used across the
// process/thread boundary. Native host errors (errno values, Win32 last-error
// codes) are translated into these values at the call site that produced
// them; no host error code is allowed to escape the native layer untranslated.
package errcode

import (
	"errors"
	"fmt"
)

// Sentinel errors. A nil error means success.
var (
	// ErrUnsupported reports a capability this host genuinely cannot
	// provide. It is never fatal; callers are expected to degrade.
	ErrUnsupported = errors.New("not supported on this host")

	// ErrAlreadyExists reports an identity mutation attempted on an
	// already-initialized object.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound reports a lookup miss for a caller-supplied id.
	ErrNotFound = errors.New("not found")

	ErrInvalidArgument = errors.New("invalid argument")
	ErrAccessDenied    = errors.New("access denied")

	// ErrProcessGone reports an operation on a process or thread that has
	// terminated or was never there.
	ErrProcessGone = errors.New("process no longer exists")
)

// UnknownError wraps a host error with no portable equivalent.
type UnknownError struct {
	Cause error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown host error: %v", e.Cause)
}

func (e *UnknownError) Unwrap() error { return e.Cause }
