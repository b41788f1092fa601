// Package errors provides the typed error family shared by the path
// decomposer and the mount orchestrator. It is a leaf package with no
// internal dependencies so that pkg/rsepath and pkg/mount can both import
// it without causing circular imports.
//
// Import graph: errors <- rsepath <- mount <- cmd/starbind-helper
package errors

import (
	"fmt"
)

// ErrorCode represents the type of error that occurred.
type ErrorCode int

const (
	// ErrMalformedPath indicates the storage-relative path could not be
	// decomposed: wrong segment count, absolute path, dot segments, a file
	// name without an extension separator, or length limits exceeded.
	ErrMalformedPath ErrorCode = iota + 1

	// ErrGroupMismatch indicates the claimed group does not match the
	// namespace segment of the storage path.
	ErrGroupMismatch

	// ErrAlreadyMounted indicates a path that would receive a mount is
	// already a mountpoint.
	ErrAlreadyMounted

	// ErrVerificationFailed indicates the bind sequence reported success
	// but the final path is not a mountpoint.
	ErrVerificationFailed

	// ErrLockBusy indicates another invocation holds the advisory lock for
	// the same user and stem.
	ErrLockBusy

	// ErrNotPermitted indicates the helper was invoked without root
	// privileges or without a usable sudo environment.
	ErrNotPermitted

	// ErrMountFailed indicates an external mount command exited non-zero.
	ErrMountFailed

	// ErrUnmountFailed indicates an external unmount command exited
	// non-zero. The unmount orchestrator downgrades this to a warning.
	ErrUnmountFailed
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrMalformedPath:
		return "MalformedPath"
	case ErrGroupMismatch:
		return "GroupMismatch"
	case ErrAlreadyMounted:
		return "AlreadyMounted"
	case ErrVerificationFailed:
		return "VerificationFailed"
	case ErrLockBusy:
		return "LockBusy"
	case ErrNotPermitted:
		return "NotPermitted"
	case ErrMountFailed:
		return "MountFailed"
	case ErrUnmountFailed:
		return "UnmountFailed"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// MountError represents a mount orchestration error with an error code.
type MountError struct {
	Code    ErrorCode
	Message string
	Path    string
}

// Error implements the error interface.
func (e *MountError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s (path: %s)", e.Message, e.Path)
	}
	return e.Message
}

// ============================================================================
// Factory Functions
// ============================================================================

// NewMalformedPathError creates a MalformedPath error.
func NewMalformedPathError(path, reason string) *MountError {
	return &MountError{
		Code:    ErrMalformedPath,
		Message: fmt.Sprintf("malformed storage path: %s", reason),
		Path:    path,
	}
}

// NewGroupMismatchError creates a GroupMismatch error.
func NewGroupMismatchError(namespace, claimedGroup string) *MountError {
	return &MountError{
		Code:    ErrGroupMismatch,
		Message: fmt.Sprintf("namespace %q does not match claimed group %q", namespace, claimedGroup),
	}
}

// NewAlreadyMountedError creates an AlreadyMounted error.
func NewAlreadyMountedError(path string) *MountError {
	return &MountError{
		Code:    ErrAlreadyMounted,
		Message: "a mount is already active",
		Path:    path,
	}
}

// NewVerificationFailedError creates a VerificationFailed error.
func NewVerificationFailedError(fileName, path string) *MountError {
	return &MountError{
		Code:    ErrVerificationFailed,
		Message: fmt.Sprintf("mount verification failed for %s", fileName),
		Path:    path,
	}
}

// NewLockBusyError creates a LockBusy error.
func NewLockBusyError(path string) *MountError {
	return &MountError{
		Code:    ErrLockBusy,
		Message: "another operation is in progress for this user and stem",
		Path:    path,
	}
}

// NewNotPermittedError creates a NotPermitted error.
func NewNotPermittedError(reason string) *MountError {
	return &MountError{
		Code:    ErrNotPermitted,
		Message: reason,
	}
}

// NewMountFailedError creates a MountFailed error.
func NewMountFailedError(path, message string) *MountError {
	return &MountError{
		Code:    ErrMountFailed,
		Message: message,
		Path:    path,
	}
}

// NewUnmountFailedError creates an UnmountFailed error.
func NewUnmountFailedError(path, message string) *MountError {
	return &MountError{
		Code:    ErrUnmountFailed,
		Message: message,
		Path:    path,
	}
}

// ============================================================================
// Error Type Checking Helpers
// ============================================================================

// IsMalformedPath returns true if the error is a MalformedPath error.
func IsMalformedPath(err error) bool {
	return hasCode(err, ErrMalformedPath)
}

// IsGroupMismatch returns true if the error is a GroupMismatch error.
func IsGroupMismatch(err error) bool {
	return hasCode(err, ErrGroupMismatch)
}

// IsAlreadyMounted returns true if the error is an AlreadyMounted error.
func IsAlreadyMounted(err error) bool {
	return hasCode(err, ErrAlreadyMounted)
}

// IsVerificationFailed returns true if the error is a VerificationFailed error.
func IsVerificationFailed(err error) bool {
	return hasCode(err, ErrVerificationFailed)
}

// IsLockBusy returns true if the error is a LockBusy error.
func IsLockBusy(err error) bool {
	return hasCode(err, ErrLockBusy)
}

// IsNotPermitted returns true if the error is a NotPermitted error.
func IsNotPermitted(err error) bool {
	return hasCode(err, ErrNotPermitted)
}

// IsMountFailed returns true if the error is a MountFailed error.
func IsMountFailed(err error) bool {
	return hasCode(err, ErrMountFailed)
}

// IsUnmountFailed returns true if the error is an UnmountFailed error.
func IsUnmountFailed(err error) bool {
	return hasCode(err, ErrUnmountFailed)
}

func hasCode(err error, code ErrorCode) bool {
	if mountErr, ok := err.(*MountError); ok {
		return mountErr.Code == code
	}
	return false
}
