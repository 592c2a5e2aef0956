package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCameraUnavailable signals a camera acquisition failure, fatal to the attempt.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrModelNotReady signals the descriptor source has not finished loading;
	// the attempt is never started.
	ErrModelNotReady = errors.New("face model not ready")
	// ErrAttemptInProgress signals the camera is owned by another live attempt.
	ErrAttemptInProgress = errors.New("attempt already in progress")
	// ErrFaceNotDetected signals an enrollment capture produced no descriptor.
	ErrFaceNotDetected = errors.New("no face detected")
	// ErrDescriptorDimMismatch signals mixed descriptor dimensionality.
	ErrDescriptorDimMismatch = errors.New("descriptor dimension mismatch")
	// ErrGatewayUnavailable signals a match gateway network or server failure.
	ErrGatewayUnavailable = errors.New("match gateway unavailable")
	// ErrDuplicateIdentity signals the gateway rejected an already-enrolled identity id.
	ErrDuplicateIdentity = errors.New("identity already enrolled")
	// ErrDuplicateFace signals the gateway matched the face to another enrolled identity.
	ErrDuplicateFace = errors.New("face already enrolled")
	// ErrAttemptNotFound signals an unknown attempt id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrNoPendingCandidate signals a confirm/reject on an attempt with nothing pending.
	ErrNoPendingCandidate = errors.New("no pending candidate")
)

// ConflictError wraps a duplicate-enrollment sentinel with the gateway's
// detail message. Conflicts are user-actionable, never retried automatically.
type ConflictError struct {
	Kind   error // ErrDuplicateIdentity or ErrDuplicateFace
	Detail string
}

func (e *ConflictError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Detail)
}

func (e *ConflictError) Unwrap() error { return e.Kind }

// NewConflict creates a conflict error for the given duplicate kind.
func NewConflict(kind error, detail string) error {
	return &ConflictError{Kind: kind, Detail: detail}
}
