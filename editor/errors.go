package editor

import "errors"

var (
	ErrNotFound        = errors.New("not-found")
	ErrLockDenied      = errors.New("lock-denied")
	ErrInvalidPayload  = errors.New("invalid-payload")
	ErrSessionNotFound = errors.New("session-not-found")
	ErrSessionClosed   = errors.New("session-closed")
)
