package session

import "errors"

// Common errors for chat session operations.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrVersionConflict  = errors.New("session version conflict")
	ErrNotFound         = errors.New("session not found")

	ErrAlreadySending = errors.New("a message is already being sent")
	ErrCooldownActive = errors.New("cooldown window is still active")
	ErrNotSending     = errors.New("no send in progress")
)
