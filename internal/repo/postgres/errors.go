package postgres

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrSwapNotFound = errors.New("swap request not found")

	// ErrStatusConflict is returned when a conditional status write finds
	// the row already moved past the expected status.
	ErrStatusConflict = errors.New("swap status conflict")

	// ErrStaleUserUpdate is returned when an optimistic rating update loses
	// against a concurrent completion for the same user.
	ErrStaleUserUpdate = errors.New("stale user rating update")
)
