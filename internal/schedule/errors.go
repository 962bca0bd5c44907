package schedule

import "errors"

// Domain errors for the schedule package.
var (
	// ErrInvalidRequest is returned when request validation fails.
	ErrInvalidRequest = errors.New("schedule: invalid request")

	// ErrUserNotFound is returned when the request references a user that
	// does not exist.
	ErrUserNotFound = errors.New("schedule: user not found")
)
