package checkin

import "errors"

// Domain errors for the checkin package.
var (
	// ErrUserNotFound is returned when the check-in references an unknown user.
	ErrUserNotFound = errors.New("checkin: user not found")
)
