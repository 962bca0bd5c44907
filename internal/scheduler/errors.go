package scheduler

import "errors"

// Domain errors for the scheduler package.
var (
	// ErrNotInitialized is returned when registering triggers before Start.
	ErrNotInitialized = errors.New("scheduler: not initialised")

	// ErrNoTrigger is returned when an entry yields no valid trigger time.
	ErrNoTrigger = errors.New("scheduler: no valid trigger for entry")
)
