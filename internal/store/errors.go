package store

import "errors"

// Domain errors for the store package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, store.ErrUserNotFound) {
//	    // handle not found case
//	}
var (
	// ErrUserNotFound is returned when a user ID does not exist.
	ErrUserNotFound = errors.New("store: user not found")

	// ErrMedicineNotFound is returned when a medicine ID does not exist.
	ErrMedicineNotFound = errors.New("store: medicine not found")

	// ErrScheduleNotFound is returned when a schedule entry ID does not exist.
	ErrScheduleNotFound = errors.New("store: schedule not found")

	// ErrAlertNotFound is returned when an alert ID does not exist.
	ErrAlertNotFound = errors.New("store: alert not found")

	// ErrValidation is returned when a create operation carries missing or
	// malformed required fields. Rejected requests are never persisted.
	ErrValidation = errors.New("store: invalid input")

	// ErrStorage is returned when the document file cannot be read or written.
	ErrStorage = errors.New("store: storage failure")
)
