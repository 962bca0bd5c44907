// Package scheduler dispatches medication reminders at the right moment.
//
// One cron trigger is held per pending schedule entry, evaluated in the
// configured local timezone. Dated entries fire once on their calendar date
// and are then deregistered; entries carrying only a weekday mask recur
// weekly. At most one active trigger exists per entry id; re-registering an
// id is a no-op.
//
// When a trigger fires, the scheduler drives the cabinet's timed device
// alert, pokes the companion check-in camera, records the attempt as an
// alert and timeline event through the store, and emits a reminder-fired
// event for the transport layer. The entry itself stays pending; only
// check-in resolution or a manual update moves it on.
package scheduler
