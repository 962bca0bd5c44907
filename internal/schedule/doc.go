// Package schedule expands recurring-schedule requests into dated schedule
// entries.
//
// A request combines a weekday mask, a dosing period, a usage duration, and
// a list of medicines. The generator walks each calendar day from today
// through today plus the usage duration inclusive, emitting one entry per
// requested medicine on every day whose weekday is in the mask. Medicines
// referenced by name only are resolved by exact match or auto-created with
// default stock.
//
// Generation mutates a loaded document in memory; callers run it inside
// store.Update so the whole batch lands in a single save.
package schedule
