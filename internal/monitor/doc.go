// Package monitor runs the periodic sweeps backing the alert scheduler.
//
// The reminder sweep is a short-interval safety net for the cron triggers:
// it catches doses whose trigger was missed (a restart, a clock jump) by
// re-checking today's pending entries against their reminder window. The
// health sweep periodically raises stock and expiry alerts from the
// medicine inventory.
package monitor
