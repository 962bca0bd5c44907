// Package actuator wraps the vendor IoT platform that drives the medicine
// cabinet's physical alert (LED and buzzer), plus the companion check-in
// camera service.
//
// The client is a capability wrapper: every operation returns a plain
// success boolean and never an error. Network failures, bad statuses, and
// timeouts are all swallowed into false; the caller decides whether that
// warrants a warning alert. Deferred auto-off timers are tracked per
// session so Close can cancel them and leave the device off on shutdown.
package actuator
