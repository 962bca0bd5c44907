// Package auth provides credential verification and token handling for the
// caregiver dashboard.
//
// Access is deliberately simple: one administrative account whose Argon2id
// password hash lives in configuration, short-lived HS256 access tokens,
// and single-use tickets that let the browser upgrade to a WebSocket
// without putting the bearer token in a query string.
package auth
