// Package checkin resolves external check-in signals against the day's
// schedule.
//
// A check-in asserts that a user took their medicine at a given instant,
// typically raised by the camera service watching the cabinet. The resolver
// walks the user's entries dated today that are not already confirmed, in
// storage order, and classifies the first one whose scheduled time is
// within the check-in window: on time up to an hour either side, late up to
// four hours after. The matched entry's status is updated through the store
// and a descriptive alert is appended.
package checkin
