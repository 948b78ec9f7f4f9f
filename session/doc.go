// Package session drives one practice conversation from credential request
// to feedback report.
//
// A Lifecycle moves through the states
//
//	Idle → Requesting → InProgress → Completing → Completed
//
// with side exits to Failed (provisioning or summary request failed) and
// Aborted (discarded without a report). Reset returns to Idle from any state.
// Only one conversation may be active per Lifecycle; a Start while Requesting,
// InProgress or Completing is rejected.
//
// Network calls run outside the lock. Results that arrive after an Abort or
// Reset are discarded.
package session
