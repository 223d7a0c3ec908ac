// Package rate throttles failed logins with Redis fixed-window counters.
//
// A failure increments a counter for the username and, when enabled, one for the
// client IP. The first increment in a window sets the key's expiry. Once a counter
// exceeds the attempt budget every login for that username or IP is refused until
// the window ends.
//
// Key layout, relative to the configured prefix:
//   - <prefix>:u:<username>
//   - <prefix>:ip:<ip>
package rate
