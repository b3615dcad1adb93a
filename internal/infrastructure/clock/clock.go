// Package clock provides the production clock. Use cases depend on a
// Clock interface so tests can pin the time; this is the single place
// that reads the wall clock.
package clock

import "time"

// System reads the wall clock in UTC.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}
