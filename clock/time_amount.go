// Package clock defines TimeAmount, the event loop's nanosecond-precision
// duration value type.
package clock

import "time"

// TimeAmount is an immutable count of nanoseconds, totally ordered.
// It exists as its own value type (rather than a bare time.Duration) so
// that the rest of the module has a single, explicit vocabulary for
// "an amount of time" independent of stdlib's Duration semantics.
type TimeAmount int64

// Zero is the zero-length TimeAmount.
const Zero TimeAmount = 0

// Nanoseconds constructs a TimeAmount from a count of nanoseconds.
func Nanoseconds(n int64) TimeAmount { return TimeAmount(n) }

// Microseconds constructs a TimeAmount from a count of microseconds.
func Microseconds(n int64) TimeAmount { return TimeAmount(n * int64(time.Microsecond)) }

// Milliseconds constructs a TimeAmount from a count of milliseconds.
func Milliseconds(n int64) TimeAmount { return TimeAmount(n * int64(time.Millisecond)) }

// Seconds constructs a TimeAmount from a count of seconds.
func Seconds(n int64) TimeAmount { return TimeAmount(n * int64(time.Second)) }

// Minutes constructs a TimeAmount from a count of minutes.
func Minutes(n int64) TimeAmount { return TimeAmount(n * int64(time.Minute)) }

// Hours constructs a TimeAmount from a count of hours.
func Hours(n int64) TimeAmount { return TimeAmount(n * int64(time.Hour)) }

// Ns returns the amount as a raw nanosecond count.
func (t TimeAmount) Ns() int64 { return int64(t) }

// Duration converts the amount to a stdlib time.Duration, for interop with
// APIs (timers, context deadlines) that require it.
func (t TimeAmount) Duration() time.Duration { return time.Duration(t) }

// FromDuration converts a stdlib time.Duration into a TimeAmount.
func FromDuration(d time.Duration) TimeAmount { return TimeAmount(d) }

// Less reports whether t represents a shorter amount of time than other.
func (t TimeAmount) Less(other TimeAmount) bool { return t < other }

// Compare returns -1, 0, or 1 if t is less than, equal to, or greater than other.
func (t TimeAmount) Compare(other TimeAmount) int {
	switch {
	case t < other:
		return -1
	case t > other:
		return 1
	default:
		return 0
	}
}

// Add returns the sum of two TimeAmounts. Overflow is the caller's
// responsibility, as with any other signed 64-bit arithmetic.
func (t TimeAmount) Add(other TimeAmount) TimeAmount { return t + other }

// Sub returns the difference of two TimeAmounts.
func (t TimeAmount) Sub(other TimeAmount) TimeAmount { return t - other }

// String renders the amount using time.Duration's formatting.
func (t TimeAmount) String() string { return t.Duration().String() }
