package adapter

import "time"

// MetricsRecorder receives outcome counts from the use cases.
type MetricsRecorder interface {
	RecordAuthentication(outcome string)
	RecordAccountOperation(operation, outcome string)
	RecordSessionTransition(from, to string)
	RecordEmail(template, status string)
}

// Clock returns the current time. Tests substitute a controllable one.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns time.Now in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
