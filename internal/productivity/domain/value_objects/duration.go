package value_objects

import (
	"errors"
	"time"
)

var ErrInvalidDuration = errors.New("duration must be positive")

// Duration is a task estimate in whole minutes. Long estimates are legal;
// the scheduler splits them across days.
type Duration struct {
	minutes int
}

// NewDuration creates a Duration from a positive number of minutes.
func NewDuration(minutes int) (Duration, error) {
	if minutes <= 0 {
		return Duration{}, ErrInvalidDuration
	}
	return Duration{minutes: minutes}, nil
}

// Minutes returns the estimate in minutes.
func (d Duration) Minutes() int { return d.minutes }

// Value returns the estimate as a time.Duration.
func (d Duration) Value() time.Duration {
	return time.Duration(d.minutes) * time.Minute
}
