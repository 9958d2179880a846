package regulatory

import "errors"

var (
	// ErrFractionOutOfRange is returned when a schedule value is outside [0,1].
	ErrFractionOutOfRange = errors.New("regulatory: fraction out of range")
	// ErrScheduleNotMonotonic is returned when the schedule decreases between years.
	ErrScheduleNotMonotonic = errors.New("regulatory: schedule must be non-decreasing")
	// ErrEmptySchedule is returned when no year is configured.
	ErrEmptySchedule = errors.New("regulatory: empty schedule")
)
