package models

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write loses a uniqueness race that the
	// store could not resolve on its own.
	ErrConflict = errors.New("conflict")
	// ErrCapacityBelowAttendance is returned when an event's capacity would drop
	// below its confirmed attendee count.
	ErrCapacityBelowAttendance = errors.New("capacity below confirmed attendance")
)
