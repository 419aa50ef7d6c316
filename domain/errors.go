package domain

import "errors"

var (
	// ErrLaneNotFound is returned when an operation references an unknown lane.
	ErrLaneNotFound = errors.New("lane not found")
	// ErrTaskNotFound is returned when an operation references an unknown task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidWeeks indicates a week count outside 1..MaxWeeks.
	ErrInvalidWeeks = errors.New("week count must be between 1 and 520")
)
