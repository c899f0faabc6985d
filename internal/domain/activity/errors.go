package activity

import "errors"

var (
	// ErrActivityNotFound is returned when an activity cannot be found
	ErrActivityNotFound = errors.New("activity not found")

	// ErrNotAuthenticated is returned when an activity is recorded for a
	// missing identity; nothing is written
	ErrNotAuthenticated = errors.New("acting user is not authenticated")

	// ErrInvalidActivityType is returned when the type is empty or outside
	// the restricted set accepted by the entry point
	ErrInvalidActivityType = errors.New("invalid activity type")
)
