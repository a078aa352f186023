package scheduler

import "errors"

var (
	// ErrInvalidSchedule is returned for a schedule expression that cannot be parsed
	ErrInvalidSchedule = errors.New("invalid schedule expression")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
