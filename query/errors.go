package query

import "errors"

var (
	// ErrNilClock is returned when a nil clock function is supplied.
	ErrNilClock = errors.New("clock function cannot be nil")

	// ErrNilExtractor is returned when a nil date extractor is supplied.
	ErrNilExtractor = errors.New("date extractor cannot be nil")
)
