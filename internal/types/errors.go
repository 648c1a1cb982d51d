package types

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrValidation marks a submission missing or carrying malformed required fields.
	ErrValidation = errors.New("validation failed")
	// ErrConnection marks a store, cache or queue that could not be reached.
	ErrConnection = errors.New("connection failed")
	// ErrQueue marks a request that was not enqueued; the stored request is rolled back.
	ErrQueue = errors.New("enqueue failed")

	ErrGeneration  = errors.New("generation failed")
	ErrParse       = errors.New("parse failed")
	ErrPersistence = errors.New("persistence failed")
)
