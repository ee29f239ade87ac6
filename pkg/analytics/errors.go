package analytics

import "errors"

var (
	// ErrStorageNil indicates a nil storage was passed to a constructor.
	ErrStorageNil = errors.New("analytics storage cannot be nil")

	// ErrInvalidRange indicates a report range with to before from.
	ErrInvalidRange = errors.New("invalid analytics date range")
)
