package config

import "errors"

var (
	// ErrNilPointer indicates a nil config pointer was passed to Load.
	ErrNilPointer = errors.New("config target cannot be nil")

	// ErrParsingConfig indicates environment parsing failed.
	ErrParsingConfig = errors.New("failed to parse config from environment")
)
