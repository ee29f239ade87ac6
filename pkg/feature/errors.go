package feature

import "errors"

// Predefined errors for the feature package.
var (
	// ErrFlagNotFound indicates that the requested feature flag was not found.
	ErrFlagNotFound = errors.New("feature flag not found")

	// ErrFlagExists indicates an attempt to create a flag whose name is taken.
	ErrFlagExists = errors.New("feature flag already exists")

	// ErrInvalidFlag indicates that the provided flag parameters are invalid.
	ErrInvalidFlag = errors.New("invalid feature flag parameters")

	// ErrInvalidValue indicates a flag or variant value failed construction.
	ErrInvalidValue = errors.New("invalid flag value")

	// ErrStoreUnavailable indicates the flag store could not be reached.
	ErrStoreUnavailable = errors.New("flag store unavailable")

	// ErrStoreNil indicates a nil store was passed to a constructor.
	ErrStoreNil = errors.New("flag store cannot be nil")

	// ErrAnalyticsDisabled indicates no usage recorder is configured.
	ErrAnalyticsDisabled = errors.New("usage analytics not configured")
)
