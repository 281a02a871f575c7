package source

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSource is returned for a path or URL that cannot be used,
	// before any I/O happens.
	ErrInvalidSource = errors.New("invalid source")

	// ErrResourceUnavailable is returned when a local file or bundled
	// resource cannot be read.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrFetchFailed matches every *FetchError.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrSpeechUnavailable is returned for speech requests when no
	// synthesizer is configured.
	ErrSpeechUnavailable = errors.New("speech synthesis unavailable")
)

// FetchError describes a failed network fetch.
type FetchError struct {
	URL    string
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSource, fmt.Sprintf(format, args...))
}
