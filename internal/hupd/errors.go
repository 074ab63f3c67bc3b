package hupd

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth indicates the hub rejected the request's credentials.
	ErrAuth = errors.New("hugging face authentication failed (set HF_TOKEN)")

	// ErrNotFound indicates the requested archive does not exist.
	ErrNotFound = errors.New("dataset archive not found")

	// ErrBadArchive indicates an archive could not be parsed.
	ErrBadArchive = errors.New("malformed dataset archive")
)

// FetchError describes a failed archive download.
type FetchError struct {
	URL        string
	StatusCode int // 0 for network errors
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
