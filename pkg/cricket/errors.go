package cricket

import (
	"errors"
	"fmt"
)

// ErrExtractionEmpty means a source was reachable but no strategy produced a record.
var ErrExtractionEmpty = errors.New("extraction produced no records")

// FetchError is a network or HTTP failure while retrieving a document.
type FetchError struct {
	Source     string
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (%s): HTTP %d", e.Source, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.Source, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CacheWriteError wraps a failed cache upsert. It is logged, never returned to readers.
type CacheWriteError struct {
	Key string
	Err error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write %q: %v", e.Key, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// CacheReadError wraps a failed cache lookup. Callers treat it as a miss.
type CacheReadError struct {
	Key string
	Err error
}

func (e *CacheReadError) Error() string {
	return fmt.Sprintf("cache read %q: %v", e.Key, e.Err)
}

func (e *CacheReadError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is, or wraps, a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
