package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFilter means the session was configured with neither a
	// location query nor a location id. Configuration error, never retried.
	ErrInvalidFilter = errors.New("invalid filter: location query or location id required")

	// ErrLocationNotFound means the autocomplete lookup produced no
	// admissible candidate. Fatal for the session.
	ErrLocationNotFound = errors.New("location not found")

	// ErrCaptchaDetected is raised by the browser path when the page shows
	// a captcha or bot-protection wall. Treated as a retryable fetch
	// failure, not a separate policy.
	ErrCaptchaDetected = errors.New("captcha detected")
)

// FetchError wraps a transport failure, timeout, or non-2xx response from
// the geo or listing endpoints. Retryable under the session's RetryPolicy.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means the top-level search envelope could not be decoded.
// Fatal for the page; never retried.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// retryable reports whether an error may self-heal on a repeat attempt.
func retryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
