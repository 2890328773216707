package cms

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransientTimeout marks an attempt that ran past the per-attempt deadline.
	ErrTransientTimeout = errors.New("cms: request timed out")
	// ErrNetworkUnreachable marks connection level failures with no response.
	ErrNetworkUnreachable = errors.New("cms: network unreachable")
	// ErrMalformedResponse marks a body that is not valid JSON.
	ErrMalformedResponse = errors.New("cms: malformed response")
	// ErrNotFound is returned when a CMS resource cannot be located.
	ErrNotFound = errors.New("cms: not found")
	// ErrSubmissionRejected is returned when the CMS answers a submission with success=false.
	ErrSubmissionRejected = errors.New("cms: submission rejected")
)

// TimeoutError is the terminal error after every attempt timed out.
type TimeoutError struct {
	Endpoint string
	Retries  int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("cms: %s: timeout after %d retries", e.Endpoint, e.Retries)
}

// Is lets errors.Is match ErrTransientTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTransientTimeout
}

// StatusError reports a non-2xx CMS response.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cms: %s: status %d", e.Endpoint, e.Code)
}

// Is lets errors.Is match ErrNotFound for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// IsRetryable reports whether err is worth another attempt. Only timeouts are.
func IsRetryable(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return false
	}
	return errors.Is(err, ErrTransientTimeout)
}
