package errors

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is against the typed errors below
var (
	ErrTransport         = errors.New("transport failure")
	ErrMarkerNotFound    = errors.New("marker not found")
	ErrMalformedJSON     = errors.New("malformed json")
	ErrNoMorePages       = errors.New("no more pages")
	ErrMalformedResponse = errors.New("malformed response")
)

// ExtractReason classifies a DocumentExtractor failure
type ExtractReason string

const (
	ExtractMarkerNotFound ExtractReason = "marker_not_found"
	ExtractMalformedJSON  ExtractReason = "malformed_json"
)

// FetchReason classifies a pagination failure
type FetchReason string

const (
	FetchNoMorePages       FetchReason = "no_more_pages"
	FetchTransport         FetchReason = "transport"
	FetchMalformedResponse FetchReason = "malformed_response"
)

// TransportError is a non-2xx status or a network failure (Status 0)
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error (status %d) for %s: %v", e.Status, e.URL, e.Err)
	}
	return fmt.Sprintf("transport error (status %d) for %s", e.Status, e.URL)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ExtractError is terminal for the profile fetch that produced it
type ExtractError struct {
	Reason ExtractReason
	Marker string
	Err    error
}

func (e *ExtractError) Error() string {
	switch {
	case e.Marker != "" && e.Err != nil:
		return fmt.Sprintf("extract %s (marker %q): %v", e.Reason, e.Marker, e.Err)
	case e.Marker != "":
		return fmt.Sprintf("extract %s (marker %q)", e.Reason, e.Marker)
	case e.Err != nil:
		return fmt.Sprintf("extract %s: %v", e.Reason, e.Err)
	default:
		return fmt.Sprintf("extract %s", e.Reason)
	}
}

func (e *ExtractError) Unwrap() error { return e.Err }

func (e *ExtractError) Is(target error) bool {
	switch e.Reason {
	case ExtractMarkerNotFound:
		return target == ErrMarkerNotFound
	case ExtractMalformedJSON:
		return target == ErrMalformedJSON
	}
	return false
}

// FetchError is a per-page pagination failure
type FetchError struct {
	Reason FetchReason
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (status %d): %v", e.Reason, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s (status %d)", e.Reason, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	switch e.Reason {
	case FetchNoMorePages:
		return target == ErrNoMorePages
	case FetchTransport:
		return target == ErrTransport
	case FetchMalformedResponse:
		return target == ErrMalformedResponse
	}
	return false
}

// MarkerNotFound builds the extraction error for a missing boundary marker
func MarkerNotFound(marker string) error {
	return &ExtractError{Reason: ExtractMarkerNotFound, Marker: marker}
}

// MalformedJSON builds the extraction error for a carve that does not decode
func MalformedJSON(err error) error {
	return &ExtractError{Reason: ExtractMalformedJSON, Err: err}
}

// IsRetryable reports whether a caller may reasonably retry the failed operation.
// Extraction failures are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.Reason {
		case FetchMalformedResponse:
			return true
		case FetchTransport:
			return IsRetryableStatusCode(fetchErr.Status)
		default:
			return false
		}
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return IsRetryableStatusCode(transportErr.Status)
	}

	return false
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}
