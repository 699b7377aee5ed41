package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPage is returned for a page number below 1 or a non-positive page size
	ErrInvalidPage = errors.New("invalid page request")
	// ErrInvalidPageSize is returned when a session is given a page size outside the offered set
	ErrInvalidPageSize = errors.New("page size not allowed")
	// ErrStaleResult is returned by a fetch that was superseded before it completed
	ErrStaleResult = errors.New("result superseded by a newer request")
)

// NetworkError means the API host could not be reached (refused, DNS, timeout, cancelled)
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cannot reach API at %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError means the API answered with a non-2xx status
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API error: HTTP %d %s (%s)", e.StatusCode, e.Status, e.URL)
}

// NotFoundError is the 404 answer to a single-contract lookup.
// errors.As also matches it as *HTTPError.
type NotFoundError struct {
	ContractID string
	HTTP       *HTTPError
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("contract with ID %q not found", e.ContractID)
}

func (e *NotFoundError) Unwrap() error { return e.HTTP }

// SchemaError means the body decoded but did not have the expected shape
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid API response: %s: %v", e.Reason, e.Err)
	}
	return "invalid API response: " + e.Reason
}

func (e *SchemaError) Unwrap() error { return e.Err }
