package folioapi

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned by calls that need an access token
	// when the session has none.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoFiles is returned by upload calls given zero files.
	ErrNoFiles = errors.New("no files to upload")

	// ErrNoAggregate is returned by API.Portfolio outside the composite topology.
	ErrNoAggregate = errors.New("portfolio aggregate requires the composite topology")
)

// NetworkError is a transport-level failure: the request never produced a
// response (unreachable host, refused connection, cancelled context).
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RequestError is a non-2xx response.
//
// Message is the best available explanation, in priority order: the JSON
// body's "error" field, the trimmed raw body, then "Request failed (<status>)".
type RequestError struct {
	StatusCode int
	Message    string
}

// Error returns Message unchanged so it can be shown to the user as is.
func (e *RequestError) Error() string {
	return e.Message
}

// ParseError is a 2xx response whose body is not valid JSON.
type ParseError struct {
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to decode response (status %d): %v", e.StatusCode, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by a RequestError or ParseError
// anywhere in err's chain, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.StatusCode
	}
	return 0
}
