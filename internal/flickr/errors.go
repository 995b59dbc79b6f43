package flickr

import (
	"fmt"
)

// TransportError means the server could not be reached or did not answer
// successfully (dial, DNS, timeout, non-2xx status, truncated body)
type TransportError struct {
	Op         string // "search" or "download"
	URL        string
	StatusCode int  // 0 when no response was received
	Timeout    bool // request deadline exceeded
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("flickr %s: timed out: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("flickr %s: unexpected status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("flickr %s: %v", e.Op, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError means the server answered but the body is not a JSON object
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "flickr: invalid response body: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError means the JSON document lacks an expected field or has it with
// the wrong type
type SchemaError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("flickr: unable to get photo details from server: %s: %s", e.Field, e.Message)
	}
	return "flickr: unable to get photo details from server: " + e.Field
}

// NoResultsError means the server reported zero photos for the chosen page
type NoResultsError struct {
	Page int
}

func (e *NoResultsError) Error() string {
	return "flickr: no photos found at this location"
}

// ItemError is a failure scoped to one photo of a batch
type ItemError struct {
	Index  int
	Reason string
	Err    error
}

func (e *ItemError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("photo %d: %s: %v", e.Index, e.Reason, e.Err)
	}
	return fmt.Sprintf("photo %d: %s", e.Index, e.Reason)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
