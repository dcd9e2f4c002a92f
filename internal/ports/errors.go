package ports

import (
	"errors"
	"fmt"
)

var ErrPartialFailure = errors.New("some records failed to publish")

// ConnectionError means the database could not be reached.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError covers malformed SQL and schema mismatches.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query failed: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// DataFormatError is a row whose column cannot be decoded into a DebtRecord.
type DataFormatError struct {
	Field string
	Value any
	Err   error
}

func (e *DataFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bad %s value %v: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("bad %s value %v", e.Field, e.Value)
}

func (e *DataFormatError) Unwrap() error { return e.Err }

// HTTPError is a failed call to the document API: transport failure (StatusCode 0)
// or a non-2xx response.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("http request failed: %v", e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("http status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http status %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error { return e.Err }
