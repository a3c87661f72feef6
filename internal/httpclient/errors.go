package httpclient

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteRejection matches any response with status >= 400.
	ErrRemoteRejection = errors.New("bad response from server")
	// ErrTransport matches failures to complete the HTTP exchange at all.
	ErrTransport = errors.New("transport failure")
)

// StatusError is returned when the remote service answers with status >= 400.
// Body is kept verbatim; callers must not assume it is structured.
type StatusError struct {
	Endpoint string
	Status   int
	Body     []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, ErrRemoteRejection, e.Status)
}

// Is reports ErrRemoteRejection as a match so callers can use errors.Is.
func (e *StatusError) Is(target error) bool {
	return target == ErrRemoteRejection
}

// TransportError wraps DNS, connection, timeout and cancellation failures.
type TransportError struct {
	Endpoint string
	URL      string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Endpoint, ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports ErrTransport as a match so callers can use errors.Is.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
