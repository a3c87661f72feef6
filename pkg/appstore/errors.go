package appstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Checker-Finance/appstore/internal/httpclient"
)

var (
	// ErrRemoteRejection matches responses with status >= 400.
	ErrRemoteRejection = httpclient.ErrRemoteRejection
	// ErrTransport matches failures to complete the network exchange.
	ErrTransport = httpclient.ErrTransport
	// ErrReauthentication matches a failed re-authentication during a retry.
	ErrReauthentication = errors.New("re-authentication failed")
	// ErrMissingToken is returned when a successful auth response carries no token.
	ErrMissingToken = errors.New("auth response missing token")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid appstore config")
	// ErrNonObjectBody matches a 2xx response whose JSON body is an array or scalar.
	ErrNonObjectBody = errors.New("response body is not a JSON object")
)

type (
	// StatusError carries the rejected status and the raw response body.
	StatusError = httpclient.StatusError
	// TransportError wraps the underlying network failure.
	TransportError = httpclient.TransportError
)

// ReauthError is returned when a rejected call could not be re-authenticated.
// It matches ErrReauthentication and both underlying failures via errors.Is.
type ReauthError struct {
	Original error
	Err      error
}

func (e *ReauthError) Error() string {
	return fmt.Sprintf("%s: %v (after: %v)", ErrReauthentication, e.Err, e.Original)
}

func (e *ReauthError) Unwrap() []error { return []error{e.Err, e.Original} }

func (e *ReauthError) Is(target error) bool {
	return target == ErrReauthentication
}

// BodyError is returned for a successful response whose body is valid JSON
// but not an object. Body holds the JSON exactly as received. It is never retried.
type BodyError struct {
	Endpoint string
	Body     json.RawMessage
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Endpoint, ErrNonObjectBody)
}

func (e *BodyError) Is(target error) bool {
	return target == ErrNonObjectBody
}

// IsRemoteRejection reports whether err came from a status >= 400 response.
func IsRemoteRejection(err error) bool {
	return errors.Is(err, ErrRemoteRejection)
}

// IsTransport reports whether err is a failure to complete the exchange.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
