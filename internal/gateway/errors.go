package gateway

import (
	"errors"
	"fmt"
)

// The error taxonomy all remote calls resolve to. Downstream logic branches
// on these types, never on response shapes or message strings.
//
//   - ConnectivityError: no response was received at all. Always a candidate
//     for local-fallback handling.
//   - ApplicationError: the collaborator answered with an error status.
//     Surfaced unchanged; never silently degraded.
//   - ValidationError: the response (or a stored payload) was malformed.

type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: service unreachable: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

type ApplicationError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *ApplicationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
}

type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: malformed payload: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsConnectivity reports whether err is (or wraps) a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}
