package plasmic

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed render call
type ErrorKind string

const (
	KindRemoteAPI         ErrorKind = "remote_api"
	KindNetwork           ErrorKind = "network"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindUnknown           ErrorKind = "unknown"
)

// APIError is returned when the Codegen API answers with a non-2xx status
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Plasmic API error: %d %s", e.StatusCode, e.Body)
}

// NetworkError is returned when the request could not be completed
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when the body is not JSON or has no html field
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed Plasmic response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed Plasmic response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// KindOf reports the ErrorKind of err
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	var netErr *NetworkError
	var malformedErr *MalformedResponseError
	switch {
	case errors.As(err, &apiErr):
		return KindRemoteAPI
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &malformedErr):
		return KindMalformedResponse
	default:
		return KindUnknown
	}
}
