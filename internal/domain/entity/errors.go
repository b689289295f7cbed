package entity

import (
	"errors"
	"fmt"
)

var ErrSessionNotFound = errors.New("session not found")

// ConfigurationError reports a missing or unusable setting, e.g. an absent API key.
type ConfigurationError struct {
	Key string
	Msg string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Msg)
}

// TransportError wraps a failed network call to the planning service.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to send request to planning service: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError is a non-success answer from the planning service. Body is
// the response body exactly as received.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("planning service error (%d): %s", e.StatusCode, e.Body)
}

type EmptyResponseError struct {
	Reason string
}

func (e *EmptyResponseError) Error() string {
	return "empty response from planning service: " + e.Reason
}

// MalformedPlanError keeps the raw model text and the text that was fed to
// the JSON decoder after fence stripping.
type MalformedPlanError struct {
	Raw     string
	Cleaned string
	Err     error
}

func (e *MalformedPlanError) Error() string {
	return fmt.Sprintf("failed to parse browser plan: %v. Raw response: %s\nCleaned JSON: %s", e.Err, e.Raw, e.Cleaned)
}

func (e *MalformedPlanError) Unwrap() error { return e.Err }

type InvalidPlanError struct {
	Reason string
}

func (e *InvalidPlanError) Error() string {
	return "invalid browser plan: " + e.Reason
}

// ValidationError rejects a browser command before anything is executed.
type ValidationError struct {
	Command string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("command must start with '%s' but got: %s", CommandPrefix, e.Command)
}

type ExecutionError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("qutebrowser command %q failed: %v: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("qutebrowser command %q failed: %v", e.Command, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

type CaptureError struct {
	Msg string
	Err error
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("screenshot failed: %s: %v", e.Msg, e.Err)
	}
	return "screenshot failed: " + e.Msg
}

func (e *CaptureError) Unwrap() error { return e.Err }
