package engine

import (
	"errors"
	"fmt"
)

// BatchError describes why a call or flush failed.
//
// Failures include:
//   - Transport: the batch client returned an error
//   - Client panic: the batch client panicked and was recovered
//   - Missing result: a dispatched record had no verdict in the response
//   - Closed: the dispatcher no longer accepts actions
//   - Invalid action: the action failed validation before queueing
type BatchError struct {
	// Code identifies the error category.
	Code BatchErrorCode

	// Message is a human-readable description.
	Message string

	// BatchID identifies the affected batch, when one was assigned.
	BatchID string

	// Err is the underlying cause, if any.
	Err error
}

// BatchErrorCode categorizes batch errors.
type BatchErrorCode string

const (
	// ErrCodeTransport indicates the batch request did not complete.
	ErrCodeTransport BatchErrorCode = "TRANSPORT_FAILURE"

	// ErrCodeClientPanic indicates the batch client panicked.
	ErrCodeClientPanic BatchErrorCode = "CLIENT_PANIC"

	// ErrCodeMissingResult indicates a dispatched record had no result.
	ErrCodeMissingResult BatchErrorCode = "MISSING_RESULT"

	// ErrCodeClosed indicates the dispatcher was closed.
	ErrCodeClosed BatchErrorCode = "DISPATCHER_CLOSED"

	// ErrCodeInvalidAction indicates the action failed validation.
	ErrCodeInvalidAction BatchErrorCode = "INVALID_ACTION"
)

// ErrClosed is reported for actions enqueued after Close.
var ErrClosed = &BatchError{Code: ErrCodeClosed, Message: "dispatcher closed"}

// Error implements the error interface.
func (e *BatchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.BatchID != "" {
		msg += fmt.Sprintf(" (batch=%s)", e.BatchID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// Is matches any BatchError with the same code, so errors.Is(err, ErrClosed)
// works for copies.
func (e *BatchError) Is(target error) bool {
	t, ok := target.(*BatchError)
	return ok && t.Code == e.Code
}

// IsTransportError returns true if err is a transport failure or a
// recovered client panic. Uses errors.As to handle wrapped errors.
func IsTransportError(err error) bool {
	var be *BatchError
	if errors.As(err, &be) {
		return be.Code == ErrCodeTransport || be.Code == ErrCodeClientPanic
	}
	return false
}

// IsClosedError returns true if err reports a closed dispatcher.
func IsClosedError(err error) bool {
	var be *BatchError
	if errors.As(err, &be) {
		return be.Code == ErrCodeClosed
	}
	return false
}

// NewTransportError wraps a batch client failure.
func NewTransportError(batchID string, err error) *BatchError {
	return &BatchError{
		Code:    ErrCodeTransport,
		Message: "batch request failed",
		BatchID: batchID,
		Err:     err,
	}
}

// NewPanicError wraps a value recovered from a panicking batch client.
func NewPanicError(batchID string, recovered any) *BatchError {
	return &BatchError{
		Code:    ErrCodeClientPanic,
		Message: fmt.Sprintf("batch client panicked: %v", recovered),
		BatchID: batchID,
	}
}

// NewMissingResultError reports a dispatched record without a verdict.
func NewMissingResultError(batchID, action string) *BatchError {
	return &BatchError{
		Code:    ErrCodeMissingResult,
		Message: "missing result for " + action,
		BatchID: batchID,
	}
}

// NewInvalidActionError wraps an action validation failure.
func NewInvalidActionError(err error) *BatchError {
	return &BatchError{
		Code:    ErrCodeInvalidAction,
		Message: "invalid action",
		Err:     err,
	}
}
