package bridge

import (
	"errors"
	"fmt"
)

// Kind classifies a bridge failure.
type Kind string

// Failure kinds reported by bridge operations.
const (
	// KindNotConnected: the terminal is unreachable and the reconnect
	// attempt failed.
	KindNotConnected Kind = "NOT_CONNECTED"

	// KindInvalidInput: the caller supplied something the bridge rejects
	// before talking to the terminal.
	KindInvalidInput Kind = "INVALID_INPUT"

	// KindNotFound: a referenced entity (position ticket) does not exist.
	KindNotFound Kind = "NOT_FOUND"

	// KindDataUnavailable: the terminal produced no data for a valid query.
	KindDataUnavailable Kind = "DATA_UNAVAILABLE"

	// KindSubmitFailed: a trade request produced no result structure at all.
	KindSubmitFailed Kind = "SUBMIT_FAILED"

	// KindRejected: the trade server returned a non-success code; the
	// message carries the native code and comment verbatim.
	KindRejected Kind = "REJECTED"

	// KindCapabilityUnavailable: the operation needs a trade action this
	// terminal does not support.
	KindCapabilityUnavailable Kind = "CAPABILITY_UNAVAILABLE"
)

// Error is a classified bridge failure. Message is the stable caller-facing
// reason; Retcode is set only for KindRejected.
type Error struct {
	Kind    Kind
	Message string
	Retcode uint32
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.reason())
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Err }

func (e *Error) reason() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the failure kind of err, or "" when err carries no bridge
// classification.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// Reason returns the caller-facing reason string for err, including the
// wrapped cause when one exists.
func Reason(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.reason()
	}
	return err.Error()
}
