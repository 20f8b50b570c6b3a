// Package starerrors defines the typed error kinds surfaced by the Starbase
// tasking pipeline. Hard errors propagate to the invoker (the Lambda-style
// runtime or the CLI); soft errors are logged locally and never wrapped here.
package starerrors

import "fmt"

// Kind identifies the category of a Starbase error.
type Kind string

const (
	// BadConfiguration is raised when configuration is missing or fails schema validation.
	BadConfiguration Kind = "BAD_CONFIGURATION"
	// UnknownAccountIndex is raised when the configured account index plugin was not discovered.
	UnknownAccountIndex Kind = "UNKNOWN_ACCOUNT_INDEX"
	// NoShipPlugin is raised when a fan-out request names a worker the registry does not know.
	NoShipPlugin Kind = "NO_SHIP_PLUGIN"
	// InvalidBucket is raised when a store-change event references a bucket other than the configured template bucket.
	InvalidBucket Kind = "INVALID_BUCKET"
	// TemplateFetch is raised when a template object is missing, inaccessible, or malformed.
	TemplateFetch Kind = "TEMPLATE_FETCH"
	// PayloadValidation is raised when a template fails its worker's payload schema.
	PayloadValidation Kind = "PAYLOAD_VALIDATION"
	// InvalidTemplateForFanout is raised when a payload's shape does not match the worker's declared fan-out strategy.
	InvalidTemplateForFanout Kind = "INVALID_TEMPLATE_FOR_FANOUT"
	// AccountIndexerProcess is raised by the (out-of-scope) generator on aggregated enrichment failure.
	AccountIndexerProcess Kind = "ACCOUNT_INDEXER_PROCESS"
	// SinkError is raised when the alert sink fails to deliver a problem-priority message.
	SinkError Kind = "SINK_ERROR"
	// EnqueueFailure is raised when a batch enqueue call to the fan-out or invocation queue fails.
	EnqueueFailure Kind = "ENQUEUE_FAILURE"
)

// retryable reports whether the runtime should let the queue redeliver rather
// than treat the failure as permanent.
var retryable = map[Kind]bool{
	BadConfiguration:         false,
	UnknownAccountIndex:      false,
	NoShipPlugin:             false,
	InvalidBucket:            false,
	TemplateFetch:            true,
	PayloadValidation:        false,
	InvalidTemplateForFanout: false,
	AccountIndexerProcess:    true,
	SinkError:                true,
	EnqueueFailure:           true,
}

// Error is a typed Starbase error that wraps an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the invoking runtime should allow queue redelivery.
func (e *Error) Retryable() bool {
	return retryable[e.Kind]
}

// New creates an Error of the given kind with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause as an Error of the given kind. Returns nil if cause is nil.
func Wrap(kind Kind, cause error, message string) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Wrapf wraps cause as an Error of the given kind with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...interface{}) *Error {
	return Wrap(kind, cause, fmt.Sprintf(format, args...))
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if se, ok := err.(*Error); ok {
		e = se
	} else {
		return false
	}
	return e.Kind == kind
}
