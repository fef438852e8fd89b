package domain

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a pipeline failure. The class determines retry
// behavior and the API response code.
type ErrorClass string

const (
	// ErrClassTransient is a network/provider hiccup; retry with backoff.
	ErrClassTransient ErrorClass = "transient"
	// ErrClassQuota is a provider rate/budget limit; retry with a longer
	// backoff, distinct from generic transient failures.
	ErrClassQuota ErrorClass = "quota"
	// ErrClassPermanent is unusable source content; terminal, no retry.
	ErrClassPermanent ErrorClass = "permanent"
	// ErrClassValidation is malformed caller input; rejected immediately.
	ErrClassValidation ErrorClass = "validation"
	// ErrClassInsufficientContext means generation was requested before
	// enough indexed material exists.
	ErrClassInsufficientContext ErrorClass = "insufficient_context"
	// ErrClassNotFound means the referenced video/channel is unknown.
	ErrClassNotFound ErrorClass = "not_found"
)

// PipelineError carries an error class and a human-readable reason through
// the stage boundaries. Failed videos always record the reason string.
type PipelineError struct {
	Class  ErrorClass
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Class, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Reason)
}

// Unwrap returns the wrapped error.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable upstream failure.
func Transient(reason string, err error) *PipelineError {
	return &PipelineError{Class: ErrClassTransient, Reason: reason, Err: err}
}

// Quota wraps err as a provider quota/rate-limit failure.
func Quota(reason string, err error) *PipelineError {
	return &PipelineError{Class: ErrClassQuota, Reason: reason, Err: err}
}

// Permanent wraps err as a terminal content failure.
func Permanent(reason string, err error) *PipelineError {
	return &PipelineError{Class: ErrClassPermanent, Reason: reason, Err: err}
}

// Validationf reports malformed caller input.
func Validationf(format string, args ...interface{}) *PipelineError {
	return &PipelineError{Class: ErrClassValidation, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundf reports an unknown video or channel.
func NotFoundf(format string, args ...interface{}) *PipelineError {
	return &PipelineError{Class: ErrClassNotFound, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientContextf reports that generation was requested for a channel
// without enough indexed material.
func InsufficientContextf(format string, args ...interface{}) *PipelineError {
	return &PipelineError{Class: ErrClassInsufficientContext, Reason: fmt.Sprintf(format, args...)}
}

// Classify returns the error class of err. Unclassified errors are treated as
// transient so that unexpected failures are retried rather than marked
// terminal.
func Classify(err error) ErrorClass {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Class
	}
	return ErrClassTransient
}

// Reason returns the recorded human-readable reason for err, falling back to
// the error message itself.
func Reason(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) && pe.Reason != "" {
		return pe.Reason
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// IsClass reports whether err carries the given class.
func IsClass(err error, class ErrorClass) bool {
	return Classify(err) == class
}

// Retryable reports whether err should be retried by a stage retry policy.
func Retryable(err error) bool {
	switch Classify(err) {
	case ErrClassTransient, ErrClassQuota:
		return true
	}
	return false
}
