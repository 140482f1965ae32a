package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// Severity classifies how a model call failed.
type Severity int

const (
	// SeverityTransient marks failures worth retrying: timeouts, network
	// errors, rate limits, server errors.
	SeverityTransient Severity = iota
	// SeverityFatal marks failures retrying cannot help: bad credentials,
	// malformed requests, unknown providers.
	SeverityFatal
)

// CallError wraps a model-call failure with its retry classification. For
// HTTP failures StatusCode carries the upstream status.
type CallError struct {
	Severity   Severity
	StatusCode int
	err        error
}

func (e *CallError) Error() string { return e.err.Error() }
func (e *CallError) Unwrap() error { return e.err }

func transient(err error) error {
	return &CallError{Severity: SeverityTransient, err: err}
}

func fatal(err error) error {
	return &CallError{Severity: SeverityFatal, err: err}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Severity == SeverityTransient
}

// IsFatal reports whether retrying err is pointless. Unclassified errors
// are neither transient nor fatal; the retry loop treats them as retryable
// but keeps trying fallbacks.
func IsFatal(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Severity == SeverityFatal
}

// classifyHTTPStatus maps a non-200 model API response to a CallError.
// Rate limits and server errors are transient; client errors are fatal.
func classifyHTTPStatus(statusCode int, body []byte) error {
	detail := string(body)
	if len(detail) > 200 {
		detail = detail[:200] + "..."
	}

	err := fmt.Errorf("model API error (status %d): %s", statusCode, detail)

	severity := SeverityFatal
	if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
		severity = SeverityTransient
	}
	return &CallError{Severity: severity, StatusCode: statusCode, err: err}
}
