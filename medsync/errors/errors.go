package errors

import (
	goerrors "errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// RequestTimeoutError indicates the per-call deadline fired before the
// server responded. Recoverable by retry.
type RequestTimeoutError struct {
	Timeout time.Duration
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("Request timeout after %dms", e.Timeout.Milliseconds())
}

// OperationOutcomeError is a protocol-level rejection: the server returned
// an OperationOutcome payload. Blind retries will not help; the request
// itself must change.
type OperationOutcomeError struct {
	Messages   []string // issue diagnostics, source order
	StatusCode int
}

func (e *OperationOutcomeError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// ResourceType identifies the error payload's FHIR discriminator.
func (e *OperationOutcomeError) ResourceType() string {
	return "OperationOutcome"
}

// UnexpectedStatusCodeError is a non-2xx response whose body was not a
// parseable OperationOutcome.
type UnexpectedStatusCodeError struct {
	StatusCode int
	Status     string // status text, e.g. "Internal Server Error"
}

func (e *UnexpectedStatusCodeError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// IsConnectivity reports whether err represents a connectivity-class
// failure (timeout or transport), as opposed to an explicit server
// rejection. The offline layer queues work only on connectivity failures.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}

	var timeout *RequestTimeoutError
	if goerrors.As(err, &timeout) {
		return true
	}

	var outcome *OperationOutcomeError
	if goerrors.As(err, &outcome) {
		return false
	}
	var status *UnexpectedStatusCodeError
	if goerrors.As(err, &status) {
		return false
	}

	// DNS failures, connection refused, resets and the like surface from
	// net/http as *url.Error wrapping a net.Error.
	var urlErr *url.Error
	if goerrors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return goerrors.As(err, &netErr)
}
