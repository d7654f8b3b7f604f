package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of failure categories produced by the pipeline.
// Every stage translates its internal failure into exactly one kind at the
// point where the failure is detected.
type ErrorKind string

const (
	KindInvalidInput         ErrorKind = "INVALID_INPUT"
	KindFetchTimeout         ErrorKind = "FETCH_TIMEOUT"
	KindBotProtected         ErrorKind = "BOT_PROTECTED"
	KindNoContentFound       ErrorKind = "NO_CONTENT_FOUND"
	KindConfigurationMissing ErrorKind = "CONFIGURATION_MISSING"
	KindModelAuthFailure     ErrorKind = "MODEL_AUTH_FAILURE"
	KindModelRateLimited     ErrorKind = "MODEL_RATE_LIMITED"
	KindModelUnavailable     ErrorKind = "MODEL_UNAVAILABLE"
	KindInvalidJSON          ErrorKind = "INVALID_JSON"
	KindSchemaMismatch       ErrorKind = "SCHEMA_MISMATCH"
	KindInternal             ErrorKind = "INTERNAL_ERROR"

	// KindRateLimited is this server throttling a client, as opposed to
	// KindModelRateLimited which reports the upstream model's limit.
	KindRateLimited ErrorKind = "RATE_LIMITED"
)

// HTTPStatus maps an error kind to the status code returned by the API.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindInvalidInput, KindFetchTimeout, KindBotProtected, KindNoContentFound:
		return http.StatusBadRequest // 400
	case KindConfigurationMissing:
		return http.StatusServiceUnavailable // 503
	case KindModelRateLimited, KindRateLimited:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}

// AnalysisError is the single error type surfaced by every pipeline stage.
// It implements the error interface and supports wrapping via Unwrap.
type AnalysisError struct {
	Kind    ErrorKind
	Message string

	// Details is optional user-facing context (e.g. the elapsed timeout).
	Details string

	// RawResponse holds a bounded prefix of malformed model output.
	RawResponse string

	Err error // wrapped original error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewError creates a new AnalysisError.
func NewError(kind ErrorKind, message string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: message, Err: err}
}

// WithDetails sets Details and returns the receiver for chaining.
func (e *AnalysisError) WithDetails(details string) *AnalysisError {
	e.Details = details
	return e
}

// WithRawResponse sets RawResponse and returns the receiver for chaining.
func (e *AnalysisError) WithRawResponse(raw string) *AnalysisError {
	e.RawResponse = raw
	return e
}

// AsAnalysisError extracts an AnalysisError from err's chain. Errors that
// did not originate in the pipeline are reported as KindInternal.
func AsAnalysisError(err error) *AnalysisError {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae
	}
	return NewError(KindInternal, "unexpected server error", err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Kind == kind
}

// ErrorResponse is the JSON error body returned by every endpoint.
type ErrorResponse struct {
	Error       string    `json:"error"`
	Code        ErrorKind `json:"code"`
	Details     string    `json:"details,omitempty"`
	RawResponse string    `json:"rawResponse,omitempty"`
}

// ToResponse converts an internal error to its API-facing body.
func (e *AnalysisError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:       e.Message,
		Code:        e.Kind,
		Details:     e.Details,
		RawResponse: e.RawResponse,
	}
}
