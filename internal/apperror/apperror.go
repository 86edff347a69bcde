// Package apperror classifies the ways a call to the activities backend can fail.
//
// Three kinds of failure reach the visitor, and each is handled differently:
//   - transport failures (the request never completed) become a generic
//     "please try again" message plus a diagnostic log line
//   - rejections (the backend answered non-2xx) surface the backend's own
//     detail text verbatim when it sent one
//   - malformed bodies are logged and treated like a transport failure
//
// Nothing in this package retries; every failure leaves the page usable.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrTransport    = errors.New("transport failure")
	ErrRejected     = errors.New("rejected by backend")
	ErrMalformed    = errors.New("malformed response")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable, safe to show to the visitor ("" if none)
	Status  int    // backend HTTP status for rejections, 0 otherwise
	Cause   error  // underlying error, for logs only
}

func (e *AppError) Error() string {
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	case e.Message != "":
		return e.Message
	case e.Cause != nil:
		return fmt.Sprintf("%v: %v", e.Err, e.Cause)
	default:
		return e.Err.Error()
	}
}

func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Transport wraps a failure to complete the HTTP round trip.
func Transport(op string, cause error) *AppError {
	return &AppError{
		Err:   ErrTransport,
		Cause: fmt.Errorf("%s: %w", op, cause),
	}
}

// Rejected records a non-2xx answer. detail is the backend's "detail" field,
// empty when the backend did not send one.
func Rejected(status int, detail string) *AppError {
	return &AppError{
		Err:     ErrRejected,
		Message: detail,
		Status:  status,
	}
}

// Malformed records a response body that could not be decoded.
func Malformed(op string, cause error) *AppError {
	return &AppError{
		Err:   ErrMalformed,
		Cause: fmt.Errorf("%s: %w", op, cause),
	}
}

// Unauthorized is returned when an action needs a session and there is none.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// ValidationFailed reports a missing or unusable form field.
func ValidationFailed(message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
	}
}

// UserMessage returns the text to show the visitor for err: the AppError's own
// message when it has one and is not a transport-level failure, fallback
// otherwise.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fallback
	}
	if errors.Is(appErr, ErrTransport) || errors.Is(appErr, ErrMalformed) {
		return fallback
	}
	if appErr.Message == "" {
		return fallback
	}
	return appErr.Message
}
