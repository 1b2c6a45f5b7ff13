package client

import (
	"errors"
	"net/http"
)

// Error kinds surfaced by OfferClient. Match them with errors.Is.
var (
	// ErrAuth is returned when no token is available or the backend rejects it (401/403).
	ErrAuth = errors.New("authentication failed")

	// ErrValidation is returned when the backend rejects the payload (400/422).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the referenced offer does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrUpstream is returned for any other non-2xx response carrying a JSON body.
	ErrUpstream = errors.New("upstream error")

	// ErrTransport is returned on network failure or when the response body cannot be decoded.
	ErrTransport = errors.New("transport error")
)

// APIError is the normalized error of every failed call. Message is the backend's
// message when it sent one, otherwise a fallback naming the operation.
// StatusCode is zero when no response was received.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
	Err        error
}

// NewAPIError builds an APIError of the given kind. cause may be nil.
func NewAPIError(statusCode int, message string, kind, cause error) *APIError {
	return &APIError{StatusCode: statusCode, Message: message, kind: kind, Err: cause}
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap exposes both the error kind and the underlying cause.
func (e *APIError) Unwrap() []error {
	errs := []error{e.kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func kindForStatus(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrUpstream
	}
}

func transportError(code int, fallback string, cause error) *APIError {
	return NewAPIError(code, fallback, ErrTransport, cause)
}
