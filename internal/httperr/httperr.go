package httperr

import (
	"errors"
	"net/http"
)

// Error is the only error type that crosses the HTTP boundary. Everything
// else is mapped to a 500 by From.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Validation is a schema failure on an inbound request body.
func Validation(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// InvalidURL covers fetcher-level URL rejections, including SSRF denials.
func InvalidURL(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func RateLimited() *Error {
	return New(http.StatusTooManyRequests, "Too Many Requests, please try again later")
}

func UpstreamAuth() *Error {
	return New(http.StatusUnauthorized, "upstream authentication failed")
}

func UpstreamSearch(message string) *Error {
	return New(http.StatusBadGateway, message)
}

func UpstreamLLM(message string) *Error {
	return New(http.StatusBadGateway, message)
}

func UpstreamFetch(message string) *Error {
	return New(http.StatusBadGateway, message)
}

func UnsupportedMediaType(message string) *Error {
	return New(http.StatusUnsupportedMediaType, message)
}

func PayloadTooLarge(message string) *Error {
	return New(http.StatusRequestEntityTooLarge, message)
}

func Misconfigured(message string) *Error {
	return New(http.StatusServiceUnavailable, message)
}

func NoModelAvailable() *Error {
	return New(http.StatusServiceUnavailable, "no completion model available")
}

func Internal() *Error {
	return New(http.StatusInternalServerError, "Internal Server Error")
}

// From extracts a typed Error or classifies err as a 500.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal()
}
