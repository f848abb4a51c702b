package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aws/smithy-go"
)

const unknownError = "Unknown error"

// ValidationError is a request that was understood but not acceptable.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// MalformedInputError is a body that could not be decoded.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string { return e.Err.Error() }
func (e *MalformedInputError) Unwrap() error { return e.Err }
func (e *MalformedInputError) StatusCode() int {
	return http.StatusBadRequest
}

// ProviderError is any failure while building or sending the message.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }
func (e *ProviderError) StatusCode() int {
	return http.StatusInternalServerError
}

type statusCoder interface {
	StatusCode() int
}

// statusOf maps an error to its response status; untyped errors are 500.
func statusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// errorMessage prefers the message reported by the aws api over the wrapped
// error chain.
func errorMessage(err error) string {
	if err == nil {
		return unknownError
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorMessage() != "" {
		return apiErr.ErrorMessage()
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return unknownError
}
