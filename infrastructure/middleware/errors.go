// Package middleware provides HTTP middleware for the API surface: request
// tagging, authentication, authorization, rate limiting, error mapping.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is a stable, client-facing error identifier.
type ErrorCode string

const (
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeUpstreamUnavail   ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeVaultInconsistent ErrorCode = "VAULT_INCONSISTENCY"
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeBusy              ErrorCode = "BUSY"
)

// ServiceError is the single error currency crossing the HTTP boundary (see
// spec §7). Lower layers return their own sentinel/wrapped errors; handlers
// translate them to a ServiceError exactly once, at the boundary.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a field for the JSON error body's "details" map.
func (e *ServiceError) WithDetails(key string, value any) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewServiceError constructs a ServiceError without a wrapped cause.
func NewServiceError(code ErrorCode, message string, httpStatus int) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// WrapServiceError constructs a ServiceError wrapping a lower-layer cause.
func WrapServiceError(code ErrorCode, message string, httpStatus int, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// Constructors for the taxonomy in spec §7.
func ErrUnauthorized(message string) *ServiceError {
	return NewServiceError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func ErrForbidden(message string) *ServiceError {
	return NewServiceError(ErrCodeForbidden, message, http.StatusForbidden)
}

func ErrValidation(message string) *ServiceError {
	return NewServiceError(ErrCodeValidation, message, http.StatusUnprocessableEntity)
}

func ErrNotFound(message string) *ServiceError {
	return NewServiceError(ErrCodeNotFound, message, http.StatusNotFound)
}

func ErrConflict(message string) *ServiceError {
	return NewServiceError(ErrCodeConflict, message, http.StatusConflict)
}

func ErrUpstreamUnavailable(message string, err error) *ServiceError {
	return WrapServiceError(ErrCodeUpstreamUnavail, message, http.StatusBadGateway, err)
}

func ErrVaultInconsistency(message string, err error) *ServiceError {
	return WrapServiceError(ErrCodeVaultInconsistent, message, http.StatusInternalServerError, err)
}

func ErrRateLimited(retryAfterSeconds int) *ServiceError {
	return NewServiceError(ErrCodeRateLimited, "too many requests", http.StatusTooManyRequests).
		WithDetails("retry_after_seconds", retryAfterSeconds)
}

func ErrBusy(message string) *ServiceError {
	return NewServiceError(ErrCodeBusy, message, http.StatusServiceUnavailable)
}

func ErrInternal(message string, err error) *ServiceError {
	return WrapServiceError(ErrCodeInternal, message, http.StatusInternalServerError, err)
}

// AsServiceError unwraps err into a *ServiceError, or maps it to a generic
// 500 if the chain contains no ServiceError. Handlers call this exactly
// once, at the HTTP boundary.
func AsServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return ErrInternal("internal server error", err)
}
