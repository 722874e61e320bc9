package model

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrMalformedURL     ErrorKind = "MALFORMED_URL"
	ErrMissingReference ErrorKind = "MISSING_REFERENCE"
	ErrLookupFailed     ErrorKind = "LOOKUP_FAILED"
	ErrGenerationFailed ErrorKind = "GENERATION_ERROR"
	ErrMissingClientID  ErrorKind = "MISSING_CLIENT_ID"
	ErrMissingCode      ErrorKind = "MISSING_CODE"
	ErrNetwork          ErrorKind = "NETWORK_ERROR"
	ErrDenied           ErrorKind = "DENIED"
	ErrTokenMissing     ErrorKind = "TOKEN_MISSING"
	ErrMissingToken     ErrorKind = "MISSING_TOKEN"
	ErrUpstreamFailure  ErrorKind = "UPSTREAM_FAILURE"
	ErrInvalidRequest   ErrorKind = "INVALID_REQUEST"
)

// RateLimitReached is the detail attached to lookups refused by the local github rate budget
const RateLimitReached = "RATE_LIMIT_REACHED"

// KindedError is implemented by every error of the gateway taxonomy
type KindedError interface {
	error
	ErrorKind() ErrorKind
	ErrorDetail() string
}

// ValidationError is returned by repository validation
type ValidationError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrMalformedURL:
		return "Invalid GitHub URL format"
	case ErrMissingReference:
		return "Missing repository information"
	default:
		return withDetail("Repository lookup failed", e.Detail)
	}
}

func (e *ValidationError) ErrorKind() ErrorKind { return e.Kind }
func (e *ValidationError) ErrorDetail() string  { return e.Detail }

// GenerationError wraps any failure of the generative-text service
type GenerationError struct {
	Detail string
}

func (e *GenerationError) Error() string {
	return withDetail("README generation failed", e.Detail)
}

func (e *GenerationError) ErrorKind() ErrorKind { return ErrGenerationFailed }
func (e *GenerationError) ErrorDetail() string  { return e.Detail }

type ConfigError struct {
	Kind ErrorKind
}

func (e *ConfigError) Error() string {
	return "GitHub OAuth not configured"
}

func (e *ConfigError) ErrorKind() ErrorKind { return e.Kind }
func (e *ConfigError) ErrorDetail() string  { return "" }

// OAuthError is returned by the authorization code exchange
type OAuthError struct {
	Kind   ErrorKind
	Detail string
}

func (e *OAuthError) Error() string {
	switch e.Kind {
	case ErrMissingCode:
		return "No code provided"
	case ErrNetwork:
		return withDetail("Network error", e.Detail)
	case ErrTokenMissing:
		return "Could not retrieve access token"
	default:
		return e.Detail
	}
}

func (e *OAuthError) ErrorKind() ErrorKind { return e.Kind }
func (e *OAuthError) ErrorDetail() string  { return e.Detail }

// AuthError is returned by operations acting on behalf of a github user
type AuthError struct {
	Kind   ErrorKind
	Detail string
}

func (e *AuthError) Error() string {
	if e.Kind == ErrMissingToken {
		return "No access token provided"
	}

	return withDetail("GitHub API error", e.Detail)
}

func (e *AuthError) ErrorKind() ErrorKind { return e.Kind }
func (e *AuthError) ErrorDetail() string  { return e.Detail }

func withDetail(message, detail string) string {
	if detail == "" {
		return message
	}

	return fmt.Sprintf("%s: %s", message, detail)
}

// APIError is the error part of every JSON envelope returned by the API
type APIError struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// NewAPIError converts any error to the envelope, keeping the upstream detail when known
func NewAPIError(errReason error) *APIError {
	var kinded KindedError
	if errors.As(errReason, &kinded) {
		return &APIError{
			Error:  kinded.Error(),
			Code:   string(kinded.ErrorKind()),
			Detail: kinded.ErrorDetail(),
		}
	}

	return &APIError{
		Error: errReason.Error(),
		Code:  "GENERIC_ERROR",
	}
}
