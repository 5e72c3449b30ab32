package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeGeocoding represents geocoding service errors
	ErrorTypeGeocoding ErrorType = "geocoding"
	// ErrorTypeContract represents caller misuse of an API (nil document,
	// aggregator used after finalization and so on)
	ErrorTypeContract ErrorType = "contract"
)

// SearchError is the error type shared by every component of the search
type SearchError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *SearchError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *SearchError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeGeocoding:
		return true
	default:
		return false
	}
}

// New creates a new SearchError
func New(errType ErrorType, component, message string, err error) *SearchError {
	return &SearchError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *SearchError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *SearchError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, duration time.Duration) *SearchError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, component, message, nil)
}

// NewCache creates a new cache error
func NewCache(component, message string, err error) *SearchError {
	return New(ErrorTypeCache, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *SearchError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewValidation creates a new validation error
func NewValidation(component, message string) *SearchError {
	return New(ErrorTypeValidation, component, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *SearchError {
	return New(ErrorTypeConfiguration, "config", message, err)
}

// NewGeocoding creates a new geocoding error
func NewGeocoding(component, message string, err error) *SearchError {
	return New(ErrorTypeGeocoding, component, message, err)
}

// NewContract creates a new contract violation error
func NewContract(component, message string) *SearchError {
	return New(ErrorTypeContract, component, message, nil)
}

// IsType reports whether err wraps a SearchError of the given type
func IsType(err error, errType ErrorType) bool {
	var se *SearchError
	if stderrors.As(err, &se) {
		return se.Type == errType
	}
	return false
}

// IsContract reports whether err is a contract violation
func IsContract(err error) bool {
	return IsType(err, ErrorTypeContract)
}

// IsRetryable reports whether err wraps a SearchError worth retrying
func IsRetryable(err error) bool {
	var se *SearchError
	if stderrors.As(err, &se) {
		return se.IsRetryable()
	}
	return false
}

// IsRateLimit reports whether err is a rate limit error
func IsRateLimit(err error) bool {
	return IsType(err, ErrorTypeRateLimit)
}
