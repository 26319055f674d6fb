package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport failures talking to the marketplace
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRender represents headless browser failures (launch, navigation, load)
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeStore represents quote history errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ResolveError is a failure attached to one item resolution
type ResolveError struct {
	Type    ErrorType
	Item    string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ResolveError) Error() string {
	item := e.Item
	if item == "" {
		item = "-"
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, item, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, item, e.Message)
}

// Unwrap returns the underlying error
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a later attempt may succeed
func (e *ResolveError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeRender:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err wraps a retryable ResolveError
func IsRetryable(err error) bool {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.IsRetryable()
	}
	return false
}

// TypeOf returns the type of the first ResolveError in err's chain, or ""
func TypeOf(err error) ErrorType {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Type
	}
	return ""
}

// New creates a new ResolveError
func New(errType ErrorType, item, message string, err error) *ResolveError {
	return &ResolveError{
		Type:    errType,
		Item:    item,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(item, message string, err error) *ResolveError {
	return New(ErrorTypeNetwork, item, message, err)
}

// NewRender creates a new render error
func NewRender(item, message string, err error) *ResolveError {
	return New(ErrorTypeRender, item, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(item, message string, err error) *ResolveError {
	return New(ErrorTypeParsing, item, message, err)
}

// NewCache creates a new cache error
func NewCache(item, message string, err error) *ResolveError {
	return New(ErrorTypeCache, item, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(item, message string, err error) *ResolveError {
	return New(ErrorTypePublisher, item, message, err)
}

// NewStore creates a new store error
func NewStore(item, message string, err error) *ResolveError {
	return New(ErrorTypeStore, item, message, err)
}

// NewValidation creates a new validation error
func NewValidation(item, message string) *ResolveError {
	return New(ErrorTypeValidation, item, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ResolveError {
	return New(ErrorTypeConfiguration, "", message, err)
}
