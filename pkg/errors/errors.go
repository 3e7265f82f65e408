package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeConfiguration is fatal: the run cannot start
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeCollection represents a failed (query, site) cell
	ErrorTypeCollection ErrorType = "collection"
	// ErrorTypeConversion represents a failed exchange-rate lookup
	ErrorTypeConversion ErrorType = "conversion"
	// ErrorTypeParsing represents malformed page or price content
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeExpansion represents a failed language-model expansion
	ErrorTypeExpansion ErrorType = "expansion"
)

// ScoutError represents a pipeline error tagged with its origin
type ScoutError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScoutError) Error() string {
	if e.Source == "" {
		if e.Err != nil {
			return fmt.Sprintf("[%s] %s - %v", e.Type, e.Message, e.Err)
		}
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *ScoutError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth one more attempt
func (e *ScoutError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeCollection:
		return true
	default:
		return false
	}
}

// New creates a new ScoutError
func New(errType ErrorType, source, message string, err error) *ScoutError {
	return &ScoutError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScoutError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewCollection creates a new collection error for one cell
func NewCollection(source, message string, err error) *ScoutError {
	return New(ErrorTypeCollection, source, message, err)
}

// NewConversion creates a new conversion error for one currency
func NewConversion(currency, message string, err error) *ScoutError {
	return New(ErrorTypeConversion, currency, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *ScoutError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *ScoutError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *ScoutError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewExpansion creates a new query expansion error
func NewExpansion(message string, err error) *ScoutError {
	return New(ErrorTypeExpansion, "", message, err)
}

// Is reports whether any error in err's chain is a ScoutError of the given type
func Is(err error, errType ErrorType) bool {
	for err != nil {
		var se *ScoutError
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Type == errType {
			return true
		}
		err = se.Err
	}
	return false
}
