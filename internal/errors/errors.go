// Package errors defines custom error types for the catalog backend and the import pipeline.
// CatalogError provides context-aware error reporting with type classification.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/amaumene/gocatalog/internal/constants"
)

// Sentinels matched with errors.Is through CatalogError.Is.
var (
	ErrNotFound       = stderrors.New("not found")
	ErrConflict       = stderrors.New("conflict")
	ErrValidation     = stderrors.New("validation failed")
	ErrUnauthorized   = stderrors.New("unauthorized")
	ErrSourceNotFound = stderrors.New("source record not found")
)

// Error type constants
const (
	ErrorTypeConfigurationInvalid = "CONFIGURATION_INVALID"
	ErrorTypeNotFound             = "NOT_FOUND"
	ErrorTypeConflict             = "CONFLICT"
	ErrorTypeValidation           = "VALIDATION"
	ErrorTypeUnauthorized         = "UNAUTHORIZED"
	ErrorTypeSourceNotFound       = "SOURCE_NOT_FOUND"
	ErrorTypeTransport            = "TRANSPORT"
)

var sentinels = map[string]error{
	ErrorTypeNotFound:       ErrNotFound,
	ErrorTypeConflict:       ErrConflict,
	ErrorTypeValidation:     ErrValidation,
	ErrorTypeUnauthorized:   ErrUnauthorized,
	ErrorTypeSourceNotFound: ErrSourceNotFound,
}

// CatalogError represents a classified failure. Field names the offending attribute, if any.
type CatalogError struct {
	Type    string
	Message string
	Field   string
	Cause   error
}

func (e *CatalogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrConflict) match a CatalogError of type CONFLICT.
func (e *CatalogError) Is(target error) bool {
	s, ok := sentinels[e.Type]
	return ok && s == target
}

// NewCatalogError creates a new CatalogError
func NewCatalogError(errorType, message string, cause error) *CatalogError {
	return &CatalogError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigurationError creates a configuration-related error
func NewConfigurationError(message string, cause error) *CatalogError {
	return NewCatalogError(ErrorTypeConfigurationInvalid, message, cause)
}

// NewNotFoundError creates a missing-document error
func NewNotFoundError(collection, documentID string) *CatalogError {
	return NewCatalogError(ErrorTypeNotFound, fmt.Sprintf("%s %s not found", collection, documentID), nil)
}

// NewConflictError reports a unique constraint violation on field
func NewConflictError(collection, field, value string) *CatalogError {
	e := NewCatalogError(ErrorTypeConflict, fmt.Sprintf("%s.%s must be unique (%q already exists)", collection, field, value), nil)
	e.Field = field
	return e
}

// NewValidationError reports an invalid attribute
func NewValidationError(field, message string) *CatalogError {
	e := NewCatalogError(ErrorTypeValidation, message, nil)
	e.Field = field
	return e
}

// NewSourceNotFoundError reports an external id without a record on the source
func NewSourceNotFoundError(kind string, id int) *CatalogError {
	return NewCatalogError(ErrorTypeSourceNotFound, fmt.Sprintf("%s %d not found on source", kind, id), nil)
}

// NewTransportError wraps a network failure or unexpected reply
func NewTransportError(message string, cause error) *CatalogError {
	return NewCatalogError(ErrorTypeTransport, message, cause)
}

// StatusError is a non-2xx HTTP reply, with as much of the body as was read.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > constants.MaxErrorBodyLength {
		body = body[:constants.MaxErrorBodyLength] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d - %s", e.Method, e.URL, e.StatusCode, body)
}

// FieldOf returns the Field of the first CatalogError in err's chain.
func FieldOf(err error) string {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Field
	}
	return ""
}

// TypeOf returns the Type of the first CatalogError in err's chain, or "".
func TypeOf(err error) string {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Type
	}
	return ""
}

// IsConflict reports whether err is a unique constraint violation.
func IsConflict(err error) bool {
	return stderrors.Is(err, ErrConflict)
}

// IsNotFound reports whether err is a missing catalog document.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

// IsSourceNotFound reports whether err is an id without a record on the source.
func IsSourceNotFound(err error) bool {
	return stderrors.Is(err, ErrSourceNotFound)
}
