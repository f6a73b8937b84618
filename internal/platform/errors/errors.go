package errors

import (
	stderrors "errors"

	"github.com/hashicorp/go-multierror"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context for templating
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata for i18n templating.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// GetCode returns the code of the first domain error in err's chain.
func GetCode(err error) Code {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// FieldError reports one invalid input field.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Field builds a FieldError.
func Field(path, message string) *FieldError {
	return &FieldError{Path: path, Message: message}
}

// Invalid wraps accumulated field errors in a domain error with code. It
// returns nil when merr holds no errors.
func Invalid(code Code, message string, merr *multierror.Error) error {
	if err := merr.ErrorOrNil(); err != nil {
		return Wrap(code, message, err)
	}
	return nil
}

// FieldErrors flattens every FieldError reachable from err.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	var out []FieldError
	var merr *multierror.Error
	if stderrors.As(err, &merr) {
		for _, item := range merr.Errors {
			out = append(out, FieldErrors(item)...)
		}
		return out
	}
	var field *FieldError
	if stderrors.As(err, &field) {
		return []FieldError{*field}
	}
	return nil
}
