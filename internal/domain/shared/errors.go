package shared

import "errors"

// ErrorKind classifies an error into the taxonomy the HTTP layer maps to status codes
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// String returns the kind name
func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets wrapped copies with a custom message match the sentinels below.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error carrying a more specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message, Kind: e.Kind}
}

// NewDomainError creates a validation error. Domain constructors use it to
// reject input, so it is classified as a bad request.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindBadRequest,
	}
}

// NewKindError creates a domain error with an explicit kind
func NewKindError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewKindError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewKindError(KindConflict, "ALREADY_EXISTS", "Resource already exists")
	ErrConflict      = NewKindError(KindConflict, "CONFLICT", "Resource is referenced by another record")
	ErrInvalidInput  = NewKindError(KindBadRequest, "INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized  = NewKindError(KindUnauthorized, "UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden     = NewKindError(KindForbidden, "FORBIDDEN", "Access to this resource is forbidden")
	ErrInternal      = NewKindError(KindInternal, "INTERNAL_ERROR", "An unexpected error occurred")
)

// KindOf returns the kind of err. Errors that carry no DomainError are internal.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
