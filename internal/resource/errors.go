package resource

import "github.com/invoicer/backend/internal/domain/shared"

// Errors raised while resolving and checking requests
var (
	ErrMissingID        = shared.NewKindError(shared.KindBadRequest, "MISSING_ID", "Identifier is missing from the path")
	ErrInvalidID        = shared.NewKindError(shared.KindBadRequest, "INVALID_ID", "Identifier is not a valid UUID")
	ErrInvalidReference = shared.NewKindError(shared.KindBadRequest, "INVALID_REFERENCE", "Referenced resource does not exist")
	ErrInvalidSort      = shared.NewKindError(shared.KindBadRequest, "INVALID_SORT", "Sorting by this column is not allowed")
	ErrNotOwned         = shared.NewKindError(shared.KindForbidden, "NOT_OWNER", "Resource belongs to another team")
	ErrUnsupported      = shared.NewKindError(shared.KindNotFound, "UNSUPPORTED_OPERATION", "Operation is not available for this resource")
)

// BindError reports a request payload that could not be decoded or validated
type BindError struct {
	Err error
}

func (e *BindError) Error() string {
	return "invalid request payload: " + e.Err.Error()
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// As lets callers treat a BindError as a bad request DomainError
func (e *BindError) As(target any) bool {
	if t, ok := target.(**shared.DomainError); ok {
		*t = shared.ErrInvalidInput.WithMessage(e.Error())
		return true
	}
	return false
}
