package services

import "errors"

var (
	// ErrInvalidCredentials is the single outcome for any failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrConflict marks writes rejected because the record already exists.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks lookups that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrProductNotFound is returned for unknown product IDs.
	ErrProductNotFound = newNotFound("product")
	// ErrUserNotFound is returned for unknown user IDs.
	ErrUserNotFound = newNotFound("user")
)

// ConflictError reports which unique field was already taken.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	switch e.Field {
	case "username":
		return "username already taken"
	case "email":
		return "email already registered"
	default:
		return e.Field + " already exists"
	}
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

type notFoundError struct {
	resource string
}

func newNotFound(resource string) error {
	return &notFoundError{resource: resource}
}

func (e *notFoundError) Error() string { return e.resource + " not found" }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }
