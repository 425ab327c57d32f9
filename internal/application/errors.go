package application

import "errors"

var (
	// ErrUnauthorized is returned when a mutation is attempted while the
	// guest aggregate is current.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when signup targets an identifier that
	// is already registered.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when login credentials do not match
	// a stored account.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrNotStarted is returned when the session manager is used before
	// Start has loaded the persisted state.
	ErrNotStarted = errors.New("application: session manager not started")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
