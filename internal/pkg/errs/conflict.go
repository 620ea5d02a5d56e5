package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is the category of every ConflictError.
	ErrConflict = errors.New("conflict")

	ErrAlreadyCheckedOut    = errors.New("vehicle is already checked out")
	ErrVehicleInUse         = errors.New("vehicle is in use by an active run")
	ErrWrongHolder          = errors.New("vehicle is checked out by someone else")
	ErrVehicleNotCheckedOut = errors.New("vehicle is not checked out")
	ErrNotCheckedOut        = errors.New("no open checkout for vehicle")
	ErrOrderExists          = errors.New("order already exists")
)

// ConflictError reports that a vehicle or order is already claimed.
// Kind is one of the conflict sentinels above. Resource and ID name the
// contended object; Holder, when known, names whoever holds it.
type ConflictError struct {
	Kind     error
	Resource string
	ID       string
	Holder   string
}

func NewConflictError(kind error, resource, id string) *ConflictError {
	return &ConflictError{Kind: kind, Resource: resource, ID: id}
}

func NewConflictErrorWithHolder(kind error, resource, id, holder string) *ConflictError {
	return &ConflictError{Kind: kind, Resource: resource, ID: id, Holder: holder}
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("%s: %v: %s %s", ErrConflict, e.Kind, e.Resource, e.ID)
	if e.Holder != "" {
		msg = fmt.Sprintf("%s (held by %s)", msg, e.Holder)
	}
	return sanitize(msg)
}

func (e *ConflictError) Unwrap() []error {
	return []error{ErrConflict, e.Kind}
}
