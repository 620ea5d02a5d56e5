package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidState is the category of every StateError.
	ErrInvalidState = errors.New("invalid state")

	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidOrderState  = errors.New("orders are not in the required status")
	ErrOrdersNotDelivered = errors.New("orders are not delivered")
	ErrRunNotActive       = errors.New("run is not active")
)

// StateError reports entities that are not in the status an operation needs.
//
// IDs lists the offending entities. Current maps each offending id to the
// status it was found in, Required lists the statuses that would have been
// accepted. Both are meant for rendering, not for control flow.
type StateError struct {
	Kind     error
	IDs      []string
	Current  map[string]string
	Required []string
}

func NewStateError(kind error, ids []string, current map[string]string, required ...string) *StateError {
	return &StateError{
		Kind:     kind,
		IDs:      ids,
		Current:  current,
		Required: required,
	}
}

// NewInvalidTransitionError describes a single rejected from -> to edge.
func NewInvalidTransitionError(id, from, to string) *StateError {
	return &StateError{
		Kind:     ErrInvalidTransition,
		IDs:      []string{id},
		Current:  map[string]string{id: from},
		Required: []string{to},
	}
}

func (e *StateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", ErrInvalidState, e.Kind)
	if errors.Is(e.Kind, ErrInvalidTransition) && len(e.IDs) == 1 && len(e.Required) == 1 {
		fmt.Fprintf(&b, ": %s -> %s for %s", e.Current[e.IDs[0]], e.Required[0], e.IDs[0])
		return sanitize(b.String())
	}
	if len(e.IDs) > 0 {
		parts := make([]string, 0, len(e.IDs))
		for _, id := range e.IDs {
			if status, ok := e.Current[id]; ok {
				parts = append(parts, fmt.Sprintf("%s (%s)", id, status))
				continue
			}
			parts = append(parts, id)
		}
		fmt.Fprintf(&b, ": %s", strings.Join(parts, ", "))
	}
	if len(e.Required) > 0 {
		fmt.Fprintf(&b, "; required: %s", strings.Join(e.Required, " | "))
	}
	return sanitize(b.String())
}

func (e *StateError) Unwrap() []error {
	return []error{ErrInvalidState, e.Kind}
}
