// Package errs provides standardized error types for the dispatch application.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes error types for every failure category the coordination
// engine reports:
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError: field-level validation
//   - ObjectNotFoundError: an order, run or checkout cannot be found
//   - ConflictError: a vehicle or order is already claimed by someone else
//   - StateError: an entity is not in the status an operation requires
//   - ErrAuthRequired: the caller has no resolvable identity
//   - ErrExternalFulfillmentFailed: the inventory system rejected one or more orders
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method for error wrapping/unwrapping support
//
// Conflict and state errors unwrap to both their category sentinel (ErrConflict,
// ErrInvalidState) and their kind sentinel (ErrVehicleInUse, ErrInvalidTransition, ...),
// so callers can match at whichever granularity they need:
//
//	switch {
//	case errors.Is(err, errs.ErrWrongHolder):
//	    // render "vehicle is held by someone else"
//	case errors.Is(err, errs.ErrConflict):
//	    // any other conflict
//	}
package errs
