package commands

import (
	"fmt"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/run"
	"dispatch/internal/pkg/errs"
)

// FulfillmentFailedError is returned by FinishRunCommandHandler when at least
// one order was refused upstream. The run stays active and the orders that
// did succeed are not compensated.
type FulfillmentFailedError struct {
	RunID   kernel.UUID
	Outcome run.PartiallyFulfilled
}

func (e *FulfillmentFailedError) Error() string {
	parts := make([]string, 0, len(e.Outcome.Failures))
	for _, f := range e.Outcome.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.OrderID, f.Reason))
	}
	return fmt.Sprintf("%s for run %s: %d succeeded, %d failed (%s)",
		errs.ErrExternalFulfillmentFailed, e.RunID,
		len(e.Outcome.Successes), len(e.Outcome.Failures), strings.Join(parts, "; "))
}

func (e *FulfillmentFailedError) Unwrap() error {
	return errs.ErrExternalFulfillmentFailed
}

func newOrdersNotFoundError(missing []kernel.UUID) *errs.ObjectNotFoundError {
	return errs.NewObjectNotFoundError("orders", strings.Join(kernel.Strings(missing), ", "))
}
