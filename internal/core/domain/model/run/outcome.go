package run

import "dispatch/internal/core/domain/model/kernel"

// FulfillmentFailure is one order the external inventory system refused.
type FulfillmentFailure struct {
	OrderID        kernel.UUID
	ExternalNumber string
	Code           string
	Reason         string
	Retryable      bool
}

// FulfillmentOutcome is the result of reporting a run's orders upstream:
//
//	FullyFulfilled(orderIDs) | PartiallyFulfilled(successes, failures)
//
// The interface is sealed; switch on the concrete type.
type FulfillmentOutcome interface {
	// Fulfilled lists the orders accepted upstream.
	Fulfilled() []kernel.UUID
	isFulfillmentOutcome()
}

type FullyFulfilled struct {
	OrderIDs []kernel.UUID
}

func (o FullyFulfilled) Fulfilled() []kernel.UUID { return o.OrderIDs }
func (FullyFulfilled) isFulfillmentOutcome()      {}

// PartiallyFulfilled always has at least one failure. Successes may be empty.
type PartiallyFulfilled struct {
	Successes []kernel.UUID
	Failures  []FulfillmentFailure
}

func (o PartiallyFulfilled) Fulfilled() []kernel.UUID { return o.Successes }
func (PartiallyFulfilled) isFulfillmentOutcome()      {}

// NewFulfillmentOutcome picks the variant matching the collected results.
func NewFulfillmentOutcome(successes []kernel.UUID, failures []FulfillmentFailure) FulfillmentOutcome {
	if len(failures) == 0 {
		return FullyFulfilled{OrderIDs: successes}
	}
	return PartiallyFulfilled{Successes: successes, Failures: failures}
}
