package ports

import (
	"context"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// FulfillmentRequest reports the picked lines of one order upstream.
type FulfillmentRequest struct {
	OrderID        kernel.UUID
	ExternalNumber string
	SalesRef       string
	Lines          []order.Line
}

type FulfillmentReceipt struct {
	Reference string
}

// FulfillmentError is the structured refusal of the inventory system.
type FulfillmentError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *FulfillmentError) Error() string {
	return fmt.Sprintf("fulfillment rejected (%s): %s", e.Code, e.Message)
}

// ExternalFulfillment is the external inventory system. Implementations must
// honour ctx cancellation.
type ExternalFulfillment interface {
	Fulfill(ctx context.Context, req FulfillmentRequest) (FulfillmentReceipt, error)
}
