package order

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
// Transition table:
//
//	PreDelivery ──> InDelivery ──> Delivered
//	    │  ▲            │
//	    ▼  │            │
//	   Issue <──────────┘
//
// Picked and Shipping exist in the data but have no outgoing edges. Orders
// enter the table at PreDelivery when created or via Issue -> PreDelivery.
type Status int

const (
	// Unknown catches uninitialized values.
	Unknown Status = iota
	Picked
	PreDelivery
	InDelivery
	Shipping
	Delivered
	Issue
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Picked:      "picked",
		PreDelivery: "pre-delivery",
		InDelivery:  "in-delivery",
		Shipping:    "shipping",
		Delivered:   "delivered",
		Issue:       "issue",
	}
}

// getTransitions returns, for each status, the statuses it may move to.
// Statuses missing from the map are dead ends.
func getTransitions() map[Status][]Status {
	//nolint:exhaustive // Picked and Shipping have no edges yet
	return map[Status][]Status{
		PreDelivery: {InDelivery, Issue},
		InDelivery:  {Delivered, Issue},
		Issue:       {PreDelivery},
		Delivered:   {},
	}
}

func ParseStatus(s string) (Status, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for status, str := range getStatusStrings() {
		if str == needle {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// CanTransitionTo reports whether s -> next is an edge of the table.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range getTransitions()[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the statuses reachable from s in one step.
func (s Status) AllowedTransitions() []Status {
	allowed := getTransitions()[s]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// IsInitial reports whether an order may be created directly in s.
func (s Status) IsInitial() bool {
	return s == Picked || s == PreDelivery
}
