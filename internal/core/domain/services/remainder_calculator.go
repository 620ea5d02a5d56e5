package services

import (
	"dispatch/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// RemainderEpsilon absorbs rounding noise in picked quantities.
var RemainderEpsilon = decimal.RequireFromString("0.0001")

// Skip reasons reported by RemainderCalculator.Plan.
const (
	SkipNoSnapshot     = "no external snapshot"
	SkipIsRemainder    = "order is itself a remainder"
	SkipFullyPicked    = "nothing left to pick"
	SkipRemainderExist = "remainder already exists"
)

// RemainderCalculator computes the unpicked part of an order.
type RemainderCalculator struct{}

func NewRemainderCalculator() RemainderCalculator {
	return RemainderCalculator{}
}

// Remaining returns one line per product whose ordered quantity exceeds the
// picked quantity by more than RemainderEpsilon. Returned lines carry the
// remaining amount as ordered and nothing picked.
func (RemainderCalculator) Remaining(snapshot order.Snapshot) []order.Line {
	var out []order.Line
	for _, total := range snapshot.ProductTotals() {
		remaining := total.Ordered.Sub(total.Picked)
		if remaining.LessThanOrEqual(RemainderEpsilon) {
			continue
		}
		out = append(out, order.Line{
			ProductID:   total.ProductID,
			ProductName: total.ProductName,
			Ordered:     remaining,
			Picked:      decimal.Zero,
		})
	}
	return out
}

// Plan decides whether o needs a remainder. It returns the remainder lines, or
// a skip reason when there is nothing to split. Whether the remainder already
// exists is left to the caller.
func (c RemainderCalculator) Plan(o *order.Order) ([]order.Line, string) {
	if o.IsRemainder() {
		return nil, SkipIsRemainder
	}
	if o.Snapshot() == nil {
		return nil, SkipNoSnapshot
	}
	lines := c.Remaining(*o.Snapshot())
	if len(lines) == 0 {
		return nil, SkipFullyPicked
	}
	return lines, ""
}
