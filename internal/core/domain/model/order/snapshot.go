package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Line is one product line of the external order.
type Line struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name,omitempty"`
	Ordered       decimal.Decimal `json:"ordered_qty"`
	Picked        decimal.Decimal `json:"picked_qty"`
	SerialNumbers []string        `json:"serial_numbers,omitempty"`
}

// Movement is a pick, pack or ship sub-line recorded by the inventory system.
type Movement struct {
	Kind      string          `json:"kind"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference,omitempty"`
}

// Snapshot is the last known payload of the order in the external inventory
// system. It is replaced wholesale on every refresh.
type Snapshot struct {
	SalesRef    string     `json:"sales_ref"`
	Lines       []Line     `json:"lines"`
	Movements   []Movement `json:"movements,omitempty"`
	RefreshedAt time.Time  `json:"refreshed_at"`
}

func (s Snapshot) Validate() error {
	if len(s.Lines) == 0 {
		return errs.NewValueIsRequiredError("snapshot lines")
	}
	var problems []error
	for i, line := range s.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			problems = append(problems, errs.NewValueIsRequiredError(fmt.Sprintf("lines[%d].product_id", i)))
		}
		if line.Ordered.IsNegative() {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
				fmt.Sprintf("lines[%d].ordered_qty", i), fmt.Errorf("%s is negative", line.Ordered)))
		}
		if line.Picked.IsNegative() {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
				fmt.Sprintf("lines[%d].picked_qty", i), fmt.Errorf("%s is negative", line.Picked)))
		}
	}
	return errors.Join(problems...)
}

// PickedLines returns the lines with something picked, quantities reduced to
// the picked amount. This is what gets reported as fulfilled upstream.
func (s Snapshot) PickedLines() []Line {
	out := make([]Line, 0, len(s.Lines))
	for _, line := range s.Lines {
		if !line.Picked.IsPositive() {
			continue
		}
		picked := line
		picked.Ordered = line.Picked
		picked.SerialNumbers = append([]string(nil), line.SerialNumbers...)
		out = append(out, picked)
	}
	return out
}

// ProductTotal sums the quantities of every line of one product.
type ProductTotal struct {
	ProductID   string
	ProductName string
	Ordered     decimal.Decimal
	Picked      decimal.Decimal
}

// ProductTotals groups lines by product, keeping first-seen order.
func (s Snapshot) ProductTotals() []ProductTotal {
	index := make(map[string]int, len(s.Lines))
	totals := make([]ProductTotal, 0, len(s.Lines))
	for _, line := range s.Lines {
		i, ok := index[line.ProductID]
		if !ok {
			index[line.ProductID] = len(totals)
			totals = append(totals, ProductTotal{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Ordered:     line.Ordered,
				Picked:      line.Picked,
			})
			continue
		}
		totals[i].Ordered = totals[i].Ordered.Add(line.Ordered)
		totals[i].Picked = totals[i].Picked.Add(line.Picked)
	}
	return totals
}
