package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/audit"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

type CreatedRemainder struct {
	SourceOrderID    kernel.UUID
	RemainderOrderID kernel.UUID
	ExternalNumber   string
}

type SkippedRemainder struct {
	OrderID kernel.UUID
	Reason  string
}

// RemainderReport lists what a split pass did with each order.
type RemainderReport struct {
	Created []CreatedRemainder
	Skipped []SkippedRemainder
}

func (r RemainderReport) Count() int {
	return len(r.Created)
}

// remainderSplitter spawns follow-up orders for unpicked lines. Running it
// twice over the same orders creates nothing the second time.
type remainderSplitter struct {
	orders ports.OrderRepository
	audits ports.AuditRepository
	calc   services.RemainderCalculator
}

func newRemainderSplitter(orders ports.OrderRepository, audits ports.AuditRepository) remainderSplitter {
	return remainderSplitter{orders: orders, audits: audits, calc: services.NewRemainderCalculator()}
}

func (s remainderSplitter) process(
	ctx context.Context,
	sources []*order.Order,
	actor kernel.Identity,
	now time.Time,
) (RemainderReport, error) {
	var report RemainderReport

	for _, source := range sources {
		lines, skip := s.calc.Plan(source)
		if skip == "" && source.HasRemainder() {
			skip = services.SkipRemainderExist
		}
		if skip == "" {
			exists, err := s.orders.ExistsByExternalNumber(ctx, source.RemainderNumber())
			if err != nil {
				return RemainderReport{}, err
			}
			if exists {
				skip = services.SkipRemainderExist
			}
		}
		if skip != "" {
			report.Skipped = append(report.Skipped, SkippedRemainder{OrderID: source.ID(), Reason: skip})
			continue
		}

		remainder, err := s.split(ctx, source, lines, actor, now)
		if err != nil {
			return RemainderReport{}, err
		}
		report.Created = append(report.Created, CreatedRemainder{
			SourceOrderID:    source.ID(),
			RemainderOrderID: remainder.ID(),
			ExternalNumber:   remainder.ExternalNumber(),
		})
	}

	return report, nil
}

func (s remainderSplitter) split(
	ctx context.Context,
	source *order.Order,
	lines []order.Line,
	actor kernel.Identity,
	now time.Time,
) (*order.Order, error) {
	remainder, err := order.NewRemainderOrder(kernel.NewUUID(), source, lines, now)
	if err != nil {
		return nil, err
	}
	if err = s.orders.Add(ctx, remainder); err != nil {
		return nil, err
	}
	if err = source.LinkRemainder(remainder, now); err != nil {
		return nil, err
	}
	if err = s.orders.Update(ctx, source); err != nil {
		return nil, err
	}

	products := make([]string, 0, len(lines))
	for _, l := range lines {
		products = append(products, l.ProductID+" x "+l.Ordered.String())
	}

	if err = recordAudit(ctx, s.audits, audit.Params{
		EntityType: audit.EntityOrder,
		EntityID:   source.ID(),
		Action:     audit.ActionRemainderSpawned,
		Actor:      actor,
		Details: audit.Fields{
			"remainder_order_id": remainder.ID().String(),
			"remainder_number":   remainder.ExternalNumber(),
			"lines":              products,
		},
	}, now); err != nil {
		return nil, err
	}
	if err = recordAudit(ctx, s.audits, audit.Params{
		EntityType: audit.EntityOrder,
		EntityID:   remainder.ID(),
		Action:     audit.ActionRemainderCreated,
		Actor:      actor,
		Details: audit.Fields{
			"parent_order_id": source.ID().String(),
			"parent_number":   source.ExternalNumber(),
			"lines":           products,
		},
	}, now); err != nil {
		return nil, err
	}
	return remainder, nil
}
