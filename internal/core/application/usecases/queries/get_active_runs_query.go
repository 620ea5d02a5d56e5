package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetActiveRunsQueryIsNotConstructed = errors.New(
		"GetActiveRunsQuery must be created via NewGetActiveRunsQuery constructor",
	)
)

// GetActiveRunsQuery lists the runs currently on the road with their orders.
type GetActiveRunsQuery struct {
	guard guard.ConstructorGuard
}

func NewGetActiveRunsQuery() GetActiveRunsQuery {
	return GetActiveRunsQuery{guard: guard.NewConstructorGuard()}
}

func (q GetActiveRunsQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveRunsQueryIsNotConstructed)
}

type ActiveRunOrder struct {
	ID             kernel.UUID
	ExternalNumber string
	SalesRef       string
	Status         order.Status
}

type GetActiveRunsQueryResponse struct {
	ID         kernel.UUID
	Name       string
	Vehicle    kernel.Vehicle
	RunnerName string
	StartTime  time.Time
	Orders     []ActiveRunOrder
}
