package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GetActiveRunsQueryHandler struct {
	db *gorm.DB
}

func NewGetActiveRunsQueryHandler(db *gorm.DB) GetActiveRunsQueryHandler {
	return GetActiveRunsQueryHandler{db: db}
}

type activeRunRow struct {
	ID         uuid.UUID
	Name       string
	Vehicle    string
	RunnerName string
	StartTime  time.Time
}

type runOrderRow struct {
	ID             uuid.UUID
	ExternalNumber string
	SalesRef       string
	Status         string
	AssignedRunID  uuid.UUID
}

// Handle returns active runs oldest first. Orders are listed by external
// number; an order that left in-delivery no longer shows up under its run.
func (h GetActiveRunsQueryHandler) Handle(
	ctx context.Context,
	query GetActiveRunsQuery,
) ([]GetActiveRunsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	db := h.db.WithContext(ctx)

	var runs []activeRunRow
	if err := db.Raw(`
		SELECT id, name, vehicle, runner_name, start_time
		FROM delivery_runs
		WHERE status = 'active'
		ORDER BY start_time, name
	`).Scan(&runs).Error; err != nil {
		return nil, err
	}

	result := make([]GetActiveRunsQueryResponse, 0, len(runs))
	if len(runs) == 0 {
		return result, nil
	}

	runIDs := make([]uuid.UUID, 0, len(runs))
	for _, r := range runs {
		runIDs = append(runIDs, r.ID)
	}

	var orderRows []runOrderRow
	if err := db.Raw(`
		SELECT id, external_number, sales_ref, status, assigned_run_id
		FROM orders
		WHERE assigned_run_id IN ?
		ORDER BY external_number
	`, runIDs).Scan(&orderRows).Error; err != nil {
		return nil, err
	}

	ordersByRun := make(map[uuid.UUID][]ActiveRunOrder, len(runs))
	for _, row := range orderRows {
		id, err := kernel.UUIDFromRaw(row.ID)
		if err != nil {
			return nil, err
		}
		status, err := order.ParseStatus(row.Status)
		if err != nil {
			return nil, err
		}
		ordersByRun[row.AssignedRunID] = append(ordersByRun[row.AssignedRunID], ActiveRunOrder{
			ID:             id,
			ExternalNumber: row.ExternalNumber,
			SalesRef:       row.SalesRef,
			Status:         status,
		})
	}

	for _, r := range runs {
		id, err := kernel.UUIDFromRaw(r.ID)
		if err != nil {
			return nil, err
		}
		orders := ordersByRun[r.ID]
		if orders == nil {
			orders = []ActiveRunOrder{}
		}
		result = append(result, GetActiveRunsQueryResponse{
			ID:         id,
			Name:       r.Name,
			Vehicle:    kernel.Vehicle(r.Vehicle),
			RunnerName: r.RunnerName,
			StartTime:  r.StartTime,
			Orders:     orders,
		})
	}
	return result, nil
}
