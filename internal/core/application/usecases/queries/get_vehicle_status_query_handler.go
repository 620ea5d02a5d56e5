package queries

import (
	"context"
	"database/sql"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetVehicleStatusQueryHandler reads open checkouts and active runs with raw
// SQL and folds them over the closed set of vehicles.
type GetVehicleStatusQueryHandler struct {
	db *gorm.DB
}

func NewGetVehicleStatusQueryHandler(db *gorm.DB) GetVehicleStatusQueryHandler {
	return GetVehicleStatusQueryHandler{db: db}
}

// Handle returns one entry per vehicle in kernel.Vehicles() order.
func (h GetVehicleStatusQueryHandler) Handle(
	ctx context.Context,
	query GetVehicleStatusQuery,
) ([]GetVehicleStatusQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	byVehicle := make(map[kernel.Vehicle]*GetVehicleStatusQueryResponse)
	result := make([]GetVehicleStatusQueryResponse, len(kernel.Vehicles()))
	for i, v := range kernel.Vehicles() {
		result[i].Vehicle = v
		byVehicle[v] = &result[i]
	}

	if err := h.loadCheckouts(ctx, byVehicle); err != nil {
		return nil, err
	}
	if err := h.loadActiveRuns(ctx, byVehicle); err != nil {
		return nil, err
	}
	return result, nil
}

func (h GetVehicleStatusQueryHandler) loadCheckouts(
	ctx context.Context,
	byVehicle map[kernel.Vehicle]*GetVehicleStatusQueryResponse,
) error {
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			vehicle,
			holder_user_id,
			holder_name,
			checked_out_at
		FROM vehicle_checkouts
		WHERE checked_in_at IS NULL
	`).Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			vehicle      string
			holderUserID sql.NullString
			holderName   string
			checkedOutAt sql.NullTime
		)
		if err := rows.Scan(&vehicle, &holderUserID, &holderName, &checkedOutAt); err != nil {
			return err
		}

		entry, ok := byVehicle[kernel.Vehicle(vehicle)]
		if !ok {
			continue
		}

		var userID *string
		if holderUserID.Valid {
			userID = &holderUserID.String
		}
		holder, err := kernel.RestoreIdentity(userID, holderName)
		if err != nil {
			return err
		}

		entry.CheckedOut = true
		entry.Holder = &holder
		if checkedOutAt.Valid {
			at := checkedOutAt.Time
			entry.CheckedOutAt = &at
		}
	}
	return rows.Err()
}

func (h GetVehicleStatusQueryHandler) loadActiveRuns(
	ctx context.Context,
	byVehicle map[kernel.Vehicle]*GetVehicleStatusQueryResponse,
) error {
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			vehicle
		FROM delivery_runs
		WHERE status = 'active'
	`).Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      uuid.UUID
			name    string
			vehicle string
		)
		if err := rows.Scan(&id, &name, &vehicle); err != nil {
			return err
		}

		entry, ok := byVehicle[kernel.Vehicle(vehicle)]
		if !ok {
			continue
		}
		runID, err := kernel.UUIDFromRaw(id)
		if err != nil {
			return err
		}
		entry.RunActive = true
		entry.RunID = &runID
		entry.RunName = name
	}
	return rows.Err()
}
