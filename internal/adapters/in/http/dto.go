package http

import (
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/run"
	"dispatch/internal/core/domain/model/vehicle"

	"github.com/shopspring/decimal"
)

type lineRequest struct {
	ProductID     string          `json:"product_id" validate:"required"`
	ProductName   string          `json:"product_name"`
	Ordered       decimal.Decimal `json:"ordered_qty"`
	Picked        decimal.Decimal `json:"picked_qty"`
	SerialNumbers []string        `json:"serial_numbers"`
}

type movementRequest struct {
	Kind      string          `json:"kind" validate:"required"`
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference"`
}

type snapshotRequest struct {
	SalesRef  string            `json:"sales_ref"`
	Lines     []lineRequest     `json:"lines" validate:"required,min=1,dive"`
	Movements []movementRequest `json:"movements" validate:"dive"`
}

func (s snapshotRequest) toDomain(now time.Time) order.Snapshot {
	snapshot := order.Snapshot{SalesRef: s.SalesRef, RefreshedAt: now}
	for _, l := range s.Lines {
		snapshot.Lines = append(snapshot.Lines, order.Line{
			ProductID:     l.ProductID,
			ProductName:   l.ProductName,
			Ordered:       l.Ordered,
			Picked:        l.Picked,
			SerialNumbers: l.SerialNumbers,
		})
	}
	for _, m := range s.Movements {
		snapshot.Movements = append(snapshot.Movements, order.Movement{
			Kind:      m.Kind,
			ProductID: m.ProductID,
			Quantity:  m.Quantity,
			Reference: m.Reference,
		})
	}
	return snapshot
}

type createOrderRequest struct {
	ExternalNumber string           `json:"external_number" validate:"required"`
	SalesRef       string           `json:"sales_ref"`
	Status         string           `json:"status" validate:"required,oneof=picked pre-delivery"`
	Snapshot       *snapshotRequest `json:"snapshot"`
}

type upsertSnapshotRequest struct {
	Snapshot snapshotRequest `json:"snapshot"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

type bulkTransitionRequest struct {
	OrderIDs         []string `json:"order_ids" validate:"required,min=1,dive,uuid"`
	Status           string   `json:"status" validate:"required"`
	Reason           string   `json:"reason"`
	StopOnFirstError bool     `json:"stop_on_first_error"`
}

type orderIDsRequest struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1,dive,uuid"`
}

type createRunRequest struct {
	Vehicle  string   `json:"vehicle" validate:"required"`
	OrderIDs []string `json:"order_ids" validate:"required,min=1,dive,uuid"`
}

type cancelRunRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type checkinRequest struct {
	Notes string `json:"notes"`
}

type identityResponse struct {
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name"`
}

func toIdentityResponse(i kernel.Identity) identityResponse {
	return identityResponse{UserID: i.UserID(), DisplayName: i.DisplayName()}
}

type OrderResponse struct {
	ID               string          `json:"id"`
	ExternalNumber   string          `json:"external_number"`
	SalesRef         string          `json:"sales_ref"`
	Status           string          `json:"status"`
	AssignedRunID    *string         `json:"assigned_run_id,omitempty"`
	IssueReason      string          `json:"issue_reason,omitempty"`
	ParentOrderID    *string         `json:"parent_order_id,omitempty"`
	RemainderOrderID *string         `json:"remainder_order_id,omitempty"`
	Snapshot         *order.Snapshot `json:"snapshot,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func optionalID(id *kernel.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID().String(),
		ExternalNumber:   o.ExternalNumber(),
		SalesRef:         o.SalesRef(),
		Status:           o.Status().String(),
		AssignedRunID:    optionalID(o.AssignedRun()),
		IssueReason:      o.IssueReason(),
		ParentOrderID:    optionalID(o.ParentOrder()),
		RemainderOrderID: optionalID(o.RemainderOrder()),
		Snapshot:         o.Snapshot(),
		UpdatedAt:        o.UpdatedAt(),
	}
}

type RunResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Status       string           `json:"status"`
	Vehicle      string           `json:"vehicle"`
	Runner       identityResponse `json:"runner"`
	OrderIDs     []string         `json:"order_ids"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      *time.Time       `json:"end_time,omitempty"`
	CancelReason string           `json:"cancel_reason,omitempty"`
}

func toRunResponse(r *run.DeliveryRun) RunResponse {
	return RunResponse{
		ID:           r.ID().String(),
		Name:         r.Name(),
		Status:       r.Status().String(),
		Vehicle:      r.Vehicle().String(),
		Runner:       toIdentityResponse(r.Runner()),
		OrderIDs:     kernel.Strings(r.OrderIDs()),
		StartTime:    r.StartTime(),
		EndTime:      r.EndTime(),
		CancelReason: r.CancelReason(),
	}
}

type CheckoutResponse struct {
	ID           string           `json:"id"`
	Vehicle      string           `json:"vehicle"`
	Holder       identityResponse `json:"holder"`
	CheckedOutAt time.Time        `json:"checked_out_at"`
	CheckedInAt  *time.Time       `json:"checked_in_at,omitempty"`
	CheckedInBy  string           `json:"checked_in_by,omitempty"`
	Notes        string           `json:"notes,omitempty"`
}

func toCheckoutResponse(c *vehicle.Checkout) CheckoutResponse {
	return CheckoutResponse{
		ID:           c.ID().String(),
		Vehicle:      c.Vehicle().String(),
		Holder:       toIdentityResponse(c.Holder()),
		CheckedOutAt: c.CheckedOutAt(),
		CheckedInAt:  c.CheckedInAt(),
		CheckedInBy:  c.CheckedInBy(),
		Notes:        c.Notes(),
	}
}

type BulkTransitionResponse struct {
	Updated []OrderResponse   `json:"updated"`
	Skipped []skippedResponse `json:"skipped"`
}

type skippedResponse struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func toBulkTransitionResponse(res commands.BulkTransitionResult) BulkTransitionResponse {
	out := BulkTransitionResponse{
		Updated: make([]OrderResponse, 0, len(res.Updated)),
		Skipped: make([]skippedResponse, 0, len(res.Skipped)),
	}
	for _, o := range res.Updated {
		out.Updated = append(out.Updated, toOrderResponse(o))
	}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, skippedResponse{OrderID: s.OrderID.String(), Reason: s.Err.Error()})
	}
	return out
}

type RemainderReportResponse struct {
	RemainderCount int                `json:"remainder_count"`
	Created        []createdRemainder `json:"created"`
	Skipped        []skippedRemainder `json:"skipped"`
}

type createdRemainder struct {
	SourceOrderID    string `json:"source_order_id"`
	RemainderOrderID string `json:"remainder_order_id"`
	ExternalNumber   string `json:"external_number"`
}

type skippedRemainder struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func toRemainderReportResponse(r commands.RemainderReport) RemainderReportResponse {
	out := RemainderReportResponse{
		RemainderCount: r.Count(),
		Created:        make([]createdRemainder, 0, len(r.Created)),
		Skipped:        make([]skippedRemainder, 0, len(r.Skipped)),
	}
	for _, c := range r.Created {
		out.Created = append(out.Created, createdRemainder{
			SourceOrderID:    c.SourceOrderID.String(),
			RemainderOrderID: c.RemainderOrderID.String(),
			ExternalNumber:   c.ExternalNumber,
		})
	}
	for _, s := range r.Skipped {
		out.Skipped = append(out.Skipped, skippedRemainder{OrderID: s.OrderID.String(), Reason: s.Reason})
	}
	return out
}

type FinishRunResponse struct {
	Run        RunResponse             `json:"run"`
	Fulfilled  []string                `json:"fulfilled"`
	Remainders RemainderReportResponse `json:"remainders"`
}

type VehicleStatusResponse struct {
	Vehicle      string            `json:"vehicle"`
	CheckedOut   bool              `json:"checked_out"`
	Holder       *identityResponse `json:"holder,omitempty"`
	CheckedOutAt *time.Time        `json:"checked_out_at,omitempty"`
	RunActive    bool              `json:"run_active"`
	RunID        *string           `json:"run_id,omitempty"`
	RunName      string            `json:"run_name,omitempty"`
}

func toVehicleStatusResponse(s queries.GetVehicleStatusQueryResponse) VehicleStatusResponse {
	out := VehicleStatusResponse{
		Vehicle:      s.Vehicle.String(),
		CheckedOut:   s.CheckedOut,
		CheckedOutAt: s.CheckedOutAt,
		RunActive:    s.RunActive,
		RunID:        optionalID(s.RunID),
		RunName:      s.RunName,
	}
	if s.Holder != nil {
		holder := toIdentityResponse(*s.Holder)
		out.Holder = &holder
	}
	return out
}

type ActiveRunResponse struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Vehicle    string              `json:"vehicle"`
	RunnerName string              `json:"runner_name"`
	StartTime  time.Time           `json:"start_time"`
	Orders     []activeRunOrderDTO `json:"orders"`
}

type activeRunOrderDTO struct {
	ID             string `json:"id"`
	ExternalNumber string `json:"external_number"`
	SalesRef       string `json:"sales_ref"`
	Status         string `json:"status"`
}

func toActiveRunResponse(r queries.GetActiveRunsQueryResponse) ActiveRunResponse {
	out := ActiveRunResponse{
		ID:         r.ID.String(),
		Name:       r.Name,
		Vehicle:    r.Vehicle.String(),
		RunnerName: r.RunnerName,
		StartTime:  r.StartTime,
		Orders:     make([]activeRunOrderDTO, 0, len(r.Orders)),
	}
	for _, o := range r.Orders {
		out.Orders = append(out.Orders, activeRunOrderDTO{
			ID:             o.ID.String(),
			ExternalNumber: o.ExternalNumber,
			SalesRef:       o.SalesRef,
			Status:         o.Status.String(),
		})
	}
	return out
}
