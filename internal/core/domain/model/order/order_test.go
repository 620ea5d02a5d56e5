package order_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func snapshotWith(lines ...order.Line) *order.Snapshot {
	return &order.Snapshot{SalesRef: "SO-1", Lines: lines, RefreshedAt: now}
}

func line(product string, ordered, picked int64) order.Line {
	return order.Line{
		ProductID: product,
		Ordered:   decimal.NewFromInt(ordered),
		Picked:    decimal.NewFromInt(picked),
	}
}

func newPreDelivery(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), "WH/OUT/001", "SO-1", order.PreDelivery, nil, now)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		o, err := order.NewOrder(kernel.NewUUID(), " WH/OUT/001 ", "SO-1", order.Picked,
			snapshotWith(line("X", 3, 2)), now)

		require.NoError(t, err)
		require.NoError(t, o.Validate())
		assert.Equal(t, "WH/OUT/001", o.ExternalNumber())
		assert.Equal(t, order.Picked, o.Status())
		assert.Nil(t, o.AssignedRun())
		assert.False(t, o.HasRemainder())
		assert.False(t, o.IsRemainder())
		assert.Equal(t, "WH/OUT/001-R", o.RemainderNumber())
		assert.Equal(t, now, o.CreatedAt())
	})

	t.Run("collects every problem", func(t *testing.T) {
		_, err := order.NewOrder(kernel.UUID{}, "", "SO-1", order.Delivered, nil, now)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects invalid snapshot", func(t *testing.T) {
		_, err := order.NewOrder(kernel.NewUUID(), "N-1", "", order.Picked,
			snapshotWith(order.Line{ProductID: "", Ordered: decimal.NewFromInt(-1)}), now)
		require.Error(t, err)
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var o *order.Order
		require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
		require.ErrorIs(t, (&order.Order{}).Validate(), order.ErrOrderIsNotConstructed)
	})
}

func TestOrder_Transition(t *testing.T) {
	later := now.Add(time.Hour)

	t.Run("full delivery path", func(t *testing.T) {
		o := newPreDelivery(t)
		runID := kernel.NewUUID()

		require.NoError(t, o.AssignToRun(runID, now))
		require.NoError(t, o.Transition(order.InDelivery, "", now))
		require.NotNil(t, o.AssignedRun())
		assert.True(t, runID.IsEqual(*o.AssignedRun()))

		require.NoError(t, o.Transition(order.Delivered, "", later))
		assert.Equal(t, order.Delivered, o.Status())
		assert.Nil(t, o.AssignedRun(), "assignment only lives while in delivery")
		assert.Equal(t, later, o.UpdatedAt())
	})

	t.Run("in-delivery requires a run", func(t *testing.T) {
		o := newPreDelivery(t)
		err := o.Transition(order.InDelivery, "", now)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Equal(t, order.PreDelivery, o.Status())
	})

	t.Run("issue requires a reason", func(t *testing.T) {
		o := newPreDelivery(t)
		require.ErrorIs(t, o.Transition(order.Issue, "   ", now), errs.ErrValueIsRequired)
		assert.Equal(t, order.PreDelivery, o.Status())

		require.NoError(t, o.Transition(order.Issue, "customer absent", now))
		assert.Equal(t, "customer absent", o.IssueReason())

		require.NoError(t, o.Transition(order.PreDelivery, "", later))
		assert.Empty(t, o.IssueReason())
	})

	t.Run("edges outside the table leave the order unchanged", func(t *testing.T) {
		o := newPreDelivery(t)
		err := o.Transition(order.Delivered, "", later)

		var stateErr *errs.StateError
		require.ErrorAs(t, err, &stateErr)
		require.ErrorIs(t, err, errs.ErrInvalidTransition)
		assert.Equal(t, "pre-delivery", stateErr.Current[o.ID().String()])
		assert.Equal(t, []string{"delivered"}, stateErr.Required)
		assert.Equal(t, order.PreDelivery, o.Status())
		assert.Equal(t, now, o.UpdatedAt())
	})

	t.Run("delivered is terminal", func(t *testing.T) {
		o := newPreDelivery(t)
		require.NoError(t, o.AssignToRun(kernel.NewUUID(), now))
		require.NoError(t, o.Transition(order.InDelivery, "", now))
		require.NoError(t, o.Transition(order.Delivered, "", now))

		for _, next := range allStatuses() {
			require.ErrorIs(t, o.Transition(next, "reason", now), errs.ErrInvalidTransition)
		}
	})
}

func TestOrder_AssignToRun(t *testing.T) {
	o, err := order.NewOrder(kernel.NewUUID(), "N-1", "", order.Picked, nil, now)
	require.NoError(t, err)

	err = o.AssignToRun(kernel.NewUUID(), now)
	require.ErrorIs(t, err, errs.ErrInvalidOrderState)
	assert.Nil(t, o.AssignedRun())

	require.ErrorIs(t, newPreDelivery(t).AssignToRun(kernel.UUID{}, now), kernel.ErrUUIDIsNotConstructed)
}

func TestNewRemainderOrder(t *testing.T) {
	parent, err := order.NewOrder(kernel.NewUUID(), "WH/OUT/007", "SO-7", order.PreDelivery,
		snapshotWith(line("X", 3, 2)), now)
	require.NoError(t, err)

	remainderLines := []order.Line{line("X", 1, 0)}
	remainder, err := order.NewRemainderOrder(kernel.NewUUID(), parent, remainderLines, now)
	require.NoError(t, err)

	assert.Equal(t, "WH/OUT/007-R", remainder.ExternalNumber())
	assert.Equal(t, "SO-1", remainder.SalesRef(), "sales ref follows the snapshot")
	assert.Equal(t, order.Picked, remainder.Status())
	assert.True(t, remainder.IsRemainder())
	require.NotNil(t, remainder.ParentOrder())
	assert.True(t, parent.ID().IsEqual(*remainder.ParentOrder()))
	assert.Empty(t, remainder.Snapshot().Movements)

	require.NoError(t, parent.LinkRemainder(remainder, now))
	assert.True(t, parent.HasRemainder())
	require.ErrorIs(t, parent.LinkRemainder(remainder, now), order.ErrOrderAlreadyHasRemainder)

	_, err = order.NewRemainderOrder(kernel.NewUUID(), remainder, remainderLines, now)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid, "remainders are never split")

	_, err = order.NewRemainderOrder(kernel.NewUUID(), parent, nil, now)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestOrder_LinkRemainderRejectsStranger(t *testing.T) {
	parent := newPreDelivery(t)
	stranger := newPreDelivery(t)

	require.ErrorIs(t, parent.LinkRemainder(stranger, now), errs.ErrValueIsInvalid)
	assert.False(t, parent.HasRemainder())
}

func TestOrder_ReplaceSnapshot(t *testing.T) {
	o := newPreDelivery(t)

	require.NoError(t, o.ReplaceSnapshot(order.Snapshot{SalesRef: "SO-9", Lines: []order.Line{line("A", 1, 1)}}, now))
	assert.Equal(t, "SO-9", o.SalesRef())
	require.NotNil(t, o.Snapshot())

	require.Error(t, o.ReplaceSnapshot(order.Snapshot{}, now))
	assert.Equal(t, "SO-9", o.Snapshot().SalesRef)
}

func TestRestoreOrder(t *testing.T) {
	runID := kernel.NewUUID()
	o, err := order.RestoreOrder(order.RestoreParams{
		ID:             kernel.NewUUID(),
		ExternalNumber: "N-1",
		Status:         order.InDelivery,
		AssignedRunID:  &runID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
	assert.Equal(t, order.InDelivery, o.Status())

	_, err = order.RestoreOrder(order.RestoreParams{ID: kernel.NewUUID(), ExternalNumber: "N-1"})
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}
