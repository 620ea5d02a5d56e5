package order_test

import (
	"testing"

	"dispatch/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_PickedLines(t *testing.T) {
	s := order.Snapshot{Lines: []order.Line{
		{ProductID: "X", Ordered: decimal.NewFromInt(3), Picked: decimal.NewFromInt(2), SerialNumbers: []string{"s1", "s2"}},
		{ProductID: "Y", Ordered: decimal.NewFromInt(1), Picked: decimal.Zero},
	}}

	picked := s.PickedLines()

	require.Len(t, picked, 1)
	assert.Equal(t, "X", picked[0].ProductID)
	assert.True(t, picked[0].Ordered.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, []string{"s1", "s2"}, picked[0].SerialNumbers)

	picked[0].SerialNumbers[0] = "changed"
	assert.Equal(t, "s1", s.Lines[0].SerialNumbers[0])
}

func TestSnapshot_ProductTotals(t *testing.T) {
	s := order.Snapshot{Lines: []order.Line{
		{ProductID: "X", Ordered: decimal.NewFromInt(2), Picked: decimal.NewFromInt(2)},
		{ProductID: "Y", Ordered: decimal.RequireFromString("0.5"), Picked: decimal.Zero},
		{ProductID: "X", Ordered: decimal.NewFromInt(1), Picked: decimal.Zero},
	}}

	totals := s.ProductTotals()

	require.Len(t, totals, 2)
	assert.Equal(t, "X", totals[0].ProductID)
	assert.True(t, totals[0].Ordered.Equal(decimal.NewFromInt(3)))
	assert.True(t, totals[0].Picked.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "Y", totals[1].ProductID)
}

func TestSnapshot_Validate(t *testing.T) {
	require.Error(t, order.Snapshot{}.Validate())

	err := order.Snapshot{Lines: []order.Line{
		{ProductID: "", Ordered: decimal.NewFromInt(1)},
		{ProductID: "Y", Ordered: decimal.NewFromInt(-1), Picked: decimal.NewFromInt(-2)},
	}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lines[0].product_id")
	assert.Contains(t, err.Error(), "lines[1].ordered_qty")
	assert.Contains(t, err.Error(), "lines[1].picked_qty")
}
