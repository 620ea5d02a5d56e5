package commands_test

import (
	"context"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/audit"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/run"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderUoWFactory struct {
	mock.Mock
}

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	return m.Called().Get(0).(commands.OrderUoW)
}

type MockOrderUoW struct {
	mock.Mock
}

func (m *MockOrderUoW) Begin(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockOrderUoW) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockOrderUoW) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	return m.Called().Get(0).(ports.OrderRepository)
}

func (m *MockOrderUoW) RunRepository() ports.RunRepository {
	return m.Called().Get(0).(ports.RunRepository)
}

func (m *MockOrderUoW) AuditRepository() ports.AuditRepository {
	return m.Called().Get(0).(ports.AuditRepository)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	return m.Called(ctx, aggregate).Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	return m.Called(ctx, aggregate).Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetByExternalNumber(ctx context.Context, number string) (*order.Order, error) {
	args := m.Called(ctx, number)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) ExistsByExternalNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) LockByIDs(ctx context.Context, ids []kernel.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, ids)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Add(ctx context.Context, aggregate *run.DeliveryRun) error {
	return m.Called(ctx, aggregate).Error(0)
}

func (m *MockRunRepository) Update(ctx context.Context, aggregate *run.DeliveryRun) error {
	return m.Called(ctx, aggregate).Error(0)
}

func (m *MockRunRepository) LockByID(ctx context.Context, id kernel.UUID) (*run.DeliveryRun, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*run.DeliveryRun)
	return r, args.Error(1)
}

func (m *MockRunRepository) FindActiveByVehicle(ctx context.Context, vehicle kernel.Vehicle) (*run.DeliveryRun, error) {
	args := m.Called(ctx, vehicle)
	r, _ := args.Get(0).(*run.DeliveryRun)
	return r, args.Error(1)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, record *audit.Record) error {
	return m.Called(ctx, record).Error(0)
}

type MockExternalFulfillment struct {
	mock.Mock
}

func (m *MockExternalFulfillment) Fulfill(ctx context.Context, req ports.FulfillmentRequest) (ports.FulfillmentReceipt, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.FulfillmentReceipt), args.Error(1)
}
