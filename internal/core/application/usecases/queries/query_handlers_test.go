package queries_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/testdb"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/run"
	"dispatch/internal/core/domain/model/vehicle"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type QueryHandlersTestSuite struct {
	suite.Suite
	db     *gorm.DB
	uow    ports.UnitOfWorkFactory
	now    time.Time
	runner kernel.Identity
}

func (suite *QueryHandlersTestSuite) SetupTest() {
	suite.db = testdb.SQLite(suite.T())
	suite.uow = postgres_adapter.NewGormUnitOfWorkFactory(suite.db)
	suite.now = time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC)

	runner, err := kernel.NewStructuredIdentity("u-1", "Dana")
	suite.Require().NoError(err)
	suite.runner = runner
}

func (suite *QueryHandlersTestSuite) TestVehicleStatus_EmptyDatabase_ListsEveryVehicleFree() {
	result, err := queries.NewGetVehicleStatusQueryHandler(suite.db).
		Handle(context.Background(), queries.NewGetVehicleStatusQuery())

	suite.Require().NoError(err)
	suite.Require().Len(result, len(kernel.Vehicles()))
	for i, v := range kernel.Vehicles() {
		suite.Equal(v, result[i].Vehicle)
		suite.False(result[i].CheckedOut)
		suite.False(result[i].RunActive)
		suite.Nil(result[i].Holder)
	}
}

func (suite *QueryHandlersTestSuite) TestVehicleStatus_CheckoutAndActiveRun() {
	ctx := context.Background()
	uow := suite.uow.Create()

	checkout, err := vehicle.NewCheckout(kernel.NewUUID(), kernel.Van, suite.runner, suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(uow.CheckoutRepository().Add(ctx, checkout))

	legacy, err := kernel.NewLegacyIdentity("Old Timer")
	suite.Require().NoError(err)
	bike, err := vehicle.NewCheckout(kernel.NewUUID(), kernel.CargoBike, legacy, suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(uow.CheckoutRepository().Add(ctx, bike))

	r, err := run.NewRun(kernel.NewUUID(), "Morning Run 1", kernel.Van, suite.runner,
		[]kernel.UUID{kernel.NewUUID()}, suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(uow.RunRepository().Add(ctx, r))

	result, err := queries.NewGetVehicleStatusQueryHandler(suite.db).
		Handle(ctx, queries.NewGetVehicleStatusQuery())
	suite.Require().NoError(err)

	byVehicle := make(map[kernel.Vehicle]queries.GetVehicleStatusQueryResponse)
	for _, s := range result {
		byVehicle[s.Vehicle] = s
	}

	van := byVehicle[kernel.Van]
	suite.True(van.CheckedOut)
	suite.Require().NotNil(van.Holder)
	suite.Equal("u-1", van.Holder.UserID())
	suite.Require().NotNil(van.CheckedOutAt)
	suite.True(van.CheckedOutAt.Equal(suite.now))
	suite.True(van.RunActive)
	suite.Require().NotNil(van.RunID)
	suite.True(van.RunID.IsEqual(r.ID()))
	suite.Equal("Morning Run 1", van.RunName)

	cargoBike := byVehicle[kernel.CargoBike]
	suite.True(cargoBike.CheckedOut)
	suite.Equal(kernel.Legacy, cargoBike.Holder.Kind())
	suite.False(cargoBike.RunActive)

	suite.False(byVehicle[kernel.Truck].CheckedOut)
}

func (suite *QueryHandlersTestSuite) TestActiveRuns_ListsRunsWithTheirOrders() {
	ctx := context.Background()
	uow := suite.uow.Create()

	first := suite.addOrder(uow, "SO-2")
	second := suite.addOrder(uow, "SO-1")
	suite.addOrder(uow, "SO-3")

	r, err := run.NewRun(kernel.NewUUID(), "Morning Run 1", kernel.Truck, suite.runner,
		[]kernel.UUID{first.ID(), second.ID()}, suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(uow.RunRepository().Add(ctx, r))
	for _, o := range []*order.Order{first, second} {
		suite.Require().NoError(o.AssignToRun(r.ID(), suite.now))
		suite.Require().NoError(o.Transition(order.InDelivery, "", suite.now))
		suite.Require().NoError(uow.OrderRepository().Update(ctx, o))
	}

	finished, err := run.NewRun(kernel.NewUUID(), "Morning Run 2", kernel.Van, suite.runner,
		[]kernel.UUID{kernel.NewUUID()}, suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(finished.Complete(suite.runner, 0, suite.now))
	suite.Require().NoError(uow.RunRepository().Add(ctx, finished))

	result, err := queries.NewGetActiveRunsQueryHandler(suite.db).Handle(ctx, queries.NewGetActiveRunsQuery())
	suite.Require().NoError(err)
	suite.Require().Len(result, 1)

	active := result[0]
	suite.True(active.ID.IsEqual(r.ID()))
	suite.Equal(kernel.Truck, active.Vehicle)
	suite.Equal("Dana", active.RunnerName)
	suite.Require().Len(active.Orders, 2)
	suite.Equal("SO-1", active.Orders[0].ExternalNumber)
	suite.Equal("SO-2", active.Orders[1].ExternalNumber)
	suite.Equal(order.InDelivery, active.Orders[0].Status)
}

func (suite *QueryHandlersTestSuite) TestActiveRuns_NoRuns_ReturnsEmptySlice() {
	result, err := queries.NewGetActiveRunsQueryHandler(suite.db).
		Handle(context.Background(), queries.NewGetActiveRunsQuery())

	suite.Require().NoError(err)
	suite.NotNil(result)
	suite.Empty(result)
}

func (suite *QueryHandlersTestSuite) addOrder(uow ports.UnitOfWork, number string) *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), number, "SR", order.PreDelivery, nil, suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(uow.OrderRepository().Add(context.Background(), o))
	return o
}

func TestQueryHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(QueryHandlersTestSuite))
}
