package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/testdb"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/logger"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testSecret = "test-secret"

type fulfillmentMock struct {
	mock.Mock
}

func (m *fulfillmentMock) Fulfill(ctx context.Context, req ports.FulfillmentRequest) (ports.FulfillmentReceipt, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.FulfillmentReceipt), args.Error(1)
}

type ServerTestSuite struct {
	suite.Suite
	e           *echo.Echo
	auth        *httpadapter.Authenticator
	fulfillment *fulfillmentMock
	token       string
}

func (suite *ServerTestSuite) SetupTest() {
	db := testdb.SQLite(suite.T())
	factories := commands.FactoriesFrom(postgres.NewGormUnitOfWorkFactory(db))
	clock := commands.SystemClock(time.UTC)
	log := logger.Nop()

	suite.fulfillment = &fulfillmentMock{}
	suite.auth = httpadapter.NewAuthenticator(testSecret)

	server := httpadapter.NewServer(httpadapter.Handlers{
		CreateOrder:         commands.NewCreateOrderCommandHandler(factories.Orders, clock),
		UpsertOrderSnapshot: commands.NewUpsertOrderSnapshotCommandHandler(factories.Orders, clock),
		TransitionOrder:     commands.NewTransitionOrderCommandHandler(factories.Orders, clock),
		BulkTransition:      commands.NewBulkTransitionOrdersCommandHandler(factories.Orders, clock),
		ProcessRemainders:   commands.NewProcessRemaindersCommandHandler(factories.Orders, clock),
		CheckoutVehicle:     commands.NewCheckoutVehicleCommandHandler(factories.Vehicles, nil, clock, nil),
		CheckinVehicle:      commands.NewCheckinVehicleCommandHandler(factories.Vehicles, nil, clock, nil),
		CreateRun:           commands.NewCreateRunCommandHandler(factories.All, clock, log, nil),
		FinishRun: commands.NewFinishRunCommandHandler(factories.All, suite.fulfillment, clock,
			commands.FinishRunOptions{Concurrency: 2, CallTimeout: time.Second}, log, nil),
		CancelRun:     commands.NewCancelRunCommandHandler(factories.All, clock, log, nil),
		VehicleStatus: queries.NewGetVehicleStatusQueryHandler(db),
		ActiveRuns:    queries.NewGetActiveRunsQueryHandler(db),
	}, suite.auth, clock)

	suite.e = httpadapter.NewEcho(log, nil)
	httpadapter.RegisterOps(suite.e, prometheus.NewRegistry())
	server.Register(suite.e)

	suite.token = suite.issue("user-1", "Dana")
}

func (suite *ServerTestSuite) issue(sub, name string) string {
	token, err := suite.auth.IssueToken(httpadapter.Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	suite.Require().NoError(err)
	return token
}

func (suite *ServerTestSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	suite.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (suite *ServerTestSuite) createOrder(number string) httpadapter.OrderResponse {
	rec := suite.do(http.MethodPost, "/api/v1/orders", suite.token, map[string]any{
		"external_number": number,
		"sales_ref":       "SO-" + number,
		"status":          "pre-delivery",
		"snapshot": map[string]any{
			"lines": []map[string]any{
				{"product_id": "p-1", "ordered_qty": "2", "picked_qty": "2"},
			},
		},
	})
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return decode[httpadapter.OrderResponse](suite.T(), rec)
}

func (suite *ServerTestSuite) TestHealth_NoAuth() {
	rec := suite.do(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, rec.Code)

	rec = suite.do(http.MethodGet, "/metrics", "", nil)
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *ServerTestSuite) TestAPI_RequiresToken() {
	rec := suite.do(http.MethodGet, "/api/v1/vehicles", "", nil)
	suite.Equal(http.StatusUnauthorized, rec.Code)

	rec = suite.do(http.MethodGet, "/api/v1/vehicles", "garbage", nil)
	suite.Equal(http.StatusUnauthorized, rec.Code)

	forged, err := httpadapter.NewAuthenticator("other").IssueToken(httpadapter.Claims{Name: "Eve"})
	suite.Require().NoError(err)
	rec = suite.do(http.MethodGet, "/api/v1/vehicles", forged, nil)
	suite.Equal(http.StatusUnauthorized, rec.Code)
}

func (suite *ServerTestSuite) TestCreateOrder_ValidationDetails() {
	rec := suite.do(http.MethodPost, "/api/v1/orders", suite.token, map[string]any{"status": "delivered"})
	suite.Equal(http.StatusBadRequest, rec.Code)

	body := decode[httpadapter.ErrorResponse](suite.T(), rec)
	details, ok := body.Details.(map[string]any)
	suite.Require().True(ok)
	suite.Contains(details, "external_number")
	suite.Contains(details, "status")
}

func (suite *ServerTestSuite) TestCreateOrder_DuplicateNumberConflicts() {
	suite.createOrder("1001")

	rec := suite.do(http.MethodPost, "/api/v1/orders", suite.token, map[string]any{
		"external_number": "1001",
		"status":          "picked",
	})
	suite.Equal(http.StatusConflict, rec.Code)
}

func (suite *ServerTestSuite) TestTransition_InvalidEdge() {
	created := suite.createOrder("1002")

	rec := suite.do(http.MethodPost, "/api/v1/orders/"+created.ID+"/transitions", suite.token,
		map[string]any{"status": "delivered"})
	suite.Equal(http.StatusUnprocessableEntity, rec.Code)

	rec = suite.do(http.MethodPost, "/api/v1/orders/"+created.ID+"/transitions", suite.token,
		map[string]any{"status": "issue", "reason": "damaged box"})
	suite.Require().Equal(http.StatusOK, rec.Code)
	updated := decode[httpadapter.OrderResponse](suite.T(), rec)
	suite.Equal("issue", updated.Status)
	suite.Equal("damaged box", updated.IssueReason)
}

func (suite *ServerTestSuite) TestTransition_UnknownOrder() {
	rec := suite.do(http.MethodPost, "/api/v1/orders/00000000-0000-0000-0000-000000000001/transitions", suite.token,
		map[string]any{"status": "issue", "reason": "x"})
	suite.Equal(http.StatusNotFound, rec.Code)

	rec = suite.do(http.MethodPost, "/api/v1/orders/not-a-uuid/transitions", suite.token,
		map[string]any{"status": "issue", "reason": "x"})
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *ServerTestSuite) TestVehicles_CheckoutConflictAndStatus() {
	rec := suite.do(http.MethodPost, "/api/v1/vehicles/van/checkout", suite.token, nil)
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	other := suite.issue("user-2", "Lee")
	rec = suite.do(http.MethodPost, "/api/v1/vehicles/van/checkout", other, nil)
	suite.Equal(http.StatusConflict, rec.Code)

	rec = suite.do(http.MethodGet, "/api/v1/vehicles", suite.token, nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	statuses := decode[[]httpadapter.VehicleStatusResponse](suite.T(), rec)
	suite.Require().Len(statuses, 3)
	suite.Equal("van", statuses[0].Vehicle)
	suite.True(statuses[0].CheckedOut)
	suite.Require().NotNil(statuses[0].Holder)
	suite.Equal("Dana", statuses[0].Holder.DisplayName)
	suite.False(statuses[1].CheckedOut)

	rec = suite.do(http.MethodPost, "/api/v1/vehicles/van/checkin", other, map[string]any{"notes": "fuel low"})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	checkin := decode[httpadapter.CheckoutResponse](suite.T(), rec)
	suite.Equal("fuel low", checkin.Notes)
	suite.NotNil(checkin.CheckedInAt)

	rec = suite.do(http.MethodPost, "/api/v1/vehicles/spaceship/checkout", suite.token, nil)
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *ServerTestSuite) TestRun_WithoutCheckout_Conflicts() {
	created := suite.createOrder("1003")

	rec := suite.do(http.MethodPost, "/api/v1/runs", suite.token, map[string]any{
		"vehicle":   "truck",
		"order_ids": []string{created.ID},
	})
	suite.Equal(http.StatusConflict, rec.Code)
}

func (suite *ServerTestSuite) startRun(number string) (httpadapter.OrderResponse, httpadapter.RunResponse) {
	created := suite.createOrder(number)
	rec := suite.do(http.MethodPost, "/api/v1/vehicles/truck/checkout", suite.token, nil)
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = suite.do(http.MethodPost, "/api/v1/runs", suite.token, map[string]any{
		"vehicle":   "truck",
		"order_ids": []string{created.ID},
	})
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return created, decode[httpadapter.RunResponse](suite.T(), rec)
}

func (suite *ServerTestSuite) TestRun_FullLifecycle() {
	created, started := suite.startRun("1004")
	suite.Equal("active", started.Status)
	suite.Equal([]string{created.ID}, started.OrderIDs)

	rec := suite.do(http.MethodGet, "/api/v1/runs/active", suite.token, nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	active := decode[[]httpadapter.ActiveRunResponse](suite.T(), rec)
	suite.Require().Len(active, 1)
	suite.Equal("in-delivery", active[0].Orders[0].Status)

	rec = suite.do(http.MethodPost, "/api/v1/runs/"+started.ID+"/finish", suite.token, nil)
	suite.Equal(http.StatusUnprocessableEntity, rec.Code, "orders are not delivered yet")

	rec = suite.do(http.MethodPost, "/api/v1/orders/"+created.ID+"/transitions", suite.token,
		map[string]any{"status": "delivered"})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	suite.fulfillment.On("Fulfill", mock.Anything, mock.MatchedBy(func(req ports.FulfillmentRequest) bool {
		return req.ExternalNumber == "1004" && len(req.Lines) == 1
	})).Return(ports.FulfillmentReceipt{Reference: "F-1"}, nil).Once()

	rec = suite.do(http.MethodPost, "/api/v1/runs/"+started.ID+"/finish", suite.token, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	finished := decode[httpadapter.FinishRunResponse](suite.T(), rec)
	suite.Equal("completed", finished.Run.Status)
	suite.Equal([]string{created.ID}, finished.Fulfilled)
	suite.Equal(0, finished.Remainders.RemainderCount)
	suite.fulfillment.AssertExpectations(suite.T())

	rec = suite.do(http.MethodGet, "/api/v1/runs/active", suite.token, nil)
	suite.Empty(decode[[]httpadapter.ActiveRunResponse](suite.T(), rec))
}

func (suite *ServerTestSuite) TestRun_FinishFailsUpstream() {
	created, started := suite.startRun("1005")
	rec := suite.do(http.MethodPost, "/api/v1/orders/"+created.ID+"/transitions", suite.token,
		map[string]any{"status": "delivered"})
	suite.Require().Equal(http.StatusOK, rec.Code)

	suite.fulfillment.On("Fulfill", mock.Anything, mock.Anything).
		Return(ports.FulfillmentReceipt{}, &ports.FulfillmentError{Code: "stock", Message: "not enough stock"}).Once()

	rec = suite.do(http.MethodPost, "/api/v1/runs/"+started.ID+"/finish", suite.token, nil)
	suite.Require().Equal(http.StatusBadGateway, rec.Code)
	body := decode[httpadapter.ErrorResponse](suite.T(), rec)
	details, ok := body.Details.(map[string]any)
	suite.Require().True(ok)
	failures, ok := details["failures"].([]any)
	suite.Require().True(ok)
	suite.Len(failures, 1)

	rec = suite.do(http.MethodGet, "/api/v1/runs/active", suite.token, nil)
	suite.Len(decode[[]httpadapter.ActiveRunResponse](suite.T(), rec), 1, "run stays active")
}

func (suite *ServerTestSuite) TestRun_Cancel() {
	created, started := suite.startRun("1006")

	rec := suite.do(http.MethodPost, "/api/v1/runs/"+started.ID+"/cancel", suite.token, map[string]any{})
	suite.Equal(http.StatusBadRequest, rec.Code, "reason is required")

	rec = suite.do(http.MethodPost, "/api/v1/runs/"+started.ID+"/cancel", suite.token,
		map[string]any{"reason": "truck broke down"})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.Equal("cancelled", decode[httpadapter.RunResponse](suite.T(), rec).Status)

	rec = suite.do(http.MethodPost, "/api/v1/orders/transitions", suite.token, map[string]any{
		"order_ids": []string{created.ID},
		"status":    "pre-delivery",
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	bulk := decode[httpadapter.BulkTransitionResponse](suite.T(), rec)
	suite.Len(bulk.Updated, 1)
	suite.Empty(bulk.Skipped)
}

func (suite *ServerTestSuite) TestUpsertSnapshot_CreatesThenUpdates() {
	body := map[string]any{"snapshot": map[string]any{
		"sales_ref": "SO-77",
		"lines":     []map[string]any{{"product_id": "p-9", "ordered_qty": "3", "picked_qty": "1"}},
	}}
	rec := suite.do(http.MethodPut, "/api/v1/orders/by-number/2001/snapshot", suite.token, body)
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = suite.do(http.MethodPut, "/api/v1/orders/by-number/2001/snapshot", suite.token, body)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.Equal("SO-77", decode[httpadapter.OrderResponse](suite.T(), rec).SalesRef)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestErrorHandler_UnexpectedIs500(t *testing.T) {
	e := httpadapter.NewEcho(logger.Nop(), nil)
	e.GET("/boom", func(echo.Context) error { return errors.New("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
