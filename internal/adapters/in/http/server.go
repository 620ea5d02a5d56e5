package http

import (
	"errors"
	"net/http"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the use cases exposed over HTTP.
type Handlers struct {
	CreateOrder         commands.CreateOrderCommandHandler
	UpsertOrderSnapshot commands.UpsertOrderSnapshotCommandHandler
	TransitionOrder     commands.TransitionOrderCommandHandler
	BulkTransition      commands.BulkTransitionOrdersCommandHandler
	ProcessRemainders   commands.ProcessRemaindersCommandHandler
	CheckoutVehicle     commands.CheckoutVehicleCommandHandler
	CheckinVehicle      commands.CheckinVehicleCommandHandler
	CreateRun           commands.CreateRunCommandHandler
	FinishRun           commands.FinishRunCommandHandler
	CancelRun           commands.CancelRunCommandHandler

	VehicleStatus queries.GetVehicleStatusQueryHandler
	ActiveRuns    queries.GetActiveRunsQueryHandler
}

// Server translates HTTP requests into commands and queries. Every /api/v1
// route runs behind the Authenticator, which supplies the acting identity.
type Server struct {
	handlers   Handlers
	auth       *Authenticator
	identities ports.IdentityProvider
	now        commands.Clock
}

func NewServer(handlers Handlers, auth *Authenticator, now commands.Clock) *Server {
	return &Server{handlers: handlers, auth: auth, identities: auth, now: now}
}

// Register mounts the API on e. Health and metrics stay outside /api/v1.
func (s *Server) Register(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	api := e.Group("/api/v1", append(mw, s.auth.Middleware())...)

	api.POST("/orders", s.CreateOrder)
	api.PUT("/orders/by-number/:number/snapshot", s.UpsertOrderSnapshot)
	api.POST("/orders/:id/transitions", s.TransitionOrder)
	api.POST("/orders/transitions", s.BulkTransitionOrders)
	api.POST("/orders/remainders", s.ProcessRemainders)

	api.GET("/vehicles", s.GetVehicles)
	api.POST("/vehicles/:vehicle/checkout", s.CheckoutVehicle)
	api.POST("/vehicles/:vehicle/checkin", s.CheckinVehicle)

	api.GET("/runs/active", s.GetActiveRuns)
	api.POST("/runs", s.CreateRun)
	api.POST("/runs/:id/finish", s.FinishRun)
	api.POST("/runs/:id/cancel", s.CancelRun)
}

// RegisterOps mounts the unauthenticated health and metrics endpoints.
func RegisterOps(e *echo.Echo, gatherer prometheus.Gatherer) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) actor(c echo.Context) (kernel.Identity, error) {
	identity, ok := s.identities.IdentityFromContext(c.Request().Context())
	if !ok {
		return kernel.Identity{}, errs.ErrAuthRequired
	}
	return identity, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("body", err)
	}
	return c.Validate(req)
}

func parseID(name, raw string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return id, nil
}

func parseIDs(raw []string) ([]kernel.UUID, error) {
	ids := make([]kernel.UUID, 0, len(raw))
	var problems []error
	for _, r := range raw {
		id, err := parseID("order_ids", r)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(problems...)
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	var snapshot *order.Snapshot
	if req.Snapshot != nil {
		sn := req.Snapshot.toDomain(s.now())
		snapshot = &sn
	}

	command, err := commands.NewCreateOrderCommand(req.ExternalNumber, req.SalesRef, status, snapshot, actor)
	if err != nil {
		return err
	}
	created, err := s.handlers.CreateOrder.Handle(c.Request().Context(), command)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toOrderResponse(created))
}

// UpsertOrderSnapshot handles PUT /api/v1/orders/by-number/:number/snapshot.
// Answers 201 when the order did not exist yet.
func (s *Server) UpsertOrderSnapshot(c echo.Context) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}
	var req upsertSnapshotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	command, err := commands.NewUpsertOrderSnapshotCommand(c.Param("number"), req.Snapshot.toDomain(time.Time{}), actor)
	if err != nil {
		return err
	}
	result, err := s.handlers.UpsertOrderSnapshot.Handle(c.Request().Context(), command)
	if err != nil {
		return err
	}
	code := http.StatusOK
	if result.Created {
		code = http.StatusCreated
	}
	return c.JSON(code, toOrderResponse(result.Order))
}

// TransitionOrder handles POST /api/v1/orders/:id/transitions.
func (s *Server) TransitionOrder(c echo.Context) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}
	id, err := parseID("id", c.Param("id"))
	if err != nil {
		return err
	}
	var req transitionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	command, err := commands.NewTransitionOrderCommand(id, status, actor, req.Reason)
	if err != nil {
		return err
	}
	updated, err := s.handlers.TransitionOrder.Handle(c.Request().Context(), command)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(updated))
}

// BulkTransitionOrders handles POST /api/v1/orders/transitions.
func (s *Server) BulkTransitionOrders(c echo.Context) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}
	var req bulkTransitionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ids, err := parseIDs(req.OrderIDs)
	if err != nil {
		return err
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	command, err := commands.NewBulkTransitionOrdersCommand(ids, status, actor, req.Reason)
	if err != nil {
		return err
	}
	result, err := s.handlers.BulkTransition.Handle(c.Request().Context(), command.WithStopOnFirstError(req.StopOnFirstError))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBulkTransitionResponse(result))
}

// ProcessRemainders handles POST /api/v1/orders/remainders.
func (s *Server) ProcessRemainders(c echo.Context) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}
	var req orderIDsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ids, err := parseIDs(req.OrderIDs)
	if err != nil {
		return err
	}

	command, err := commands.NewProcessRemaindersCommand(ids, actor)
	if err != nil {
		return err
	}
	report, err := s.handlers.ProcessRemainders.Handle(c.Request().Context(), command)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRemainderReportResponse(report))
}

// GetVehicles handles GET /api/v1/vehicles.
func (s *Server) GetVehicles(c echo.Context) error {
	statuses, err := s.handlers.VehicleStatus.Handle(c.Request().Context(), queries.NewGetVehicleStatusQuery())
	if err != nil {
		return err
	}
	response := make([]VehicleStatusResponse, len(statuses))
	for i, st := range statuses {
		response[i] = toVehicleStatusResponse(st)
	}
	return c.JSON(http.StatusOK, response)
}

// CheckoutVehicle handles POST /api/v1/vehicles/:vehicle/checkout.
func (s *Server) CheckoutVehicle(c echo.Context) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}
	v, err := kernel.ParseVehicle(c.Param("vehicle"))
	if err != nil {
		return err
	}

	command, err := commands.NewCheckoutVehicleCommand(v, actor)
	if err != nil {
		return err
	}
	checkout, err := s.handlers.CheckoutVehicle.Handle(c.Request().Context(), command)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCheckoutResponse(checkout))
}

// CheckinVehicle handles POST /api/v1/vehicles/:vehicle/checkin. The body is
// optional.
func (s *Server) CheckinVehicle(c echo.Context) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}
	v, err := kernel.ParseVehicle(c.Param("vehicle"))
	if err != nil {
		return err
	}
	var req checkinRequest
	if c.Request().ContentLength > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}

	command, err := commands.NewCheckinVehicleCommand(v, actor, req.Notes)
	if err != nil {
		return err
	}
	checkout, err := s.handlers.CheckinVehicle.Handle(c.Request().Context(), command)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCheckoutResponse(checkout))
}

// GetActiveRuns handles GET /api/v1/runs/active.
func (s *Server) GetActiveRuns(c echo.Context) error {
	runs, err := s.handlers.ActiveRuns.Handle(c.Request().Context(), queries.NewGetActiveRunsQuery())
	if err != nil {
		return err
	}
	response := make([]ActiveRunResponse, len(runs))
	for i, r := range runs {
		response[i] = toActiveRunResponse(r)
	}
	return c.JSON(http.StatusOK, response)
}

// CreateRun handles POST /api/v1/runs.
func (s *Server) CreateRun(c echo.Context) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}
	var req createRunRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	v, err := kernel.ParseVehicle(req.Vehicle)
	if err != nil {
		return err
	}
	ids, err := parseIDs(req.OrderIDs)
	if err != nil {
		return err
	}

	command, err := commands.NewCreateRunCommand(actor, v, ids)
	if err != nil {
		return err
	}
	created, err := s.handlers.CreateRun.Handle(c.Request().Context(), command)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRunResponse(created))
}

// FinishRun handles POST /api/v1/runs/:id/finish. A partial upstream failure
// answers 502 and leaves the run active.
func (s *Server) FinishRun(c echo.Context) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}
	id, err := parseID("id", c.Param("id"))
	if err != nil {
		return err
	}

	command, err := commands.NewFinishRunCommand(id, actor)
	if err != nil {
		return err
	}
	result, err := s.handlers.FinishRun.Handle(c.Request().Context(), command)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, FinishRunResponse{
		Run:        toRunResponse(result.Run),
		Fulfilled:  kernel.Strings(result.Outcome.Fulfilled()),
		Remainders: toRemainderReportResponse(result.Remainders),
	})
}

// CancelRun handles POST /api/v1/runs/:id/cancel.
func (s *Server) CancelRun(c echo.Context) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}
	id, err := parseID("id", c.Param("id"))
	if err != nil {
		return err
	}
	var req cancelRunRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	command, err := commands.NewCancelRunCommand(id, actor, req.Reason)
	if err != nil {
		return err
	}
	cancelled, err := s.handlers.CancelRun.Handle(c.Request().Context(), command)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRunResponse(cancelled))
}
