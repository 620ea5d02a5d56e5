package commands

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/audit"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/run"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/logger"
	"dispatch/internal/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultFulfillmentConcurrency = 4
	DefaultFulfillmentTimeout     = 15 * time.Second
)

// Failure codes recorded when the collaborator gives no structured error.
const (
	FailureCodeTimeout = "timeout"
	FailureCodeError   = "error"
)

// FinishRunResult is returned on success only.
type FinishRunResult struct {
	Run        *run.DeliveryRun
	Outcome    run.FullyFulfilled
	Remainders RemainderReport
}

type FinishRunOptions struct {
	// Concurrency bounds the parallel fulfillment calls.
	Concurrency int
	// CallTimeout bounds each fulfillment call. An expired call counts as
	// that order's failure.
	CallTimeout time.Duration
}

// FinishRunCommandHandler reconciles a run with the inventory system.
type FinishRunCommandHandler struct {
	uowFactory  UoWFactory
	fulfillment ports.ExternalFulfillment
	now         Clock
	opts        FinishRunOptions
	log         *logger.Logger
	metrics     *metrics.Dispatch
}

func NewFinishRunCommandHandler(
	uowFactory UoWFactory,
	fulfillment ports.ExternalFulfillment,
	now Clock,
	opts FinishRunOptions,
	log *logger.Logger,
	m *metrics.Dispatch,
) FinishRunCommandHandler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultFulfillmentConcurrency
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultFulfillmentTimeout
	}
	return FinishRunCommandHandler{
		uowFactory:  uowFactory,
		fulfillment: fulfillment,
		now:         now,
		opts:        opts,
		log:         log,
		metrics:     m,
	}
}

// Handle completes the run when every order is delivered and every
// fulfillment call succeeds.
//
// If any call fails, a completion_failed audit record and event are committed
// and a *FulfillmentFailedError is returned; the run stays active and orders
// already accepted upstream are not rolled back there. Otherwise unpicked lines
// are split into remainder orders and the run is completed, all in one
// transaction.
//
// The transaction runs detached from ctx cancellation so that a caller
// deadline expiring mid-fulfillment still leaves the failure on record. Only
// the fulfillment calls observe ctx.
func (h FinishRunCommandHandler) Handle(ctx context.Context, command FinishRunCommand) (FinishRunResult, error) {
	if err := command.Validate(); err != nil {
		return FinishRunResult{}, err
	}

	txCtx := context.WithoutCancel(ctx)
	uow := h.uowFactory.Create()
	if err := uow.Begin(txCtx); err != nil {
		return FinishRunResult{}, err
	}
	defer func() {
		_ = uow.Rollback(txCtx)
	}()

	target, err := uow.RunRepository().LockByID(txCtx, command.RunID())
	if err != nil {
		return FinishRunResult{}, err
	}
	if err = target.EnsureActive(); err != nil {
		return FinishRunResult{}, err
	}

	orders, err := lockOrders(txCtx, uow.OrderRepository(), target.OrderIDs())
	if err != nil {
		return FinishRunResult{}, err
	}
	if err = requireStatus(orders, order.Delivered, errs.ErrOrdersNotDelivered); err != nil {
		return FinishRunResult{}, err
	}

	logCtx := h.log.WithField(ctx, "run_id", target.ID().String())
	outcome := h.fulfill(ctx, orders)
	now := h.now()

	if partial, failed := outcome.(run.PartiallyFulfilled); failed {
		if err = h.recordFailure(txCtx, uow, target, partial, command.Actor(), now); err != nil {
			return FinishRunResult{}, err
		}
		if err = uow.Commit(txCtx); err != nil {
			return FinishRunResult{}, err
		}
		h.metrics.RunFinished("partial")
		h.log.Warn(h.log.WithFields(logCtx, map[string]any{
			"succeeded": len(partial.Successes),
			"failed":    len(partial.Failures),
		}), "run completion failed upstream")
		return FinishRunResult{}, &FulfillmentFailedError{RunID: target.ID(), Outcome: partial}
	}

	report, err := newRemainderSplitter(uow.OrderRepository(), uow.AuditRepository()).
		process(txCtx, orders, command.Actor(), now)
	if err != nil {
		return FinishRunResult{}, err
	}

	if err = target.Complete(command.Actor(), report.Count(), now); err != nil {
		return FinishRunResult{}, err
	}
	if err = uow.RunRepository().Update(txCtx, target); err != nil {
		return FinishRunResult{}, err
	}
	if err = recordAudit(txCtx, uow.AuditRepository(), audit.Params{
		EntityType: audit.EntityRun,
		EntityID:   target.ID(),
		Action:     audit.ActionCompleted,
		Actor:      command.Actor(),
		Before:     audit.Fields{"status": run.Active.String()},
		After:      audit.Fields{"status": run.Completed.String()},
		Details: audit.Fields{
			"fulfilled_count": len(outcome.Fulfilled()),
			"remainder_count": report.Count(),
		},
	}, now); err != nil {
		return FinishRunResult{}, err
	}

	if err = uow.Commit(txCtx); err != nil {
		return FinishRunResult{}, err
	}

	h.metrics.RunFinished("completed")
	h.log.Info(h.log.WithField(logCtx, "remainders", report.Count()), "delivery run completed")
	return FinishRunResult{
		Run:        target,
		Outcome:    run.FullyFulfilled{OrderIDs: outcome.Fulfilled()},
		Remainders: report,
	}, nil
}

// fulfill reports every order upstream. Calls never short-circuit each other:
// each failure is collected and the rest keep going.
func (h FinishRunCommandHandler) fulfill(ctx context.Context, orders []*order.Order) run.FulfillmentOutcome {
	failures := make([]*run.FulfillmentFailure, len(orders))

	var g errgroup.Group
	g.SetLimit(h.opts.Concurrency)
	for i, o := range orders {
		g.Go(func() error {
			failures[i] = h.fulfillOne(ctx, o)
			return nil
		})
	}
	_ = g.Wait()

	var succeeded []kernel.UUID
	var failed []run.FulfillmentFailure
	for i, o := range orders {
		if failures[i] == nil {
			succeeded = append(succeeded, o.ID())
			continue
		}
		failed = append(failed, *failures[i])
	}
	return run.NewFulfillmentOutcome(succeeded, failed)
}

func (h FinishRunCommandHandler) fulfillOne(ctx context.Context, o *order.Order) *run.FulfillmentFailure {
	callCtx, cancel := context.WithTimeout(ctx, h.opts.CallTimeout)
	defer cancel()

	req := ports.FulfillmentRequest{
		OrderID:        o.ID(),
		ExternalNumber: o.ExternalNumber(),
		SalesRef:       o.SalesRef(),
	}
	if snapshot := o.Snapshot(); snapshot != nil {
		req.Lines = snapshot.PickedLines()
	}

	started := time.Now()
	_, err := h.fulfillment.Fulfill(callCtx, req)
	if err == nil && callCtx.Err() != nil {
		err = callCtx.Err()
	}

	failure := classifyFulfillmentError(o, err)
	result := "ok"
	if failure != nil {
		result = failure.Code
		if result != FailureCodeTimeout && result != FailureCodeError {
			result = "rejected"
		}
	}
	h.metrics.FulfillmentCall(result, time.Since(started))
	return failure
}

func classifyFulfillmentError(o *order.Order, err error) *run.FulfillmentFailure {
	if err == nil {
		return nil
	}
	failure := &run.FulfillmentFailure{
		OrderID:        o.ID(),
		ExternalNumber: o.ExternalNumber(),
		Code:           FailureCodeError,
		Reason:         err.Error(),
	}

	var rejected *ports.FulfillmentError
	switch {
	case errors.As(err, &rejected):
		failure.Code = rejected.Code
		failure.Reason = rejected.Message
		failure.Retryable = rejected.Retryable
	case errors.Is(err, context.DeadlineExceeded):
		failure.Code = FailureCodeTimeout
		failure.Reason = "fulfillment call timed out"
		failure.Retryable = true
	}
	return failure
}

func (h FinishRunCommandHandler) recordFailure(
	ctx context.Context,
	uow UoW,
	target *run.DeliveryRun,
	outcome run.PartiallyFulfilled,
	actor kernel.Identity,
	now time.Time,
) error {
	if err := target.RecordCompletionFailure(actor, outcome.Failures, now); err != nil {
		return err
	}
	if err := uow.RunRepository().Update(ctx, target); err != nil {
		return err
	}

	failures := make([]map[string]any, 0, len(outcome.Failures))
	for _, f := range outcome.Failures {
		failures = append(failures, map[string]any{
			"order_id":        f.OrderID.String(),
			"external_number": f.ExternalNumber,
			"code":            f.Code,
			"reason":          f.Reason,
			"retryable":       f.Retryable,
		})
	}
	return recordAudit(ctx, uow.AuditRepository(), audit.Params{
		EntityType: audit.EntityRun,
		EntityID:   target.ID(),
		Action:     audit.ActionCompletionFailed,
		Actor:      actor,
		Details: audit.Fields{
			"successes": kernel.Strings(outcome.Successes),
			"failures":  failures,
		},
	}, now)
}
