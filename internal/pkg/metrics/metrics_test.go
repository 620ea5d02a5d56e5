package metrics_test

import (
	"errors"
	"testing"
	"time"

	"dispatch/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDispatch_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewDispatch(reg)

	m.RunCreated()
	m.RunFinished("partial")
	m.FulfillmentCall("timeout", 20*time.Millisecond)
	m.FulfillmentCall("ok", 5*time.Millisecond)
	m.VehicleAction("checkout")

	count, err := testutil.GatherAndCount(reg,
		"dispatch_runs_created_total",
		"dispatch_runs_finished_total",
		"dispatch_fulfillment_calls_total",
		"dispatch_vehicle_actions_total",
	)
	assert.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestJobs_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewJobs(reg)

	m.Observe("outbox_relay", time.Millisecond, nil)
	m.Observe("outbox_relay", time.Millisecond, errors.New("redis down"))

	count, err := testutil.GatherAndCount(reg, "dispatch_job_success_total", "dispatch_job_failure_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilCollectorsAreNoOps(t *testing.T) {
	var d *metrics.Dispatch
	var j *metrics.Jobs

	assert.NotPanics(t, func() {
		d.RunCreated()
		d.RunFinished("completed")
		d.FulfillmentCall("ok", time.Second)
		d.VehicleAction("checkin")
		j.Observe("x", time.Second, nil)
		assert.Nil(t, metrics.NewDispatch(nil))
	})
}

func TestHTTP_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewHTTP(reg)

	m.Observe("POST", "/api/v1/runs", 201, time.Millisecond)
	m.Observe("POST", "/api/v1/runs", 409, time.Millisecond)
	m.Observe("GET", "", 404, time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "dispatch_http_requests_total")
	assert.NoError(t, err)
	assert.Equal(t, 3, count)

	var nilHTTP *metrics.HTTP
	assert.NotPanics(t, func() { nilHTTP.Observe("GET", "/", 200, time.Millisecond) })
}
