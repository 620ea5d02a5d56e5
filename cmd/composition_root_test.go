package cmd_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dispatch/cmd"
	httpadapter "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/postgres/testdb"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopFulfillment struct{}

func (noopFulfillment) Fulfill(context.Context, ports.FulfillmentRequest) (ports.FulfillmentReceipt, error) {
	return ports.FulfillmentReceipt{Reference: "noop"}, nil
}

func testConfig() cmd.Config {
	return cmd.Config{
		JWTSecret:              "s3cret",
		InventoryBaseURL:       "http://inventory.invalid",
		FulfillmentConcurrency: 2,
		FulfillmentTimeout:     time.Second,
		OutboxSchedule:         "*/5 * * * * *",
		EventChannelPrefix:     "dispatch:events:",
		RedisPrefix:            "dispatch:",
		TimeZone:               "UTC",
	}
}

func TestCompositionRoot_ServesWiredAPI(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	root, err := cmd.NewCompositionRoot(testConfig(), testdb.SQLite(t), client, logger.Nop(),
		cmd.WithExternalFulfillment(noopFulfillment{}))
	require.NoError(t, err)

	e := root.CreateEcho()
	token, err := httpadapter.NewAuthenticator("s3cret").IssueToken(httpadapter.Claims{
		Name:             "Dana",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vehicles/van/checkout", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dispatch_vehicle_actions_total")
	assert.Contains(t, rec.Body.String(), "dispatch_http_requests_total")

	manager := root.CreateJobManager()
	require.NoError(t, manager.StartAll())
	manager.StopAll()
}

func TestCompositionRoot_WithoutRedis(t *testing.T) {
	root, err := cmd.NewCompositionRoot(testConfig(), testdb.SQLite(t), nil, logger.Nop())
	require.NoError(t, err)

	manager := root.CreateJobManager()
	assert.NoError(t, manager.StartAll())
	manager.StopAll()

	rec := httptest.NewRecorder()
	root.CreateEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewCompositionRoot_InvalidTimeZone(t *testing.T) {
	cfg := testConfig()
	cfg.TimeZone = "Nowhere/Land"
	_, err := cmd.NewCompositionRoot(cfg, nil, nil, logger.Nop())
	assert.Error(t, err)
}
