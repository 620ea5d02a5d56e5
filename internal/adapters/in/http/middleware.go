package http

import (
	"time"

	"dispatch/internal/pkg/logger"
	"dispatch/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RequestLogger attaches the request id to the context logger, logs one line
// per request and feeds the HTTP metrics. It expects middleware.RequestID to
// run first.
func RequestLogger(log *logger.Logger, m *metrics.HTTP) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := log.WithRequestID(req.Context(), requestID)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is known.
				c.Error(err)
			}

			took := time.Since(start)
			status := c.Response().Status
			route := c.Path()
			m.Observe(req.Method, route, status, took)

			event := log.Zerolog().Info()
			if status >= 500 {
				event = log.Zerolog().Error()
			}
			event.
				Str("request_id", requestID).
				Str("method", req.Method).
				Str("route", route).
				Int("status", status).
				Dur("took", took).
				Msg("request")
			return nil
		}
	}
}

// NewEcho builds the Echo instance with validation, error mapping and the
// standard middleware chain.
func NewEcho(log *logger.Logger, m *metrics.HTTP) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = ErrorHandler(log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(log, m))
	return e
}
