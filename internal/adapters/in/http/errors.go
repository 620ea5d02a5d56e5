package http

import (
	"errors"
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type conflictDetails struct {
	Kind     string `json:"kind"`
	Resource string `json:"resource"`
	ID       string `json:"id"`
	Holder   string `json:"holder,omitempty"`
}

type stateDetails struct {
	Kind     string            `json:"kind"`
	IDs      []string          `json:"ids"`
	Current  map[string]string `json:"current,omitempty"`
	Required []string          `json:"required,omitempty"`
}

type fulfillmentDetails struct {
	RunID     string              `json:"run_id"`
	Successes []string            `json:"successes"`
	Failures  []fulfillmentFailed `json:"failures"`
}

type fulfillmentFailed struct {
	OrderID        string `json:"order_id"`
	ExternalNumber string `json:"external_number"`
	Code           string `json:"code"`
	Reason         string `json:"reason"`
	Retryable      bool   `json:"retryable"`
}

// ErrorHandler maps error categories to status codes:
// validation 400, auth 401, not found 404, conflict 409, state 422 and
// external fulfillment 502. Anything else is a logged 500.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := toErrorResponse(err)
		if resp.Code >= http.StatusInternalServerError && resp.Code != http.StatusBadGateway {
			log.Error(c.Request().Context(), "request failed", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(resp.Code)
		} else {
			writeErr = c.JSON(resp.Code, resp)
		}
		if writeErr != nil {
			log.Error(c.Request().Context(), "write error response", writeErr)
		}
	}
}

func toErrorResponse(err error) ErrorResponse {
	var (
		httpErr     *echo.HTTPError
		validation  validator.ValidationErrors
		conflict    *errs.ConflictError
		state       *errs.StateError
		fulfillment *commands.FulfillmentFailedError
	)

	switch {
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return ErrorResponse{Code: httpErr.Code, Error: "http_error", Message: msg}

	case errors.Is(err, errs.ErrAuthRequired):
		return ErrorResponse{Code: http.StatusUnauthorized, Error: "auth_required", Message: errs.ErrAuthRequired.Error()}

	case errors.As(err, &validation):
		details := make(map[string]string, len(validation))
		for _, fe := range validation {
			details[fe.Field()] = validationMessage(fe)
		}
		return ErrorResponse{Code: http.StatusBadRequest, Error: "validation", Message: "validation failed", Details: details}

	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return ErrorResponse{Code: http.StatusBadRequest, Error: "validation", Message: err.Error()}

	case errors.Is(err, errs.ErrObjectNotFound):
		return ErrorResponse{Code: http.StatusNotFound, Error: "not_found", Message: err.Error()}

	case errors.As(err, &conflict):
		return ErrorResponse{
			Code:    http.StatusConflict,
			Error:   "conflict",
			Message: err.Error(),
			Details: conflictDetails{
				Kind:     conflict.Kind.Error(),
				Resource: conflict.Resource,
				ID:       conflict.ID,
				Holder:   conflict.Holder,
			},
		}

	case errors.As(err, &state):
		return ErrorResponse{
			Code:    http.StatusUnprocessableEntity,
			Error:   "invalid_state",
			Message: err.Error(),
			Details: stateDetails{
				Kind:     state.Kind.Error(),
				IDs:      state.IDs,
				Current:  state.Current,
				Required: state.Required,
			},
		}

	case errors.As(err, &fulfillment):
		details := fulfillmentDetails{
			RunID:     fulfillment.RunID.String(),
			Successes: kernel.Strings(fulfillment.Outcome.Successes),
			Failures:  make([]fulfillmentFailed, 0, len(fulfillment.Outcome.Failures)),
		}
		for _, f := range fulfillment.Outcome.Failures {
			details.Failures = append(details.Failures, fulfillmentFailed{
				OrderID:        f.OrderID.String(),
				ExternalNumber: f.ExternalNumber,
				Code:           f.Code,
				Reason:         f.Reason,
				Retryable:      f.Retryable,
			})
		}
		return ErrorResponse{
			Code:    http.StatusBadGateway,
			Error:   "external_fulfillment_failed",
			Message: errs.ErrExternalFulfillmentFailed.Error(),
			Details: details,
		}

	case errors.Is(err, errs.ErrConflict):
		return ErrorResponse{Code: http.StatusConflict, Error: "conflict", Message: err.Error()}

	case errors.Is(err, errs.ErrInvalidState):
		return ErrorResponse{Code: http.StatusUnprocessableEntity, Error: "invalid_state", Message: err.Error()}
	}

	return ErrorResponse{
		Code:    http.StatusInternalServerError,
		Error:   "internal",
		Message: http.StatusText(http.StatusInternalServerError),
	}
}
