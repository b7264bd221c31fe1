package rest

import (
	"context"
	"errors"
	"net/http"

	"stockAgent/business/decision"
	"stockAgent/domain"
	"stockAgent/pkg/logger"
	"stockAgent/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	AgentHandler struct {
		validate *validator.Validate
		engine   CycleRunner
	}

	CycleRunner interface {
		RunCycle(ctx context.Context, trigger domain.Trigger, payload map[string]any) (decision.CycleResult, error)
	}

	RunRequest struct {
		Trigger string         `json:"trigger" validate:"required"`
		Payload map[string]any `json:"payload"`
	}

	// RunFailure is returned when decisions could not be written. The partial
	// result is included so the caller can see what was emitted.
	RunFailure struct {
		Message string                 `json:"message"`
		Result  decision.CycleResult   `json:"result"`
		Errors  []decision.StepFailure `json:"emit_errors,omitempty"`
	}
)

func NewAgentHandler(engine CycleRunner) *AgentHandler {
	return &AgentHandler{
		validate: validator.New(),
		engine:   engine,
	}
}

// POST /api/v1/agent/run
func (h *AgentHandler) Run(c echo.Context) error {
	var req RunRequest
	if err := c.Bind(&req); err != nil {
		metrics.RunRequests.WithLabelValues("INVALID", "bad_request").Inc()
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		metrics.RunRequests.WithLabelValues("INVALID", "bad_request").Inc()
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	trigger := domain.Trigger(req.Trigger)
	label := runLabel(trigger)
	if req.Payload == nil {
		req.Payload = map[string]any{}
	}

	logger.Info("agent_run_requested", "trigger", trigger, "subject", c.Get("subject"))

	res, err := h.engine.RunCycle(c.Request().Context(), trigger, req.Payload)
	if err != nil {
		var emitErr *decision.EmitError
		if errors.As(err, &emitErr) {
			metrics.RunRequests.WithLabelValues(label, "emit_failed").Inc()
			return c.JSON(http.StatusInternalServerError, RunFailure{
				Message: "one or more decisions could not be recorded",
				Result:  res,
				Errors:  emitFailures(err),
			})
		}
		metrics.RunRequests.WithLabelValues(label, "failed").Inc()
		return c.JSON(http.StatusServiceUnavailable, ResponseError{Message: err.Error()})
	}

	metrics.RunRequests.WithLabelValues(label, "ok").Inc()
	return c.JSON(http.StatusOK, fres.Response.StatusOK(res))
}

// emitFailures flattens a joined emission error into reportable entries.
func emitFailures(err error) []decision.StepFailure {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	out := make([]decision.StepFailure, 0, len(errs))
	for _, e := range errs {
		var emitErr *decision.EmitError
		if errors.As(e, &emitErr) {
			out = append(out, decision.StepFailure{
				Step:    "emit:" + string(emitErr.Kind),
				Subject: emitErr.Subject,
				Error:   emitErr.Err.Error(),
			})
			continue
		}
		out = append(out, decision.StepFailure{Step: "emit", Error: e.Error()})
	}
	return out
}

func runLabel(t domain.Trigger) string {
	switch t {
	case domain.TriggerSale, domain.TriggerCron, domain.TriggerManual:
		return string(t)
	default:
		return "OTHER"
	}
}
