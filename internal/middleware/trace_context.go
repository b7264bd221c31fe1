package middleware

import (
	"strings"

	"stockAgent/business/decision"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext puts a trace id on the request context so decisions
// emitted by the request can be correlated with it. An incoming X-Trace-Id
// wins, then an active span's trace id, then a fresh uuid.
func AttachTraceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			reqID := strings.TrimSpace(req.Header.Get(headerRequestID))
			if reqID == "" {
				reqID = uuid.New().String()
			}
			traceID := strings.TrimSpace(req.Header.Get(headerTraceID))
			if traceID == "" {
				spanCtx := trace.SpanContextFromContext(req.Context())
				if spanCtx.HasTraceID() {
					traceID = spanCtx.TraceID().String()
				}
			}
			if traceID == "" {
				traceID = uuid.New().String()
			}

			c.SetRequest(req.WithContext(decision.WithTraceID(req.Context(), traceID)))
			c.Set("trace_id", traceID)
			c.Set("request_id", reqID)
			c.Response().Header().Set(headerTraceID, traceID)
			c.Response().Header().Set(headerRequestID, reqID)

			return next(c)
		}
	}
}
