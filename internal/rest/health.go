package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type (
	HealthHandler struct {
		store   Pinger
		timeout time.Duration
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		timeout: 3 * time.Second,
	}
}

// GET /
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "Agent is Running with Scheduler"})
}

// GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
