package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"stockAgent/domain"
	"stockAgent/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	DecisionHandler struct {
		decisions DecisionLister
	}

	DecisionLister interface {
		List(ctx context.Context, f domain.DecisionFilter) ([]domain.Decision, error)
	}
)

func NewDecisionHandler(decisions DecisionLister) *DecisionHandler {
	return &DecisionHandler{decisions: decisions}
}

// GET /api/v1/decisions?kind=RESTOCK&item_id=milk&since=2024-03-01T00:00:00Z&limit=20
func (h *DecisionHandler) List(c echo.Context) error {
	f := domain.DecisionFilter{
		Kind:   domain.DecisionKind(c.QueryParam("kind")),
		ItemID: c.QueryParam("item_id"),
	}

	if raw := c.QueryParam("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "since must be RFC3339"})
		}
		f.Since = since
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "limit must be a non-negative integer"})
		}
		f.Limit = limit
	}

	out, err := h.decisions.List(c.Request().Context(), f)
	if err != nil {
		logger.Error("decision_list_failed", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(out))
}
