package router

import (
	"stockAgent/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupHealthRoutes(e *echo.Echo, handler *rest.HealthHandler) {
	e.GET("/", handler.Root)
	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func SetupAgentRoutes(api *echo.Group, handler *rest.AgentHandler, authRequired echo.MiddlewareFunc) {
	agent := api.Group("/agent", authRequired)
	agent.POST("/run", handler.Run)
}

func SetupDecisionRoutes(api *echo.Group, handler *rest.DecisionHandler, authRequired echo.MiddlewareFunc) {
	decisions := api.Group("/decisions", authRequired)
	decisions.GET("", handler.List)
}
