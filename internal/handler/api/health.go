package api

import (
	"context"
	"net/http"
	"time"

	xhttp "StockCast/pkg/http"

	"github.com/labstack/echo/v4"
)

// HealthChecker is anything that can be pinged.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler reports liveness plus the state of optional backends.
type HealthHandler struct {
	checks  map[string]HealthChecker
	timeout time.Duration
}

func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	res := map[string]string{"app": "ok"}
	for name, chk := range h.checks {
		if err := chk.Health(ctx); err != nil {
			res[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		res[name] = "ok"
	}
	return xhttp.DataResponse(c, status, res)
}
