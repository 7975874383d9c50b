package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/space-reservation/internal/repository"
)

// HealthHandler answers load balancer probes.
type HealthHandler struct {
    store repository.Store
}

// NewHealthHandler panics when store is nil.
func NewHealthHandler(store repository.Store) *HealthHandler {
    if store == nil {
        panic("nil store passed to NewHealthHandler")
    }
    return &HealthHandler{store: store}
}

// Health pings the active backend and reports its name.  An unreachable
// backend answers 503 so the instance is taken out of rotation.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()
    if err := h.store.Ping(ctx); err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{
            "status":  "unavailable",
            "backend": h.store.Backend(),
            "error":   err.Error(),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "ok", "backend": h.store.Backend()})
}
