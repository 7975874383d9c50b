package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/space-reservation/internal/service"
)

// DashboardHandler serves the occupancy snapshot as plain JSON.  Live
// updates of the same snapshot are pushed by realtime.Hub.
type DashboardHandler struct {
    dash *service.DashboardService
}

func NewDashboardHandler(dash *service.DashboardService) *DashboardHandler {
    if dash == nil {
        panic("nil service passed to NewDashboardHandler")
    }
    return &DashboardHandler{dash: dash}
}

// Stats handles GET /v1/dashboard/stats.
func (h *DashboardHandler) Stats(c echo.Context) error {
    snap, err := h.dash.Snapshot(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, snap)
}

// ZoneStats handles GET /v1/zones/:id/stats with optional ?from= and ?to=.
func (h *DashboardHandler) ZoneStats(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    from, err := queryDate(c, "from")
    if err != nil {
        return respondError(c, err)
    }
    to, err := queryDate(c, "to")
    if err != nil {
        return respondError(c, err)
    }
    stats, err := h.dash.ZoneStats(c.Request().Context(), id, from, to)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, stats)
}
