package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/space-reservation/internal/repository"
    "github.com/iliyamo/space-reservation/internal/service"
)

// ReservationHandler serves /v1/reservations.  Every write goes through
// the reservation service so the overlap rule is enforced once.
type ReservationHandler struct {
    svc *service.ReservationService
}

// NewReservationHandler panics when svc is nil.
func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
    if svc == nil {
        panic("nil service passed to NewReservationHandler")
    }
    return &ReservationHandler{svc: svc}
}

// List handles GET /v1/reservations.  Supported query parameters:
// status_id, space_id, zone_id, user_rut, responsible_rut, from, to
// (YYYY-MM-DD, inclusive), limit and offset.
func (h *ReservationHandler) List(c echo.Context) error {
    var q service.ReservationQuery
    var err error
    if q.StatusID, err = queryUint(c, "status_id"); err != nil {
        return respondError(c, err)
    }
    if q.SpaceID, err = queryUint(c, "space_id"); err != nil {
        return respondError(c, err)
    }
    if q.ZoneID, err = queryUint(c, "zone_id"); err != nil {
        return respondError(c, err)
    }
    if q.From, err = queryDate(c, "from"); err != nil {
        return respondError(c, err)
    }
    if q.To, err = queryDate(c, "to"); err != nil {
        return respondError(c, err)
    }
    if q.Limit, err = queryInt(c, "limit", repository.DefaultPageSize); err != nil {
        return respondError(c, err)
    }
    if q.Offset, err = queryInt(c, "offset", 0); err != nil {
        return respondError(c, err)
    }
    q.UserRUT = strings.TrimSpace(c.QueryParam("user_rut"))
    q.ResponsibleRUT = strings.TrimSpace(c.QueryParam("responsible_rut"))

    page, err := h.svc.List(c.Request().Context(), q)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, page)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    r, err := h.svc.Get(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

// Create handles POST /v1/reservations.  An overlapping booking answers
// 409 with the conflicting reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
    var in service.ReservationInput
    if err := bind(c, &in); err != nil {
        return respondError(c, err)
    }
    r, err := h.svc.Create(c.Request().Context(), in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, r)
}

// Update handles PUT /v1/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    var in service.ReservationInput
    if err := bind(c, &in); err != nil {
        return respondError(c, err)
    }
    r, err := h.svc.Update(c.Request().Context(), id, in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

// ChangeStatus handles PATCH /v1/reservations/:id/status with body
// {"status_id": n}.
func (h *ReservationHandler) ChangeStatus(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    var body struct {
        StatusID uint64 `json:"status_id"`
    }
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    if body.StatusID == 0 {
        return respondError(c, badRequest("status_id is required"))
    }
    r, err := h.svc.ChangeStatus(c.Request().Context(), id, body.StatusID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

// Delete handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    if err := h.svc.Delete(c.Request().Context(), id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Check handles POST /v1/reservations/check, a dry run of the overlap
// rule.  It answers 200 with available=true, or 409 with the conflicts.
func (h *ReservationHandler) Check(c echo.Context) error {
    var body service.ConflictCheck
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    conflicts, err := h.svc.CheckConflicts(c.Request().Context(), body)
    if err != nil {
        return respondError(c, err)
    }
    if len(conflicts) > 0 {
        return c.JSON(http.StatusConflict, echo.Map{"available": false, "conflicts": conflicts})
    }
    return c.JSON(http.StatusOK, echo.Map{"available": true, "conflicts": []any{}})
}
