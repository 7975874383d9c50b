package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/space-reservation/internal/model"
    "github.com/iliyamo/space-reservation/internal/repository"
    "github.com/iliyamo/space-reservation/internal/service"
)

// SpaceHandler serves /v1/spaces and the nested resource and reservation
// routes of a space.
type SpaceHandler struct {
    store        repository.Store
    reservations *service.ReservationService
}

// NewSpaceHandler constructs a SpaceHandler and panics on nil dependencies.
func NewSpaceHandler(store repository.Store, reservations *service.ReservationService) *SpaceHandler {
    if store == nil || reservations == nil {
        panic("nil dependency passed to NewSpaceHandler")
    }
    return &SpaceHandler{store: store, reservations: reservations}
}

type spaceBody struct {
    ZoneID   *uint64 `json:"zone_id"`
    Number   int     `json:"number"`
    StatusID *uint64 `json:"status_id"`
    Activity string  `json:"activity"`
}

func (h *SpaceHandler) space(c echo.Context, b spaceBody) (*model.Space, error) {
    if b.Number <= 0 {
        return nil, badRequest("number must be greater than zero")
    }
    activity := strings.TrimSpace(b.Activity)
    if len(activity) > 255 {
        return nil, badRequest("activity must be at most 255 characters")
    }
    ctx := c.Request().Context()
    if b.ZoneID != nil {
        if _, err := h.store.Zones().GetByID(ctx, *b.ZoneID); err != nil {
            if errors.Is(err, repository.ErrNotFound) {
                return nil, badRequest("unknown zone_id %d", *b.ZoneID)
            }
            return nil, err
        }
    }
    if b.StatusID != nil {
        if err := checkStatusScope(ctx, h.store, *b.StatusID, model.ScopeSpace); err != nil {
            return nil, err
        }
    }
    return &model.Space{ZoneID: b.ZoneID, Number: b.Number, StatusID: b.StatusID, Activity: activity}, nil
}

// List handles GET /v1/spaces; ?zone_id= narrows to one zone.
func (h *SpaceHandler) List(c echo.Context) error {
    zoneID, err := queryUint(c, "zone_id")
    if err != nil {
        return respondError(c, err)
    }
    ctx := c.Request().Context()
    var spaces []model.Space
    if zoneID != 0 {
        spaces, err = h.store.Spaces().ListByZone(ctx, zoneID)
    } else {
        spaces, err = h.store.Spaces().List(ctx)
    }
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, spaces)
}

// Get handles GET /v1/spaces/:id.
func (h *SpaceHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    sp, err := h.store.Spaces().GetByID(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, sp)
}

// Create handles POST /v1/spaces.  A space without a status starts as
// available.
func (h *SpaceHandler) Create(c echo.Context) error {
    var body spaceBody
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    if body.StatusID == nil {
        available := model.StatusSpaceAvailable
        body.StatusID = &available
    }
    sp, err := h.space(c, body)
    if err != nil {
        return respondError(c, err)
    }
    if err := h.store.Spaces().Create(c.Request().Context(), sp); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, sp)
}

// Update handles PUT /v1/spaces/:id.
func (h *SpaceHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    var body spaceBody
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    sp, err := h.space(c, body)
    if err != nil {
        return respondError(c, err)
    }
    sp.ID = id
    if err := h.store.Spaces().Update(c.Request().Context(), sp); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, sp)
}

// Delete handles DELETE /v1/spaces/:id.  Spaces with reservations answer
// 409; attached resources are unlinked.
func (h *SpaceHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    if err := h.store.Spaces().Delete(c.Request().Context(), id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ListReservations handles GET /v1/spaces/:id/reservations?date=YYYY-MM-DD.
func (h *SpaceHandler) ListReservations(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    date := strings.TrimSpace(c.QueryParam("date"))
    if date == "" {
        return respondError(c, badRequest("date is required"))
    }
    rs, err := h.reservations.ListForSpaceDay(c.Request().Context(), id, date)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, rs)
}

// ListResources handles GET /v1/spaces/:id/resources.
func (h *SpaceHandler) ListResources(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    ctx := c.Request().Context()
    if _, err := h.store.Spaces().GetByID(ctx, id); err != nil {
        return respondError(c, err)
    }
    links, err := h.store.Resources().ListBySpace(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, links)
}

// AttachResource handles PUT /v1/spaces/:id/resources/:resource_id.  The
// optional body {"status_id": n} sets the resource state, operational by
// default.
func (h *SpaceHandler) AttachResource(c echo.Context) error {
    spaceID, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    resourceID, err := pathID(c, "resource_id")
    if err != nil {
        return respondError(c, err)
    }
    var body struct {
        StatusID *uint64 `json:"status_id"`
    }
    if c.Request().ContentLength != 0 {
        if err := bind(c, &body); err != nil {
            return respondError(c, err)
        }
    }
    ctx := c.Request().Context()
    if body.StatusID == nil {
        operational := model.StatusResourceOperational
        body.StatusID = &operational
    }
    if err := checkStatusScope(ctx, h.store, *body.StatusID, model.ScopeResource); err != nil {
        return respondError(c, err)
    }
    if _, err := h.store.Spaces().GetByID(ctx, spaceID); err != nil {
        return respondError(c, err)
    }
    if _, err := h.store.Resources().GetByID(ctx, resourceID); err != nil {
        return respondError(c, err)
    }
    link := model.SpaceResource{SpaceID: spaceID, ResourceID: resourceID, StatusID: body.StatusID}
    if err := h.store.Resources().Attach(ctx, link); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, link)
}

// DetachResource handles DELETE /v1/spaces/:id/resources/:resource_id.
func (h *SpaceHandler) DetachResource(c echo.Context) error {
    spaceID, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    resourceID, err := pathID(c, "resource_id")
    if err != nil {
        return respondError(c, err)
    }
    if err := h.store.Resources().Detach(c.Request().Context(), spaceID, resourceID); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
