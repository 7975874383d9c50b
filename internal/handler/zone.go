package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/space-reservation/internal/model"
    "github.com/iliyamo/space-reservation/internal/repository"
)

// ZoneHandler serves /v1/zones.
type ZoneHandler struct {
    store repository.Store
}

// NewZoneHandler constructs a ZoneHandler and panics if store is nil.
func NewZoneHandler(store repository.Store) *ZoneHandler {
    if store == nil {
        panic("nil store passed to NewZoneHandler")
    }
    return &ZoneHandler{store: store}
}

type zoneBody struct {
    Name string `json:"name"`
}

func (b zoneBody) zone() (*model.Zone, error) {
    name := strings.TrimSpace(b.Name)
    if name == "" {
        return nil, badRequest("name is required")
    }
    if len(name) > 100 {
        return nil, badRequest("name must be at most 100 characters")
    }
    return &model.Zone{Name: name}, nil
}

// List handles GET /v1/zones.  ?q= keeps the zones whose name contains it.
func (h *ZoneHandler) List(c echo.Context) error {
    zones, err := h.store.Zones().List(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    zones = filterByTerm(zones, searchTerm(c), func(z model.Zone) []string { return []string{z.Name} })
    return c.JSON(http.StatusOK, zones)
}

// Get handles GET /v1/zones/:id.
func (h *ZoneHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    z, err := h.store.Zones().GetByID(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, z)
}

// Create handles POST /v1/zones.
func (h *ZoneHandler) Create(c echo.Context) error {
    var body zoneBody
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    z, err := body.zone()
    if err != nil {
        return respondError(c, err)
    }
    if err := h.store.Zones().Create(c.Request().Context(), z); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, z)
}

// Update handles PUT /v1/zones/:id.
func (h *ZoneHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    var body zoneBody
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    z, err := body.zone()
    if err != nil {
        return respondError(c, err)
    }
    z.ID = id
    if err := h.store.Zones().Update(c.Request().Context(), z); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, z)
}

// Delete handles DELETE /v1/zones/:id.  A zone that still holds spaces
// answers 409.
func (h *ZoneHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    if err := h.store.Zones().Delete(c.Request().Context(), id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ListSpaces handles GET /v1/zones/:id/spaces.
func (h *ZoneHandler) ListSpaces(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    ctx := c.Request().Context()
    if _, err := h.store.Zones().GetByID(ctx, id); err != nil {
        return respondError(c, err)
    }
    spaces, err := h.store.Spaces().ListByZone(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, spaces)
}

// ListResponsibles handles GET /v1/zones/:id/responsibles.
func (h *ZoneHandler) ListResponsibles(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    ctx := c.Request().Context()
    if _, err := h.store.Zones().GetByID(ctx, id); err != nil {
        return respondError(c, err)
    }
    out, err := h.store.ZoneResponsibles().ListByZone(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// AssignResponsible handles PUT /v1/zones/:id/responsibles/:rut.  Repeating
// an assignment succeeds; an unknown zone or responsible answers 404.
func (h *ZoneHandler) AssignResponsible(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    rut := strings.TrimSpace(c.Param("rut"))
    ctx := c.Request().Context()
    if _, err := h.store.Zones().GetByID(ctx, id); err != nil {
        return respondError(c, err)
    }
    if _, err := h.store.Responsibles().GetByRUT(ctx, rut); err != nil {
        return respondError(c, err)
    }
    a := model.ZoneResponsible{ZoneID: id, ResponsibleRUT: rut}
    if err := h.store.ZoneResponsibles().Assign(ctx, a); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, a)
}

// UnassignResponsible handles DELETE /v1/zones/:id/responsibles/:rut.
func (h *ZoneHandler) UnassignResponsible(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    a := model.ZoneResponsible{ZoneID: id, ResponsibleRUT: strings.TrimSpace(c.Param("rut"))}
    if err := h.store.ZoneResponsibles().Unassign(c.Request().Context(), a); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
