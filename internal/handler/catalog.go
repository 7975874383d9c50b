package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/space-reservation/internal/model"
    "github.com/iliyamo/space-reservation/internal/repository"
)

// CatalogHandler serves the lookup tables: activity types and statuses.
// Their GET routes sit behind the response cache.
type CatalogHandler struct {
    store repository.Store
}

// NewCatalogHandler panics when store is nil.
func NewCatalogHandler(store repository.Store) *CatalogHandler {
    if store == nil {
        panic("nil store passed to NewCatalogHandler")
    }
    return &CatalogHandler{store: store}
}

// ListActivityTypes handles GET /v1/activity-types.
func (h *CatalogHandler) ListActivityTypes(c echo.Context) error {
    out, err := h.store.ActivityTypes().List(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// CreateActivityType handles POST /v1/activity-types.
func (h *CatalogHandler) CreateActivityType(c echo.Context) error {
    var body struct {
        Name string `json:"name"`
    }
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    name := strings.TrimSpace(body.Name)
    if name == "" {
        return respondError(c, badRequest("name is required"))
    }
    a := &model.ActivityType{Name: name}
    if err := h.store.ActivityTypes().Create(c.Request().Context(), a); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, a)
}

// DeleteActivityType handles DELETE /v1/activity-types/:id.  Types still
// used by a responsible answer 409.
func (h *CatalogHandler) DeleteActivityType(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    if err := h.store.ActivityTypes().Delete(c.Request().Context(), id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ListStatuses handles GET /v1/statuses?scope=reservation|space|resource.
func (h *CatalogHandler) ListStatuses(c echo.Context) error {
    ctx := c.Request().Context()
    scope := model.StatusScope(strings.ToLower(strings.TrimSpace(c.QueryParam("scope"))))
    var (
        out []model.Status
        err error
    )
    switch {
    case scope == "":
        out, err = h.store.Statuses().List(ctx)
    case scope.Valid():
        out, err = h.store.Statuses().ListByScope(ctx, scope)
    default:
        err = badRequest("scope must be reservation, space or resource")
    }
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}
