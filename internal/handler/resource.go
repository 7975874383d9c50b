package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/space-reservation/internal/model"
    "github.com/iliyamo/space-reservation/internal/repository"
)

// ResourceHandler serves /v1/resources.  Linking resources to spaces is
// done through SpaceHandler.
type ResourceHandler struct {
    store repository.Store
}

// NewResourceHandler panics when store is nil.
func NewResourceHandler(store repository.Store) *ResourceHandler {
    if store == nil {
        panic("nil store passed to NewResourceHandler")
    }
    return &ResourceHandler{store: store}
}

type resourceBody struct {
    Name        string `json:"name"`
    Description string `json:"description"`
}

func (b resourceBody) resource() (*model.Resource, error) {
    name := strings.TrimSpace(b.Name)
    if name == "" {
        return nil, badRequest("name is required")
    }
    return &model.Resource{Name: name, Description: strings.TrimSpace(b.Description)}, nil
}

// List handles GET /v1/resources.  ?q= matches name and description.
func (h *ResourceHandler) List(c echo.Context) error {
    out, err := h.store.Resources().List(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    out = filterByTerm(out, searchTerm(c), func(r model.Resource) []string { return []string{r.Name, r.Description} })
    return c.JSON(http.StatusOK, out)
}

func (h *ResourceHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    r, err := h.store.Resources().GetByID(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

func (h *ResourceHandler) Create(c echo.Context) error {
    var body resourceBody
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    r, err := body.resource()
    if err != nil {
        return respondError(c, err)
    }
    if err := h.store.Resources().Create(c.Request().Context(), r); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, r)
}

func (h *ResourceHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    var body resourceBody
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    r, err := body.resource()
    if err != nil {
        return respondError(c, err)
    }
    r.ID = id
    if err := h.store.Resources().Update(c.Request().Context(), r); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

// Delete removes a resource together with its space links.
func (h *ResourceHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return respondError(c, err)
    }
    if err := h.store.Resources().Delete(c.Request().Context(), id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
