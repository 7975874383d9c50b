package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/space-reservation/internal/model"
    "github.com/iliyamo/space-reservation/internal/repository"
)

// PersonHandler serves /v1/users and /v1/responsibles, both keyed by RUT.
type PersonHandler struct {
    store repository.Store
}

// NewPersonHandler panics when store is nil.
func NewPersonHandler(store repository.Store) *PersonHandler {
    if store == nil {
        panic("nil store passed to NewPersonHandler")
    }
    return &PersonHandler{store: store}
}

type personBody struct {
    RUT            string  `json:"rut"`
    FirstName      string  `json:"first_name"`
    LastName       string  `json:"last_name"`
    BirthDate      *string `json:"birth_date"`
    ActivityTypeID *uint64 `json:"activity_type_id"`
}

// validate trims the body in place.  rut is the path key on updates and
// overrides the body.
func (b *personBody) validate(rut string) error {
    if rut != "" {
        b.RUT = rut
    }
    b.RUT = strings.TrimSpace(b.RUT)
    b.FirstName = strings.TrimSpace(b.FirstName)
    b.LastName = strings.TrimSpace(b.LastName)
    b.BirthDate = trimmed(b.BirthDate)
    switch {
    case b.RUT == "":
        return badRequest("rut is required")
    case len(b.RUT) > model.MaxRUTLength:
        return badRequest("rut must be at most %d characters", model.MaxRUTLength)
    case b.FirstName == "" || b.LastName == "":
        return badRequest("first_name and last_name are required")
    }
    return validBirthDate(b.BirthDate)
}

func (b personBody) user() *model.User {
    return &model.User{RUT: b.RUT, FirstName: b.FirstName, LastName: b.LastName, BirthDate: b.BirthDate}
}

func (b personBody) responsible() *model.Responsible {
    return &model.Responsible{
        RUT:            b.RUT,
        ActivityTypeID: b.ActivityTypeID,
        FirstName:      b.FirstName,
        LastName:       b.LastName,
        BirthDate:      b.BirthDate,
    }
}

func userFields(u model.User) []string { return []string{u.RUT, u.FirstName, u.LastName} }

func responsibleFields(p model.Responsible) []string {
    return []string{p.RUT, p.FirstName, p.LastName}
}

// ListUsers handles GET /v1/users.  ?q= matches RUT and names.
func (h *PersonHandler) ListUsers(c echo.Context) error {
    users, err := h.store.Users().List(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, filterByTerm(users, searchTerm(c), userFields))
}

// GetUser handles GET /v1/users/:rut.
func (h *PersonHandler) GetUser(c echo.Context) error {
    u, err := h.store.Users().GetByRUT(c.Request().Context(), c.Param("rut"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, u)
}

// CreateUser handles POST /v1/users; a reused RUT answers 409.
func (h *PersonHandler) CreateUser(c echo.Context) error {
    var body personBody
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    if err := body.validate(""); err != nil {
        return respondError(c, err)
    }
    u := body.user()
    if err := h.store.Users().Create(c.Request().Context(), u); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, u)
}

// UpdateUser handles PUT /v1/users/:rut.
func (h *PersonHandler) UpdateUser(c echo.Context) error {
    var body personBody
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    if err := body.validate(c.Param("rut")); err != nil {
        return respondError(c, err)
    }
    u := body.user()
    if err := h.store.Users().Update(c.Request().Context(), u); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, u)
}

// DeleteUser handles DELETE /v1/users/:rut.
func (h *PersonHandler) DeleteUser(c echo.Context) error {
    if err := h.store.Users().Delete(c.Request().Context(), c.Param("rut")); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ListResponsibles handles GET /v1/responsibles.  ?q= matches RUT and names.
func (h *PersonHandler) ListResponsibles(c echo.Context) error {
    out, err := h.store.Responsibles().List(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, filterByTerm(out, searchTerm(c), responsibleFields))
}

// ListResponsibleZones handles GET /v1/responsibles/:rut/zones.
func (h *PersonHandler) ListResponsibleZones(c echo.Context) error {
    ctx := c.Request().Context()
    rut := c.Param("rut")
    if _, err := h.store.Responsibles().GetByRUT(ctx, rut); err != nil {
        return respondError(c, err)
    }
    zones, err := h.store.ZoneResponsibles().ListByResponsible(ctx, rut)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, zones)
}

// GetResponsible handles GET /v1/responsibles/:rut.
func (h *PersonHandler) GetResponsible(c echo.Context) error {
    p, err := h.store.Responsibles().GetByRUT(c.Request().Context(), c.Param("rut"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, p)
}

func (h *PersonHandler) checkActivityType(c echo.Context, id *uint64) error {
    if id == nil {
        return nil
    }
    if _, err := h.store.ActivityTypes().GetByID(c.Request().Context(), *id); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return badRequest("unknown activity_type_id %d", *id)
        }
        return err
    }
    return nil
}

// CreateResponsible handles POST /v1/responsibles.
func (h *PersonHandler) CreateResponsible(c echo.Context) error {
    var body personBody
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    if err := body.validate(""); err != nil {
        return respondError(c, err)
    }
    if err := h.checkActivityType(c, body.ActivityTypeID); err != nil {
        return respondError(c, err)
    }
    p := body.responsible()
    if err := h.store.Responsibles().Create(c.Request().Context(), p); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, p)
}

// UpdateResponsible handles PUT /v1/responsibles/:rut.
func (h *PersonHandler) UpdateResponsible(c echo.Context) error {
    var body personBody
    if err := bind(c, &body); err != nil {
        return respondError(c, err)
    }
    if err := body.validate(c.Param("rut")); err != nil {
        return respondError(c, err)
    }
    if err := h.checkActivityType(c, body.ActivityTypeID); err != nil {
        return respondError(c, err)
    }
    p := body.responsible()
    if err := h.store.Responsibles().Update(c.Request().Context(), p); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, p)
}

// DeleteResponsible handles DELETE /v1/responsibles/:rut.
func (h *PersonHandler) DeleteResponsible(c echo.Context) error {
    if err := h.store.Responsibles().Delete(c.Request().Context(), c.Param("rut")); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
