package handler // handler defines http handlers

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/space-reservation/internal/model"
    "github.com/iliyamo/space-reservation/internal/repository"
    "github.com/iliyamo/space-reservation/internal/schedule"
    "github.com/iliyamo/space-reservation/internal/service"
)

// errBadRequest is returned by the parsing helpers and mapped to 400.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
    return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// respondError translates service and repository errors into the JSON
// error body used by every endpoint.  Unknown errors become 500; their text
// is not exposed to the client but is returned so the request logger
// records it.  The response is already committed, so echo's error handler
// leaves it alone.
func respondError(c echo.Context, err error) error {
    var overlap *service.OverlapError
    switch {
    case errors.As(err, &overlap):
        return c.JSON(http.StatusConflict, echo.Map{
            "error":     service.ErrOverlap.Error(),
            "conflicts": overlap.Conflicts,
        })
    case errors.Is(err, errBadRequest), errors.Is(err, service.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, repository.ErrDuplicate):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    }
    if werr := c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"}); werr != nil {
        return werr
    }
    return err
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, badRequest("invalid %s", name)
    }
    return id, nil
}

// queryUint parses an optional numeric query parameter; absent means 0.
func queryUint(c echo.Context, name string) (uint64, error) {
    raw := strings.TrimSpace(c.QueryParam(name))
    if raw == "" {
        return 0, nil
    }
    n, err := strconv.ParseUint(raw, 10, 64)
    if err != nil {
        return 0, badRequest("%s must be a positive integer", name)
    }
    return n, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, error) {
    raw := strings.TrimSpace(c.QueryParam(name))
    if raw == "" {
        return def, nil
    }
    n, err := strconv.Atoi(raw)
    if err != nil || n < 0 {
        return 0, badRequest("%s must be a non-negative integer", name)
    }
    return n, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c echo.Context, name string) (*schedule.Date, error) {
    raw := strings.TrimSpace(c.QueryParam(name))
    if raw == "" {
        return nil, nil
    }
    d, err := schedule.ParseDate(raw)
    if err != nil {
        return nil, badRequest("%s must be YYYY-MM-DD", name)
    }
    return &d, nil
}

// bind decodes the request body, reporting a uniform 400 message.
func bind(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        return badRequest("invalid request body")
    }
    return nil
}

// checkStatusScope verifies that statusID exists and belongs to scope.
func checkStatusScope(ctx context.Context, store repository.Store, statusID uint64, scope model.StatusScope) error {
    st, err := store.Statuses().GetByID(ctx, statusID)
    if errors.Is(err, repository.ErrNotFound) {
        return badRequest("unknown status_id %d", statusID)
    }
    if err != nil {
        return err
    }
    if st.Scope != scope {
        return badRequest("status_id %d is not a %s status", statusID, scope)
    }
    return nil
}

// trimmed returns nil for nil or blank strings.
func trimmed(p *string) *string {
    if p == nil {
        return nil
    }
    v := strings.TrimSpace(*p)
    if v == "" {
        return nil
    }
    return &v
}

// searchTerm returns the trimmed, lowercased ?q= parameter.
func searchTerm(c echo.Context) string {
    return strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
}

// filterByTerm keeps the items one of whose fields contains term, ignoring
// case.  An empty term keeps everything.
func filterByTerm[T any](items []T, term string, fields func(T) []string) []T {
    if term == "" {
        return items
    }
    out := make([]T, 0, len(items))
    for _, it := range items {
        for _, f := range fields(it) {
            if strings.Contains(strings.ToLower(f), term) {
                out = append(out, it)
                break
            }
        }
    }
    return out
}

// validBirthDate accepts nil or a YYYY-MM-DD date.
func validBirthDate(p *string) error {
    if p == nil {
        return nil
    }
    if _, err := schedule.ParseDate(*p); err != nil {
        return badRequest("birth_date must be YYYY-MM-DD")
    }
    return nil
}
