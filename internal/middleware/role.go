package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Roles carried in the "role" claim.
const (
    RoleAdmin    = "ADMIN"
    RoleOperator = "OPERATOR"
    RoleViewer   = "VIEWER"
)

// WriteRoles may create, change and delete records.
var WriteRoles = []string{RoleAdmin, RoleOperator}

// ReadRoles may read every resource.
var ReadRoles = []string{RoleAdmin, RoleOperator, RoleViewer}

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It assumes JWTAuth
// ran before it and stored the role in the context.  Requests with a
// missing or unlisted role are aborted with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !allowed[role(c)] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
