package middleware

// identity.go holds the helpers that read what JWTAuth stored in the echo
// context.  Rate-limit keys and request logs use them.

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
    CtxUserID = "user_id"
    CtxRole   = "role"
)

// userID returns the authenticated subject, or "guest" when the request
// carries no token.
func userID(c echo.Context) string {
    if v, ok := c.Get(CtxUserID).(string); ok && v != "" {
        return v
    }
    return "guest"
}

// role returns the authenticated role, or "" when unknown.
func role(c echo.Context) string {
    v, _ := c.Get(CtxRole).(string)
    return v
}
