package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role claims into the request context.
// Handlers and later middleware read them through c.Get(CtxUserID) and
// c.Get(CtxRole), both as strings.
func JWTAuth(secret string) echo.MiddlewareFunc {
    keyFunc := func(t *jwt.Token) (interface{}, error) {
        // Only HMAC tokens are accepted; anything else is rejected before
        // the signature is checked.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(secret), nil
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := bearerToken(c)
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }

            tok, err := jwt.Parse(raw, keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            sub, err := claims.GetSubject()
            if err != nil || sub == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            roleName, _ := claims["role"].(string)

            c.Set(CtxUserID, sub)
            c.Set(CtxRole, strings.ToUpper(roleName))
            return next(c)
        }
    }
}

// bearerToken reads the Authorization header.  Browsers cannot set headers
// on a WebSocket handshake, so upgrade requests may pass ?access_token=.
func bearerToken(c echo.Context) string {
    if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
        return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    }
    if strings.EqualFold(c.Request().Header.Get("Upgrade"), "websocket") {
        return c.QueryParam("access_token")
    }
    return ""
}
