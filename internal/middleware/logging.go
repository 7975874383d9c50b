package middleware

import (
    "log/slog"
    "net/url"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
)

// RequestID tags every request with an X-Request-ID, reusing the client's
// value when one is sent.
func RequestID() echo.MiddlewareFunc {
    return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
        Generator: func() string { return uuid.NewString() },
    })
}

// redactedParams never reach the access log.
var redactedParams = []string{"access_token"}

// loggedURI is the request path and query with credentials masked.
func loggedURI(u *url.URL) string {
    q := u.Query()
    masked := false
    for _, name := range redactedParams {
        if q.Has(name) {
            q.Set(name, "REDACTED")
            masked = true
        }
    }
    if !masked {
        return u.RequestURI()
    }
    return u.EscapedPath() + "?" + q.Encode()
}

// RequestLogger writes one structured access-log line per request.  Tokens
// passed in the query string are masked.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            level := slog.LevelInfo
            switch {
            case v.Status >= 500 || v.Error != nil && v.Status == 0:
                level = slog.LevelError
            case v.Status >= 400:
                level = slog.LevelWarn
            }
            attrs := []slog.Attr{
                slog.String("method", v.Method),
                slog.String("uri", loggedURI(c.Request().URL)),
                slog.Int("status", v.Status),
                slog.Duration("latency", v.Latency),
                slog.String("remote_ip", v.RemoteIP),
                slog.String("request_id", v.RequestID),
                slog.String("user", userID(c)),
            }
            if v.Error != nil {
                attrs = append(attrs, slog.String("err", v.Error.Error()))
            }
            logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
            return nil
        },
    })
}
