package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/space-reservation/internal/handler"
    "github.com/iliyamo/space-reservation/internal/middleware"
    "github.com/iliyamo/space-reservation/internal/realtime"
)

// Handlers bundles every HTTP handler of the API.
type Handlers struct {
    Health       *handler.HealthHandler
    Zones        *handler.ZoneHandler
    Spaces       *handler.SpaceHandler
    Reservations *handler.ReservationHandler
    People       *handler.PersonHandler
    Resources    *handler.ResourceHandler
    Catalog      *handler.CatalogHandler
    Dashboard    *handler.DashboardHandler
    Hub          *realtime.Hub
}

// Options carries the cross-cutting middleware.  Cache and RateLimit may
// be nil to disable them.
type Options struct {
    JWTSecret string
    Cache     echo.MiddlewareFunc
    RateLimit echo.MiddlewareFunc
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// Register mounts the public health check and the authenticated /v1 API.
// Reads accept ADMIN, OPERATOR and VIEWER; writes need ADMIN or OPERATOR.
func Register(e *echo.Echo, h Handlers, opts Options) {
    cache, limit := opts.Cache, opts.RateLimit
    if cache == nil {
        cache = passThrough
    }
    if limit == nil {
        limit = passThrough
    }

    e.GET("/healthz", h.Health.Health)

    v1 := e.Group("/v1", middleware.JWTAuth(opts.JWTSecret), limit)
    read := v1.Group("", middleware.RequireRole(middleware.ReadRoles...))
    write := v1.Group("", middleware.RequireRole(middleware.WriteRoles...))

    // ---- Zones ----
    read.GET("/zones", h.Zones.List)
    read.GET("/zones/:id", h.Zones.Get)
    read.GET("/zones/:id/spaces", h.Zones.ListSpaces)
    read.GET("/zones/:id/responsibles", h.Zones.ListResponsibles)
    read.GET("/zones/:id/stats", h.Dashboard.ZoneStats, cache)
    write.POST("/zones", h.Zones.Create)
    write.PUT("/zones/:id", h.Zones.Update)
    write.DELETE("/zones/:id", h.Zones.Delete)
    write.PUT("/zones/:id/responsibles/:rut", h.Zones.AssignResponsible)
    write.DELETE("/zones/:id/responsibles/:rut", h.Zones.UnassignResponsible)

    // ---- Spaces ----
    read.GET("/spaces", h.Spaces.List)
    read.GET("/spaces/:id", h.Spaces.Get)
    read.GET("/spaces/:id/reservations", h.Spaces.ListReservations)
    read.GET("/spaces/:id/resources", h.Spaces.ListResources)
    write.POST("/spaces", h.Spaces.Create)
    write.PUT("/spaces/:id", h.Spaces.Update)
    write.DELETE("/spaces/:id", h.Spaces.Delete)
    write.PUT("/spaces/:id/resources/:resource_id", h.Spaces.AttachResource)
    write.DELETE("/spaces/:id/resources/:resource_id", h.Spaces.DetachResource)

    // ---- Reservations ----
    read.GET("/reservations", h.Reservations.List)
    read.GET("/reservations/:id", h.Reservations.Get)
    read.POST("/reservations/check", h.Reservations.Check) // dry run, writes nothing
    write.POST("/reservations", h.Reservations.Create)
    write.PUT("/reservations/:id", h.Reservations.Update)
    write.PATCH("/reservations/:id/status", h.Reservations.ChangeStatus)
    write.DELETE("/reservations/:id", h.Reservations.Delete)

    // ---- People ----
    read.GET("/users", h.People.ListUsers)
    read.GET("/users/:rut", h.People.GetUser)
    write.POST("/users", h.People.CreateUser)
    write.PUT("/users/:rut", h.People.UpdateUser)
    write.DELETE("/users/:rut", h.People.DeleteUser)
    read.GET("/responsibles", h.People.ListResponsibles)
    read.GET("/responsibles/:rut", h.People.GetResponsible)
    read.GET("/responsibles/:rut/zones", h.People.ListResponsibleZones)
    write.POST("/responsibles", h.People.CreateResponsible)
    write.PUT("/responsibles/:rut", h.People.UpdateResponsible)
    write.DELETE("/responsibles/:rut", h.People.DeleteResponsible)

    // ---- Resources ----
    read.GET("/resources", h.Resources.List)
    read.GET("/resources/:id", h.Resources.Get)
    write.POST("/resources", h.Resources.Create)
    write.PUT("/resources/:id", h.Resources.Update)
    write.DELETE("/resources/:id", h.Resources.Delete)

    // ---- Catalog (cached; writes purge the cache) ----
    read.GET("/activity-types", h.Catalog.ListActivityTypes, cache)
    read.GET("/statuses", h.Catalog.ListStatuses, cache)
    write.POST("/activity-types", h.Catalog.CreateActivityType, cache)
    write.DELETE("/activity-types/:id", h.Catalog.DeleteActivityType, cache)

    // ---- Dashboard ----
    read.GET("/dashboard/stats", h.Dashboard.Stats, cache)
    read.GET("/dashboard/ws", h.Hub.ServeWS)
}
