package handler

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "log/slog"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/space-reservation/internal/middleware"
    "github.com/iliyamo/space-reservation/internal/model"
    "github.com/iliyamo/space-reservation/internal/repository"
    "github.com/iliyamo/space-reservation/internal/repository/dynamostore"
    "github.com/iliyamo/space-reservation/internal/repository/dynamostore/dynamotest"
    "github.com/iliyamo/space-reservation/internal/service"
)

type api struct {
    t     *testing.T
    e     *echo.Echo
    store repository.Store
}

// newAPI mounts the handlers without auth middleware on a fresh
// in-memory store.
func newAPI(t *testing.T) *api {
    t.Helper()
    store := dynamostore.New(dynamotest.New(), "")
    require.NoError(t, store.EnsureTables(context.Background(), time.Second))

    svc := service.NewReservationService(store, nil, nil)
    zones := NewZoneHandler(store)
    spaces := NewSpaceHandler(store, svc)
    res := NewReservationHandler(svc)
    people := NewPersonHandler(store)
    resources := NewResourceHandler(store)
    catalog := NewCatalogHandler(store)
    dash := NewDashboardHandler(service.NewDashboardService(store, time.UTC))

    e := echo.New()
    e.GET("/healthz", NewHealthHandler(store).Health)
    e.GET("/zones", zones.List)
    e.POST("/zones", zones.Create)
    e.GET("/zones/:id", zones.Get)
    e.PUT("/zones/:id", zones.Update)
    e.DELETE("/zones/:id", zones.Delete)
    e.GET("/zones/:id/spaces", zones.ListSpaces)
    e.GET("/zones/:id/responsibles", zones.ListResponsibles)
    e.PUT("/zones/:id/responsibles/:rut", zones.AssignResponsible)
    e.DELETE("/zones/:id/responsibles/:rut", zones.UnassignResponsible)
    e.GET("/zones/:id/stats", dash.ZoneStats)
    e.GET("/spaces", spaces.List)
    e.POST("/spaces", spaces.Create)
    e.GET("/spaces/:id", spaces.Get)
    e.PUT("/spaces/:id", spaces.Update)
    e.DELETE("/spaces/:id", spaces.Delete)
    e.GET("/spaces/:id/reservations", spaces.ListReservations)
    e.GET("/spaces/:id/resources", spaces.ListResources)
    e.PUT("/spaces/:id/resources/:resource_id", spaces.AttachResource)
    e.DELETE("/spaces/:id/resources/:resource_id", spaces.DetachResource)
    e.GET("/reservations", res.List)
    e.POST("/reservations", res.Create)
    e.POST("/reservations/check", res.Check)
    e.GET("/reservations/:id", res.Get)
    e.PUT("/reservations/:id", res.Update)
    e.PATCH("/reservations/:id/status", res.ChangeStatus)
    e.DELETE("/reservations/:id", res.Delete)
    e.GET("/users", people.ListUsers)
    e.POST("/users", people.CreateUser)
    e.GET("/users/:rut", people.GetUser)
    e.PUT("/users/:rut", people.UpdateUser)
    e.DELETE("/users/:rut", people.DeleteUser)
    e.POST("/responsibles", people.CreateResponsible)
    e.GET("/responsibles", people.ListResponsibles)
    e.DELETE("/responsibles/:rut", people.DeleteResponsible)
    e.GET("/responsibles/:rut/zones", people.ListResponsibleZones)
    e.GET("/resources", resources.List)
    e.POST("/resources", resources.Create)
    e.GET("/resources/:id", resources.Get)
    e.DELETE("/resources/:id", resources.Delete)
    e.GET("/activity-types", catalog.ListActivityTypes)
    e.POST("/activity-types", catalog.CreateActivityType)
    e.GET("/statuses", catalog.ListStatuses)
    e.GET("/dashboard/stats", dash.Stats)
    return &api{t: t, e: e, store: store}
}

func (a *api) do(method, path, body string) *httptest.ResponseRecorder {
    a.t.Helper()
    var req *http.Request
    if body != "" {
        req = httptest.NewRequest(method, path, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    } else {
        req = httptest.NewRequest(method, path, nil)
    }
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
    t.Helper()
    var out T
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    return out
}

func (a *api) mustCreate(path, body string) map[string]any {
    a.t.Helper()
    rec := a.do(http.MethodPost, path, body)
    require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
    return decode[map[string]any](a.t, rec)
}

func TestHealth(t *testing.T) {
    a := newAPI(t)
    rec := a.do(http.MethodGet, "/healthz", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"status":"ok","backend":"dynamodb"}`, rec.Body.String())
}

func TestZoneLifecycle(t *testing.T) {
    a := newAPI(t)

    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/zones", `{"name":"  "}`).Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/zones", `{"name":`).Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/zones/abc", "").Code)
    assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/zones/99", "").Code)

    z := a.mustCreate("/zones", `{"name":"North wing"}`)
    assert.Equal(t, "North wing", z["name"])

    rec := a.do(http.MethodPut, "/zones/1", `{"name":"South wing"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, http.StatusNotFound, a.do(http.MethodPut, "/zones/42", `{"name":"x"}`).Code)

    a.mustCreate("/spaces", `{"zone_id":1,"number":7}`)
    rec = a.do(http.MethodGet, "/zones/1/spaces", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Len(t, decode[[]map[string]any](t, rec), 1)

    assert.Equal(t, http.StatusConflict, a.do(http.MethodDelete, "/zones/1", "").Code)
    assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/spaces/1", "").Code)
    assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/zones/1", "").Code)
}

func TestSpaceValidation(t *testing.T) {
    a := newAPI(t)

    sp := a.mustCreate("/spaces", `{"number":3,"activity":"meetings"}`)
    assert.EqualValues(t, 5, sp["status_id"], "defaults to available")

    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/spaces", `{"number":0}`).Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/spaces", `{"number":4,"zone_id":9}`).Code)

    rec := a.do(http.MethodPost, "/spaces", `{"number":4,"status_id":2}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "not a space status")

    a.mustCreate("/zones", `{"name":"A"}`)
    a.mustCreate("/spaces", `{"zone_id":1,"number":10}`)
    assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/spaces", `{"zone_id":1,"number":10}`).Code)

    rec = a.do(http.MethodGet, "/spaces?zone_id=1", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestReservationOverlap(t *testing.T) {
    a := newAPI(t)
    a.mustCreate("/spaces", `{"number":1}`)

    first := a.mustCreate("/reservations", `{"space_id":1,"status_id":2,"date":"2025-05-02","start_time":"09:00","end_time":"10:00"}`)
    assert.Equal(t, "09:00", first["start_time"])

    rec := a.do(http.MethodPost, "/reservations", `{"space_id":1,"status_id":2,"date":"2025-05-02","start_time":"09:30","end_time":"10:30"}`)
    require.Equal(t, http.StatusConflict, rec.Code)
    body := decode[map[string]any](t, rec)
    conflicts := body["conflicts"].([]any)
    require.Len(t, conflicts, 1)
    assert.EqualValues(t, first["id"], conflicts[0].(map[string]any)["id"])

    // Touching the end of the first booking is fine.
    a.mustCreate("/reservations", `{"space_id":1,"status_id":2,"date":"2025-05-02","start_time":"10:00","end_time":"11:00"}`)

    rec = a.do(http.MethodPost, "/reservations", `{"space_id":1,"date":"2025-05-02","start_time":"12:00","end_time":"11:00"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = a.do(http.MethodGet, "/spaces/1/reservations?date=2025-05-02", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Len(t, decode[[]map[string]any](t, rec), 2)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/spaces/1/reservations", "").Code)
}

func TestReservationCheckAndStatus(t *testing.T) {
    a := newAPI(t)
    a.mustCreate("/spaces", `{"number":1}`)
    a.mustCreate("/reservations", `{"space_id":1,"status_id":2,"date":"2025-05-02","start_time":"09:00","end_time":"10:00"}`)

    slot := `{"space_id":1,"date":"2025-05-02","start_time":"09:15","end_time":"09:45"}`
    rec := a.do(http.MethodPost, "/reservations/check", slot)
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, false, decode[map[string]any](t, rec)["available"])

    rec = a.do(http.MethodPost, "/reservations/check", `{"space_id":1,"date":"2025-05-02","start_time":"09:15","end_time":"09:45","exclude_id":1}`)
    assert.Equal(t, http.StatusOK, rec.Code)

    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPatch, "/reservations/1/status", `{}`).Code)
    rec = a.do(http.MethodPatch, "/reservations/1/status", `{"status_id":3}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 3, decode[map[string]any](t, rec)["status_id"])

    rec = a.do(http.MethodPost, "/reservations/check", slot)
    assert.Equal(t, http.StatusOK, rec.Code, "cancelled bookings do not block")

    assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/reservations/1", "").Code)
    assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/reservations/1", "").Code)
}

func TestReservationList(t *testing.T) {
    a := newAPI(t)
    a.mustCreate("/spaces", `{"number":1}`)
    a.mustCreate("/spaces", `{"number":2}`)
    for _, b := range []string{
        `{"space_id":1,"status_id":2,"date":"2025-05-01","start_time":"09:00","end_time":"10:00"}`,
        `{"space_id":1,"status_id":1,"date":"2025-05-03","start_time":"09:00","end_time":"10:00"}`,
        `{"space_id":2,"status_id":2,"date":"2025-05-02","start_time":"09:00","end_time":"10:00"}`,
    } {
        a.mustCreate("/reservations", b)
    }

    rec := a.do(http.MethodGet, "/reservations?limit=2", "")
    require.Equal(t, http.StatusOK, rec.Code)
    page := decode[service.ReservationPage](t, rec)
    assert.Equal(t, 3, page.Total)
    require.Len(t, page.Items, 2)
    assert.Equal(t, "2025-05-03", page.Items[0].Date.String())

    rec = a.do(http.MethodGet, "/reservations?status_id=2&from=2025-05-02", "")
    require.Equal(t, http.StatusOK, rec.Code)
    page = decode[service.ReservationPage](t, rec)
    require.Len(t, page.Items, 1)
    assert.EqualValues(t, 2, page.Items[0].SpaceID)

    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/reservations?from=05/02/2025", "").Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/reservations?limit=-1", "").Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/reservations?from=2025-05-03&to=2025-05-01", "").Code)
}

func TestPeople(t *testing.T) {
    a := newAPI(t)
    a.mustCreate("/users", `{"rut":"12345678-9","first_name":"Ana","last_name":"Rojas","birth_date":"1990-04-01"}`)
    assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/users", `{"rut":"12345678-9","first_name":"Ana","last_name":"Rojas"}`).Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/users", `{"rut":"1","first_name":"A","last_name":"B","birth_date":"01-04-1990"}`).Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/users", `{"rut":"123456789012","first_name":"A","last_name":"B"}`).Code)

    rec := a.do(http.MethodPut, "/users/12345678-9", `{"first_name":"Ana María","last_name":"Rojas"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    rec = a.do(http.MethodGet, "/users/12345678-9", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "Ana María", decode[map[string]any](t, rec)["first_name"])

    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/responsibles", `{"rut":"2-7","first_name":"L","last_name":"P","activity_type_id":5}`).Code)
    a.mustCreate("/activity-types", `{"name":"Workshop"}`)
    a.mustCreate("/responsibles", `{"rut":"2-7","first_name":"L","last_name":"P","activity_type_id":1}`)

    a.mustCreate("/spaces", `{"number":1}`)
    a.mustCreate("/reservations", `{"space_id":1,"user_rut":"12345678-9","date":"2025-05-02","start_time":"09:00","end_time":"10:00"}`)
    assert.Equal(t, http.StatusConflict, a.do(http.MethodDelete, "/users/12345678-9", "").Code)
}

func TestSpaceResources(t *testing.T) {
    a := newAPI(t)
    a.mustCreate("/spaces", `{"number":1}`)
    a.mustCreate("/resources", `{"name":"Projector"}`)

    assert.Equal(t, http.StatusNotFound, a.do(http.MethodPut, "/spaces/1/resources/9", "").Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, "/spaces/1/resources/1", `{"status_id":5}`).Code)

    rec := a.do(http.MethodPut, "/spaces/1/resources/1", "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.EqualValues(t, 7, decode[map[string]any](t, rec)["status_id"])

    rec = a.do(http.MethodPut, "/spaces/1/resources/1", `{"status_id":8}`)
    require.Equal(t, http.StatusOK, rec.Code)

    rec = a.do(http.MethodGet, "/spaces/1/resources", "")
    require.Equal(t, http.StatusOK, rec.Code)
    links := decode[[]map[string]any](t, rec)
    require.Len(t, links, 1)
    assert.EqualValues(t, 8, links[0]["status_id"])

    assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/spaces/1/resources/1", "").Code)
    rec = a.do(http.MethodGet, "/spaces/1/resources", "")
    assert.Empty(t, decode[[]map[string]any](t, rec))
}

func TestStatuses(t *testing.T) {
    a := newAPI(t)
    rec := a.do(http.MethodGet, "/statuses", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Len(t, decode[[]map[string]any](t, rec), 8)

    rec = a.do(http.MethodGet, "/statuses?scope=SPACE", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Len(t, decode[[]map[string]any](t, rec), 2)

    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/statuses?scope=room", "").Code)
}

func TestDashboardStats(t *testing.T) {
    a := newAPI(t)
    a.mustCreate("/zones", `{"name":"A"}`)
    a.mustCreate("/spaces", `{"zone_id":1,"number":1}`)

    rec := a.do(http.MethodGet, "/dashboard/stats", "")
    require.Equal(t, http.StatusOK, rec.Code)
    snap := decode[service.Snapshot](t, rec)
    assert.Equal(t, 1, snap.Totals.Spaces)
    assert.Equal(t, 1, snap.Totals.Zones)
}

func TestZoneResponsibles(t *testing.T) {
    a := newAPI(t)
    a.mustCreate("/zones", `{"name":"North"}`)
    a.mustCreate("/zones", `{"name":"East"}`)
    a.mustCreate("/responsibles", `{"rut":"11-1","first_name":"Ana","last_name":"Soto"}`)
    a.mustCreate("/responsibles", `{"rut":"22-2","first_name":"Luis","last_name":"Araya"}`)

    assert.Equal(t, http.StatusNotFound, a.do(http.MethodPut, "/zones/9/responsibles/11-1", "").Code)
    assert.Equal(t, http.StatusNotFound, a.do(http.MethodPut, "/zones/1/responsibles/99-9", "").Code)

    rec := a.do(http.MethodPut, "/zones/1/responsibles/11-1", "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, "11-1", decode[map[string]any](t, rec)["responsible_rut"])
    assert.Equal(t, http.StatusOK, a.do(http.MethodPut, "/zones/1/responsibles/11-1", "").Code, "assigning twice is fine")
    assert.Equal(t, http.StatusOK, a.do(http.MethodPut, "/zones/1/responsibles/22-2", "").Code)
    assert.Equal(t, http.StatusOK, a.do(http.MethodPut, "/zones/2/responsibles/11-1", "").Code)

    rec = a.do(http.MethodGet, "/zones/1/responsibles", "")
    require.Equal(t, http.StatusOK, rec.Code)
    people := decode[[]model.Responsible](t, rec)
    require.Len(t, people, 2)
    assert.Equal(t, "Araya", people[0].LastName)

    rec = a.do(http.MethodGet, "/responsibles/11-1/zones", "")
    require.Equal(t, http.StatusOK, rec.Code)
    zones := decode[[]model.Zone](t, rec)
    require.Len(t, zones, 2)
    assert.Equal(t, "East", zones[0].Name)
    assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/responsibles/99-9/zones", "").Code)
    assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/zones/9/responsibles", "").Code)

    assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/zones/1/responsibles/22-2", "").Code)
    assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/zones/1/responsibles/22-2", "").Code)

    require.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/responsibles/11-1", "").Code)
    rec = a.do(http.MethodGet, "/zones/1/responsibles", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, decode[[]model.Responsible](t, rec))
}

func TestSearchTerm(t *testing.T) {
    a := newAPI(t)
    a.mustCreate("/zones", `{"name":"North wing"}`)
    a.mustCreate("/zones", `{"name":"South wing"}`)
    a.mustCreate("/users", `{"rut":"12345678-9","first_name":"Ana","last_name":"Rojas"}`)
    a.mustCreate("/users", `{"rut":"7654321-0","first_name":"Pedro","last_name":"Soto"}`)
    a.mustCreate("/responsibles", `{"rut":"11-1","first_name":"Luis","last_name":"Araya"}`)
    a.mustCreate("/resources", `{"name":"Screen","description":"Wall mounted projector screen"}`)
    a.mustCreate("/resources", `{"name":"Whiteboard"}`)

    count := func(path string) int {
        rec := a.do(http.MethodGet, path, "")
        require.Equal(t, http.StatusOK, rec.Code, path)
        return len(decode[[]map[string]any](t, rec))
    }
    assert.Equal(t, 2, count("/zones"))
    assert.Equal(t, 1, count("/zones?q=NORTH"))
    assert.Equal(t, 2, count("/zones?q=wing"))
    assert.Equal(t, 0, count("/zones?q=east"))
    assert.Equal(t, 1, count("/users?q=soto"))
    assert.Equal(t, 1, count("/users?q=5678-9"))
    assert.Equal(t, 1, count("/responsibles?q=luis"))
    assert.Equal(t, 0, count("/responsibles?q=ana"))
    assert.Equal(t, 1, count("/resources?q=projector"))
    assert.Equal(t, 2, count("/resources?q=%20"))
}

func TestZoneStatsEndpoint(t *testing.T) {
    a := newAPI(t)
    a.mustCreate("/zones", `{"name":"A"}`)
    a.mustCreate("/spaces", `{"zone_id":1,"number":1}`)
    a.mustCreate("/reservations", `{"space_id":1,"status_id":2,"date":"2025-05-02","start_time":"09:00","end_time":"10:00"}`)
    a.mustCreate("/reservations", `{"space_id":1,"status_id":2,"date":"2025-06-02","start_time":"09:00","end_time":"10:00"}`)

    rec := a.do(http.MethodGet, "/zones/1/stats?from=2025-05-01&to=2025-05-31", "")
    require.Equal(t, http.StatusOK, rec.Code)
    stats := decode[service.ZoneStats](t, rec)
    assert.Equal(t, 1, stats.TotalSpaces)
    assert.Equal(t, 1, stats.TotalReservations)
    require.NotNil(t, stats.BusiestSpace)
    assert.EqualValues(t, 1, stats.BusiestSpace.SpaceID)

    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/zones/1/stats?from=May", "").Code)
    assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/zones/1/stats?from=2025-06-01&to=2025-05-01", "").Code)
    assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/zones/7/stats", "").Code)
}

// failingZones breaks the zone listing with an unexpected error.
type failingZones struct {
    repository.ZoneRepository
}

func (failingZones) List(context.Context) ([]model.Zone, error) {
    return nil, errors.New("dynamodb: throughput exceeded")
}

type failingStore struct {
    repository.Store
}

func (s failingStore) Zones() repository.ZoneRepository {
    return failingZones{s.Store.Zones()}
}

func TestInternalErrorsReachRequestLog(t *testing.T) {
    a := newAPI(t)
    var logs bytes.Buffer
    e := echo.New()
    e.Use(middleware.RequestLogger(slog.New(slog.NewJSONHandler(&logs, nil))))
    e.GET("/zones", NewZoneHandler(failingStore{a.store}).List)

    req := httptest.NewRequest(http.MethodGet, "/zones", nil)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)

    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
    assert.NotContains(t, rec.Body.String(), "throughput")
    assert.Contains(t, logs.String(), `"level":"ERROR"`)
    assert.Contains(t, logs.String(), "dynamodb: throughput exceeded")
}
