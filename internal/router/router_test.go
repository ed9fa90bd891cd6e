package router

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/car-marketplace/internal/config"
    "github.com/iliyamo/car-marketplace/internal/handler"
    "github.com/iliyamo/car-marketplace/internal/model"
    "github.com/iliyamo/car-marketplace/internal/service"
    "github.com/iliyamo/car-marketplace/internal/storetest"
    "github.com/iliyamo/car-marketplace/internal/utils"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type app struct {
    e      *echo.Echo
    stores *storetest.Stores
}

func newApp(t *testing.T, db handler.Pinger) *app {
    t.Helper()
    st := storetest.New()
    log := zerolog.Nop()
    tokens := service.NewTokenService(st.Users, "access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
    cars := service.NewCarService(st.Cars, st.Users, st.Events, log)
    leads := service.NewLeadService(st.Leads, st.Cars, st.Events, log)
    users := service.NewUserService(st.Users, bcrypt.MinCost, log)
    settings := service.NewSettingsService(st.Settings)
    auth := service.NewAuthService(st.Users, tokens, bcrypt.MinCost, log)

    e := New(Deps{
        Config: config.Config{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
        Log:    log,
        Tokens: tokens,
        Cars:   cars,
        Auth:   handler.NewAuthHandler(auth, tokens),
        Public: handler.NewPublicHandler(cars, leads, settings),
        Owner:  handler.NewOwnerHandler(cars),
        Admin:  handler.NewAdminHandler(cars, leads, users, settings),
        Health: handler.NewHealthHandler(db, "test"),
    })
    return &app{e: e, stores: st}
}

type response struct {
    Success bool            `json:"success"`
    Data    json.RawMessage `json:"data"`
    Error   *struct {
        Message string `json:"message"`
        Code    string `json:"code"`
    } `json:"error"`
}

func (a *app) do(t *testing.T, method, path, token string, body any) (int, response) {
    t.Helper()
    var buf bytes.Buffer
    if body != nil {
        require.NoError(t, json.NewEncoder(&buf).Encode(body))
    }
    req := httptest.NewRequest(method, path, &buf)
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)

    var out response
    if rec.Body.Len() > 0 {
        require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    }
    return rec.Code, out
}

func decode[T any](t *testing.T, r response) T {
    t.Helper()
    var v T
    require.NoError(t, json.Unmarshal(r.Data, &v), string(r.Data))
    return v
}

func (a *app) seedAdmin(t *testing.T) string {
    t.Helper()
    hash, err := utils.HashPassword("adminpass", bcrypt.MinCost)
    require.NoError(t, err)
    u := &model.User{Email: "admin@example.com", PasswordHash: hash, Role: model.RoleAdmin, IsActive: true}
    require.NoError(t, a.stores.Users.Create(context.Background(), u))

    code, res := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ADMIN@example.com", "password": "adminpass"})
    require.Equal(t, http.StatusOK, code)
    return decode[service.AuthResult](t, res).AccessToken
}

func carBody(title string, price float64) map[string]any {
    return map[string]any{
        "title": title, "brand": "Toyota", "model": "Camry", "year": 2020, "mileage": 30000,
        "price": price, "fuelType": "petrol", "transmission": "automatic", "drive": "fwd",
        "engine": "2.5", "powerHp": 181, "color": "white", "description": "one owner",
        "images": []string{"https://img.example/1.jpg"},
    }
}

func TestRegisterCreateModerateLeadFlow(t *testing.T) {
    a := newApp(t, pinger{})
    adminToken := a.seedAdmin(t)

    code, res := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
        "email": "Seller@Example.com", "password": "secret1", "name": "Ivan", "phone": "+7 900 000",
    })
    require.Equal(t, http.StatusCreated, code)
    reg := decode[service.AuthResult](t, res)
    assert.Equal(t, "seller@example.com", reg.User.Email)
    assert.Equal(t, model.RoleOwner, reg.User.Role)
    assert.NotContains(t, string(res.Data), "passwordHash")
    ownerToken := reg.AccessToken

    code, res = a.do(t, http.MethodPost, "/api/my/cars", ownerToken, carBody("Camry 2020", 25000))
    require.Equal(t, http.StatusCreated, code)
    car := decode[model.Car](t, res)
    assert.Equal(t, model.ModerationPending, car.ModerationStatus)
    assert.Equal(t, reg.User.ID, car.OwnerID)
    assert.Equal(t, "Ivan", car.OwnerName)

    carPath := fmt.Sprintf("/api/cars/%d", car.ID)
    code, res = a.do(t, http.MethodGet, carPath, "", nil)
    assert.Equal(t, http.StatusNotFound, code)
    assert.Equal(t, "NOT_FOUND", res.Error.Code)

    code, _ = a.do(t, http.MethodGet, carPath, adminToken, nil)
    assert.Equal(t, http.StatusOK, code, "admin bearer sees pending cars")

    code, res = a.do(t, http.MethodGet, "/api/cars", "", nil)
    require.Equal(t, http.StatusOK, code)
    assert.Empty(t, decode[model.CarPage](t, res).Listings)

    code, res = a.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/cars/%d/moderate", car.ID), adminToken,
        map[string]string{"moderationStatus": "approved", "moderationComment": "ok"})
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, model.ModerationApproved, decode[model.Car](t, res).ModerationStatus)
    assert.Len(t, a.stores.Events.Moderated(), 1)

    code, res = a.do(t, http.MethodGet, "/api/cars", "", nil)
    require.Equal(t, http.StatusOK, code)
    page := decode[model.CarPage](t, res)
    require.Len(t, page.Listings, 1)
    assert.Equal(t, car.ID, page.Listings[0].ID)

    code, res = a.do(t, http.MethodPost, "/api/leads", "", map[string]string{
        "carId": fmt.Sprint(car.ID), "name": "Buyer", "phone": "+7 911", "message": "still available?",
    })
    require.Equal(t, http.StatusCreated, code)
    lead := decode[model.Lead](t, res)
    assert.Equal(t, model.LeadNew, lead.Status)
    assert.Equal(t, 25000.0, lead.CarPrice)
    require.Len(t, a.stores.Events.Leads(), 1)

    code, _ = a.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/cars/%d", car.ID), adminToken, map[string]any{"price": 27000})
    require.Equal(t, http.StatusOK, code)

    code, res = a.do(t, http.MethodGet, fmt.Sprintf("/api/admin/leads/%d", lead.ID), adminToken, nil)
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, 25000.0, decode[model.Lead](t, res).CarPrice, "lead keeps the quoted price")
}

func TestPublicListPagination(t *testing.T) {
    a := newApp(t, pinger{})
    adminToken := a.seedAdmin(t)
    for i := 0; i < 25; i++ {
        code, _ := a.do(t, http.MethodPost, "/api/admin/cars", adminToken, carBody(fmt.Sprintf("Car %02d", i), float64(1000+i)))
        require.Equal(t, http.StatusCreated, code)
    }

    code, res := a.do(t, http.MethodGet, "/api/cars?page=2&limit=10", "", nil)
    require.Equal(t, http.StatusOK, code)
    page := decode[model.CarPage](t, res)
    assert.Len(t, page.Listings, 10)
    assert.Equal(t, model.Pagination{Page: 2, Limit: 10, Total: 25, Pages: 3}, page.Pagination)

    code, res = a.do(t, http.MethodGet, "/api/cars?limit=500", "", nil)
    assert.Equal(t, http.StatusBadRequest, code)
    assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
}

func TestAccessControl(t *testing.T) {
    a := newApp(t, pinger{})
    adminToken := a.seedAdmin(t)

    register := func(email string) string {
        code, res := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
            "email": email, "password": "secret1", "name": "N", "phone": "1",
        })
        require.Equal(t, http.StatusCreated, code)
        return decode[service.AuthResult](t, res).AccessToken
    }
    alice, bob := register("alice@example.com"), register("bob@example.com")

    code, res := a.do(t, http.MethodPost, "/api/my/cars", alice, carBody("Alice car", 100))
    require.Equal(t, http.StatusCreated, code)
    car := decode[model.Car](t, res)
    path := fmt.Sprintf("/api/my/cars/%d", car.ID)

    code, res = a.do(t, http.MethodGet, path, bob, nil)
    assert.Equal(t, http.StatusForbidden, code)
    assert.Equal(t, "FORBIDDEN", res.Error.Code)

    code, _ = a.do(t, http.MethodGet, "/api/my/cars/999", bob, nil)
    assert.Equal(t, http.StatusNotFound, code)

    code, _ = a.do(t, http.MethodGet, path, adminToken, nil)
    assert.Equal(t, http.StatusOK, code)

    code, res = a.do(t, http.MethodGet, "/api/admin/users", alice, nil)
    assert.Equal(t, http.StatusForbidden, code)
    assert.Equal(t, "Insufficient permissions", res.Error.Message)

    code, res = a.do(t, http.MethodGet, "/api/my/cars", "", nil)
    assert.Equal(t, http.StatusUnauthorized, code)
    assert.Equal(t, "UNAUTHORIZED", res.Error.Code)

    code, _ = a.do(t, http.MethodGet, "/api/my/cars", "not-a-jwt", nil)
    assert.Equal(t, http.StatusUnauthorized, code)

    code, _ = a.do(t, http.MethodPatch, path+"/status", bob, map[string]string{"status": "sold"})
    assert.Equal(t, http.StatusForbidden, code)

    code, res = a.do(t, http.MethodGet, "/api/my/cars", alice, nil)
    require.Equal(t, http.StatusOK, code)
    assert.Len(t, decode[model.CarPage](t, res).Listings, 1, "owners see their pending cars")
}

func TestOwnerCannotRewriteApprovedListing(t *testing.T) {
    a := newApp(t, pinger{})
    adminToken := a.seedAdmin(t)
    code, res := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
        "email": "carol@example.com", "password": "secret1", "name": "Carol", "phone": "1",
    })
    require.Equal(t, http.StatusCreated, code)
    carol := decode[service.AuthResult](t, res).AccessToken

    code, res = a.do(t, http.MethodPost, "/api/my/cars", carol, carBody("Carol car", 9000))
    require.Equal(t, http.StatusCreated, code)
    car := decode[model.Car](t, res)
    code, _ = a.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/cars/%d/moderate", car.ID), adminToken,
        map[string]string{"moderationStatus": "approved"})
    require.Equal(t, http.StatusOK, code)

    path := fmt.Sprintf("/api/my/cars/%d", car.ID)
    code, res = a.do(t, http.MethodPatch, path, carol, map[string]any{"title": "changed", "price": 1})
    assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, code, "owners have no field patch route")
    assert.False(t, res.Success)

    code, res = a.do(t, http.MethodGet, fmt.Sprintf("/api/cars/%d", car.ID), "", nil)
    require.Equal(t, http.StatusOK, code)
    public := decode[model.Car](t, res)
    assert.Equal(t, "Carol car", public.Title)
    assert.Equal(t, 9000.0, public.Price)

    code, res = a.do(t, http.MethodPatch, path+"/status", carol, map[string]string{"status": "sold"})
    require.Equal(t, http.StatusOK, code)
    sold := decode[model.Car](t, res)
    assert.Equal(t, model.CarSold, sold.Status)
    assert.Equal(t, model.ModerationApproved, sold.ModerationStatus)
}

func TestLoginFailuresLookAlike(t *testing.T) {
    a := newApp(t, pinger{})
    a.seedAdmin(t)

    code1, res1 := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@example.com", "password": "wrong"})
    code2, res2 := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "wrong"})
    assert.Equal(t, http.StatusUnauthorized, code1)
    assert.Equal(t, code1, code2)
    assert.Equal(t, res1.Error.Message, res2.Error.Message)
}

func TestRefreshLogoutAndMe(t *testing.T) {
    a := newApp(t, pinger{})
    code, res := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
        "email": "me@example.com", "password": "secret1", "name": "Me", "phone": "1",
    })
    require.Equal(t, http.StatusCreated, code)
    first := decode[service.AuthResult](t, res)

    code, res = a.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": first.RefreshToken})
    require.Equal(t, http.StatusOK, code)
    second := decode[service.TokenPair](t, res)

    code, _ = a.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": first.RefreshToken})
    assert.Equal(t, http.StatusUnauthorized, code, "superseded refresh token")

    code, res = a.do(t, http.MethodGet, "/api/auth/me", second.AccessToken, nil)
    require.Equal(t, http.StatusOK, code)
    assert.Contains(t, string(res.Data), `"email":"me@example.com"`)

    code, _ = a.do(t, http.MethodPost, "/api/auth/logout", second.AccessToken, nil)
    require.Equal(t, http.StatusOK, code)
    code, _ = a.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": second.RefreshToken})
    assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSettingsAndUsers(t *testing.T) {
    a := newApp(t, pinger{})
    adminToken := a.seedAdmin(t)

    code, res := a.do(t, http.MethodGet, "/api/settings", "", nil)
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, model.DefaultSettings().Phone, decode[model.Settings](t, res).Phone)

    code, res = a.do(t, http.MethodPut, "/api/admin/settings", adminToken, map[string]string{"slogan": "Drive home today"})
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, "Drive home today", decode[model.Settings](t, res).Slogan)

    code, res = a.do(t, http.MethodPost, "/api/admin/users", adminToken, map[string]string{"email": "new@example.com", "password": "secret1"})
    require.Equal(t, http.StatusCreated, code)
    u := decode[model.User](t, res)
    assert.Equal(t, model.RoleOwner, u.Role)

    code, res = a.do(t, http.MethodPost, "/api/admin/users", adminToken, map[string]string{"email": "NEW@example.com", "password": "secret1"})
    assert.Equal(t, http.StatusConflict, code)
    assert.Equal(t, "CONFLICT", res.Error.Code)

    code, _ = a.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d", u.ID), adminToken, map[string]any{"isActive": false})
    require.Equal(t, http.StatusOK, code)
    code, _ = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "new@example.com", "password": "secret1"})
    assert.Equal(t, http.StatusUnauthorized, code)

    code, res = a.do(t, http.MethodGet, "/api/admin/users/abc", adminToken, nil)
    assert.Equal(t, http.StatusBadRequest, code)
    assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
}

func TestErrorEnvelope(t *testing.T) {
    a := newApp(t, pinger{})

    code, res := a.do(t, http.MethodGet, "/api/nope", "", nil)
    assert.Equal(t, http.StatusNotFound, code)
    assert.False(t, res.Success)
    assert.Equal(t, "NOT_FOUND", res.Error.Code)

    req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader("{broken"))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
    assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestHealthProbes(t *testing.T) {
    a := newApp(t, pinger{})
    code, res := a.do(t, http.MethodGet, "/health", "", nil)
    assert.Equal(t, http.StatusOK, code)
    assert.Contains(t, string(res.Data), `"status":"connected"`)

    code, _ = a.do(t, http.MethodGet, "/live", "", nil)
    assert.Equal(t, http.StatusOK, code)

    down := newApp(t, pinger{err: errors.New("connection refused")})
    code, res = down.do(t, http.MethodGet, "/ready", "", nil)
    assert.Equal(t, http.StatusServiceUnavailable, code)
    assert.Equal(t, "SERVICE_NOT_READY", res.Error.Code)

    code, _ = a.do(t, http.MethodGet, "/api", "", nil)
    assert.Equal(t, http.StatusOK, code)
}
