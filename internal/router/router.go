package router // package router builds the Echo instance and registers every route

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/rs/zerolog"

    "github.com/iliyamo/car-marketplace/internal/config"
    "github.com/iliyamo/car-marketplace/internal/handler"
    "github.com/iliyamo/car-marketplace/internal/metrics"
    "github.com/iliyamo/car-marketplace/internal/middleware"
)

// Deps are the collaborators the router wires together.  Limiter and
// Cache are optional.
type Deps struct {
    Config  config.Config
    Log     zerolog.Logger
    Tokens  middleware.TokenVerifier
    Cars    middleware.CarAccessChecker
    Limiter *middleware.RateLimiter
    Cache   *middleware.ResponseCache

    Auth   *handler.AuthHandler
    Public *handler.PublicHandler
    Owner  *handler.OwnerHandler
    Admin  *handler.AdminHandler
    Health *handler.HealthHandler
}

// New returns a configured Echo instance with the global middleware chain
// and all routes registered.
func New(d Deps) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.HTTPErrorHandler = handler.ErrorHandler(d.Log, d.Config.IsDevelopment())

    e.Use(middleware.RequestID())
    e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
        LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
            d.Log.Error().Err(err).
                Str("request_id", middleware.GetRequestID(c)).
                Bytes("stack", stack).
                Msg("panic recovered")
            return err
        },
    }))
    e.Use(requestLogger(d.Log))
    e.Use(metrics.Middleware())
    e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
        XSSProtection:      "1; mode=block",
        ContentTypeNosniff: "nosniff",
        XFrameOptions:      "DENY",
        HSTSMaxAge:         31536000,
        ReferrerPolicy:     "no-referrer",
    }))
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
        AllowOrigins:     d.Config.CORSOrigins,
        AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
        AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID, middleware.HeaderCorrelationID},
        ExposeHeaders:    []string{echo.HeaderXRequestID, "Retry-After"},
        AllowCredentials: true,
    }))
    e.Use(echomw.BodyLimit("1M"))
    // Callers are resolved up front so per-user rate limit keys see them;
    // protected groups still enforce Auth.
    if d.Tokens != nil {
        e.Use(middleware.OptionalAuth(d.Tokens))
    }
    if d.Limiter != nil {
        e.Use(d.Limiter.Middleware())
    }
    if d.Cache != nil {
        e.Use(d.Cache.Invalidate())
    }

    e.GET("/", d.Health.Banner)
    e.GET("/api", d.Health.Banner)
    e.GET("/health", d.Health.Health)
    e.GET("/ready", d.Health.Ready)
    e.GET("/live", d.Health.Live)
    e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

    api := e.Group("/api")
    registerPublic(api, d)
    registerAuth(api, d)
    registerOwner(api, d)
    registerAdmin(api, d)
    return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogUserAgent: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            ev := log.Info()
            if v.Status >= http.StatusInternalServerError {
                ev = log.Error()
            }
            ev.Str("request_id", middleware.GetRequestID(c)).
                Str("method", v.Method).
                Str("uri", v.URI).
                Int("status", v.Status).
                Dur("latency", v.Latency.Round(time.Microsecond)).
                Str("ip", v.RemoteIP).
                Str("user_agent", v.UserAgent).
                Msg("request")
            return nil
        },
    })
}

func publicCache(d Deps) []echo.MiddlewareFunc {
    if d.Cache == nil {
        return nil
    }
    return []echo.MiddlewareFunc{d.Cache.Middleware()}
}

// registerPublic mounts the storefront.  GET responses are cached.
func registerPublic(api *echo.Group, d Deps) {
    cache := publicCache(d)
    api.GET("/cars", d.Public.ListCars, cache...)
    api.GET("/cars/:id", d.Public.GetCar, append(cache, middleware.OptionalAuth(d.Tokens))...)
    api.POST("/leads", d.Public.CreateLead)
    api.GET("/settings", d.Public.GetSettings, cache...)
}

func registerAuth(api *echo.Group, d Deps) {
    g := api.Group("/auth")
    g.POST("/register", d.Auth.Register)
    g.POST("/login", d.Auth.Login)
    g.POST("/refresh", d.Auth.Refresh)

    auth := middleware.Auth(d.Tokens)
    g.POST("/logout", d.Auth.Logout, auth)
    g.GET("/me", d.Auth.Me, auth)
}
