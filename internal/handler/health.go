package handler

import (
    "context"
    "net/http"
    "runtime"
    "time"

    "github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// HealthHandler serves the probes and the service banner.
type HealthHandler struct {
    DB      Pinger
    Version string
    started time.Time
}

func NewHealthHandler(db Pinger, version string) *HealthHandler {
    return &HealthHandler{DB: db, Version: version, started: time.Now()}
}

type memoryStats struct {
    UsedMB      uint64 `json:"used"`
    TotalMB     uint64 `json:"total"`
    PercentUsed int    `json:"percentUsed"`
}

type dbCheck struct {
    Status       string `json:"status"`
    ResponseTime int64  `json:"responseTime,omitempty"`
}

type healthReport struct {
    Status    string    `json:"status"`
    Timestamp time.Time `json:"timestamp"`
    Uptime    float64   `json:"uptime"`
    Checks    struct {
        Database dbCheck     `json:"database"`
        Memory   memoryStats `json:"memory"`
    } `json:"checks"`
}

func readMemory() memoryStats {
    var ms runtime.MemStats
    runtime.ReadMemStats(&ms)
    m := memoryStats{UsedMB: ms.HeapAlloc >> 20, TotalMB: ms.HeapSys >> 20}
    if ms.HeapSys > 0 {
        m.PercentUsed = int(ms.HeapAlloc * 100 / ms.HeapSys)
    }
    return m
}

func (h *HealthHandler) ping(ctx context.Context) (time.Duration, error) {
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    start := time.Now()
    err := h.DB.PingContext(ctx)
    return time.Since(start), err
}

// Health reports database reachability with its round trip time and heap
// usage.  A failed ping answers 503.
func (h *HealthHandler) Health(c echo.Context) error {
    var rep healthReport
    rep.Timestamp = time.Now().UTC()
    rep.Uptime = time.Since(h.started).Seconds()
    rep.Checks.Memory = readMemory()

    rtt, err := h.ping(c.Request().Context())
    if err != nil {
        return failure(c, http.StatusServiceUnavailable, "Service unhealthy", "SERVICE_UNHEALTHY")
    }
    rep.Status = "healthy"
    rep.Checks.Database = dbCheck{Status: "connected", ResponseTime: rtt.Milliseconds()}
    return ok(c, rep)
}

// Ready answers 200 once the database accepts queries.
func (h *HealthHandler) Ready(c echo.Context) error {
    if _, err := h.ping(c.Request().Context()); err != nil {
        return failure(c, http.StatusServiceUnavailable, "Service not ready", "SERVICE_NOT_READY")
    }
    return ok(c, echo.Map{"status": "ready"})
}

func (h *HealthHandler) Live(c echo.Context) error {
    return ok(c, echo.Map{"status": "alive"})
}

// Banner describes the API at / and /api.
func (h *HealthHandler) Banner(c echo.Context) error {
    return ok(c, echo.Map{
        "name":    "car-marketplace",
        "version": h.Version,
        "endpoints": echo.Map{
            "health":   "/health",
            "cars":     "/api/cars",
            "leads":    "/api/leads",
            "settings": "/api/settings",
            "auth":     "/api/auth",
            "owner":    "/api/my/cars",
            "admin":    "/api/admin",
        },
    })
}
