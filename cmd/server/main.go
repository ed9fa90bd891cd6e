package main // Entry point package

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/rs/zerolog"

    "github.com/iliyamo/car-marketplace/internal/config"
    "github.com/iliyamo/car-marketplace/internal/database"
    "github.com/iliyamo/car-marketplace/internal/handler"
    "github.com/iliyamo/car-marketplace/internal/logging"
    "github.com/iliyamo/car-marketplace/internal/middleware"
    "github.com/iliyamo/car-marketplace/internal/queue"
    "github.com/iliyamo/car-marketplace/internal/repository"
    "github.com/iliyamo/car-marketplace/internal/router"
    "github.com/iliyamo/car-marketplace/internal/service"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
    cfg, err := config.Load()
    if err != nil {
        l := logging.Setup("production", "info")
        l.Fatal().Err(err).Msg("load config")
    }
    log := logging.Setup(cfg.Env, cfg.LogLevel)

    db, err := database.Open(database.Options{
        User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
    })
    if err != nil {
        log.Fatal().Err(err).Msg("connect database")
    }
    if cfg.MigrateOnStart {
        v, err := database.Migrate(db)
        if err != nil {
            log.Fatal().Err(err).Msg("migrate")
        }
        log.Info().Uint("version", v).Msg("schema up to date")
    }

    // cleanup hooks run in registration order once the server stops
    var hooks []func()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    var events service.EventPublisher = queue.Nop{}
    if cfg.EventsEnabled {
        pub := queue.NewPublisher(cfg.AMQPURL, log)
        events = pub
        consumerCtx, cancel := context.WithCancel(ctx)
        done := make(chan struct{})
        go func() {
            defer close(done)
            _ = queue.NewConsumer(cfg.AMQPURL, "logs", log).Run(consumerCtx)
        }()
        hooks = append(hooks, func() {
            cancel()
            <-done
            _ = pub.Close()
        })
    }

    rdb := config.NewRedisClient(config.LoadRedisConfig())
    if rdb == nil {
        log.Warn().Msg("redis unavailable: in-memory rate limiting, response cache off")
    } else {
        hooks = append(hooks, func() { _ = rdb.Close() })
    }
    limiter := middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb, log)
    limiter.Start()
    hooks = append(hooks, limiter.Stop)
    cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log)

    users := repository.NewUserRepo(db)
    cars := repository.NewCarRepo(db)
    leads := repository.NewLeadRepo(db)
    settings := repository.NewSettingsRepo(db)

    tokenSvc := service.NewTokenService(users, cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
    authSvc := service.NewAuthService(users, tokenSvc, cfg.BcryptCost, log)
    carSvc := service.NewCarService(cars, users, events, log)
    leadSvc := service.NewLeadService(leads, cars, events, log)
    userSvc := service.NewUserService(users, cfg.BcryptCost, log)
    settingsSvc := service.NewSettingsService(settings)

    e := router.New(router.Deps{
        Config:  cfg,
        Log:     log,
        Tokens:  tokenSvc,
        Cars:    carSvc,
        Limiter: limiter,
        Cache:   cache,
        Auth:    handler.NewAuthHandler(authSvc, tokenSvc),
        Public:  handler.NewPublicHandler(carSvc, leadSvc, settingsSvc),
        Owner:   handler.NewOwnerHandler(carSvc),
        Admin:   handler.NewAdminHandler(carSvc, leadSvc, userSvc, settingsSvc),
        Health:  handler.NewHealthHandler(db, version),
    })

    go func() {
        log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("listening")
        if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Error().Err(err).Msg("http server")
            stop()
        }
    }()

    <-ctx.Done()
    shutdown(log, e.Shutdown, hooks)
    if err := db.Close(); err != nil {
        log.Error().Err(err).Msg("close database")
    }
    log.Info().Msg("bye")
}

func shutdown(log zerolog.Logger, stopServer func(context.Context) error, hooks []func()) {
    log.Info().Msg("shutting down")
    ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
    defer cancel()
    if err := stopServer(ctx); err != nil {
        log.Error().Err(err).Msg("http shutdown")
    }
    for _, h := range hooks {
        h()
    }
}
