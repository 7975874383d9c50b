package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/iliyamo/space-reservation/internal/app"
	"github.com/iliyamo/space-reservation/internal/config"
	"github.com/iliyamo/space-reservation/internal/handler"
	"github.com/iliyamo/space-reservation/internal/middleware"
	"github.com/iliyamo/space-reservation/internal/queue"
	"github.com/iliyamo/space-reservation/internal/realtime"
	"github.com/iliyamo/space-reservation/internal/router"
	"github.com/iliyamo/space-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	var configFile string
	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "HTTP API and live dashboard for space reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, configFile)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the backend configuration file (default $CONFIG_FILE or config.json)")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg := config.Load()
	logger := app.NewLogger(cfg.Env)
	if configFile == "" {
		configFile = cfg.ConfigFile
	}

	backend, err := config.LoadBackend(configFile)
	if err != nil {
		return err
	}
	store, err := app.OpenStore(ctx, backend, true)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("store ready", "backend", store.Backend(), "config", configFile)

	loc := cfg.Location()
	dash := service.NewDashboardService(store, loc)
	hub := realtime.NewHub(dash, logger)

	// Reservation events go to the dashboard hub and, when configured, to
	// RabbitMQ for the log consumer.
	events := queue.Fanout{hub}
	if cfg.AMQPURL != "" {
		events = append(events, queue.NewAMQPPublisher(cfg.AMQPURL, logger))
	}
	reservations := service.NewReservationService(store, events, logger)
	jobs := service.NewJobService(store, events, logger, loc)

	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		logger.Warn("redis unavailable: response cache disabled, rate limit is per process", "err", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover(), middleware.RequestID(), middleware.RequestLogger(logger))
	router.Register(e, router.Handlers{
		Health:       handler.NewHealthHandler(store),
		Zones:        handler.NewZoneHandler(store),
		Spaces:       handler.NewSpaceHandler(store, reservations),
		Reservations: handler.NewReservationHandler(reservations),
		People:       handler.NewPersonHandler(store),
		Resources:    handler.NewResourceHandler(store),
		Catalog:      handler.NewCatalogHandler(store),
		Dashboard:    handler.NewDashboardHandler(dash),
		Hub:          hub,
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     middleware.NewRedisCache(cacheCfg, rdb, logger),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
	})

	go hub.Run(ctx)

	sched := cron.New(cron.WithLocation(loc))
	if _, err := sched.AddFunc(cfg.DashboardCron, func() {
		if hub.ClientCount() == 0 {
			return
		}
		if err := hub.Refresh(ctx); err != nil {
			logger.Error("dashboard refresh failed", "err", err)
		}
	}); err != nil {
		return err
	}
	if _, err := sched.AddFunc(cfg.FinishCron, func() {
		n, err := jobs.FinishPastReservations(ctx)
		if err != nil {
			logger.Error("finish reservations job failed", "err", err)
			return
		}
		if n > 0 {
			logger.Info("reservations finished", "count", n)
		}
	}); err != nil {
		return err
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
