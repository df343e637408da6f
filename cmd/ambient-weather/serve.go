package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	httpapi "github.com/i474232898/ambient-weather/internal/api/http"
	"github.com/i474232898/ambient-weather/internal/metrics"
	"github.com/i474232898/ambient-weather/internal/scheduler"
	"github.com/i474232898/ambient-weather/internal/sink"
	"github.com/i474232898/ambient-weather/internal/store"
	"github.com/i474232898/ambient-weather/internal/weather"
)

// Budget for routes that call the vendor on demand, on top of the
// client's own request delay.
const (
	vendorRouteInterval = 10 * time.Second
	vendorRouteBurst    = 3
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the configured device and serve stored observations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg, log := a.cfg, a.logger

	// Metrics on a private registry.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	opts := []weather.Option{
		weather.WithMetrics(m),
		weather.WithBreaker(cfg.BreakerMaxFailures, cfg.BreakerTimeout),
	}
	if cfg.Influx.Enabled() {
		influx := sink.NewInfluxSink(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket)
		defer influx.Close()
		opts = append(opts, weather.WithSink(influx))
		log.WithField("bucket", cfg.Influx.Bucket).Info("influxdb sink enabled")
	}

	// Core service orchestrating the vendor client, store and sinks.
	service := weather.NewService(a.client, a.creds, memStore, log, opts...)

	log.WithFields(logrus.Fields{
		"device":   service.Device(),
		"endpoint": a.creds.Endpoint().String(),
		"interval": cfg.FetchInterval.String(),
	}).Info("starting poller")

	if cfg.BackfillLimit > 0 {
		backfillCtx, cancel := context.WithTimeout(ctx, 2*cfg.HTTPTimeout+2*cfg.RequestDelay)
		if _, err := service.Backfill(backfillCtx, cfg.BackfillLimit); err != nil {
			log.WithError(err).Warn("startup backfill failed")
		}
		cancel()
	}

	// Scheduler that periodically fetches and stores data.
	sched := scheduler.New(service, cfg.FetchInterval, cfg.HTTPTimeout+cfg.RequestDelay, log)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "ambient-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "ambient-weather",
			"stored":  memStore.Len(service.Device()),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// API routes.
	httpapi.RegisterRoutes(app, service, rate.NewLimiter(rate.Every(vendorRouteInterval), vendorRouteBurst))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return app.ShutdownWithContext(shutdownCtx)
}
