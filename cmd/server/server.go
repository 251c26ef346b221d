package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"log/slog"

	"github.com/patrickfnielsen/pdpclient/internal/config"
	"github.com/patrickfnielsen/pdpclient/internal/handlers"
	"github.com/patrickfnielsen/pdpclient/internal/util"
	"github.com/patrickfnielsen/pdpclient/pkg/pdp"
)

func main() {
	logger := util.SetupLogger(config.LogLevel, config.Enviroment)

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	// pass trace context on to the pdp
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	registry := prometheus.NewRegistry()
	var metrics *pdp.Metrics
	if config.MetricsEnabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		metrics = pdp.NewMetrics(config.MetricsNamespace)
		if err := metrics.Register(registry); err != nil {
			logger.Error("failed to register metrics", slog.String("error", err.Error()))
			panic(err)
		}
	}

	// setup the pdp client from the PDP_* environment
	client, err := pdp.New(
		pdp.WithLogger(logger),
		pdp.WithMetrics(metrics),
	)
	if err != nil {
		logger.Error("failed to create pdp client", slog.String("error", err.Error()))
		panic(err)
	}

	endpoint, err := client.Endpoint()
	if err != nil {
		logger.Error("invalid pdp endpoint", slog.String("error", err.Error()))
		panic(err)
	}

	pdpConfig := client.Config()
	logger.Info("starting PDP client",
		slog.Float64("version", config.VERSION),
		slog.String("environment", config.Enviroment),
		slog.String("log_level", config.LogLevel.String()),
		slog.String("listen_address", config.ListenAddress),
		slog.String("pdp_endpoint", endpoint),
		slog.Duration("pdp_connect_timeout", pdpConfig.ConnectTimeout),
		slog.Duration("pdp_read_timeout", pdpConfig.ReadTimeout),
		slog.Int("pdp_retry_max_attempts", pdpConfig.RetryMaxAttempts),
		slog.Duration("pdp_retry_backoff", pdpConfig.RetryBackoff),
		slog.Bool("metrics", config.MetricsEnabled),
	)

	// setup fiber + routes
	app := fiber.New(fiber.Config{
		ErrorHandler:          util.CustomErrorHandler,
		DisableStartupMessage: true,
		AppName:               "PDP client",
		ServerHeader:          fmt.Sprintf("PDP client - %.1f", config.VERSION),
	})
	app.Use(recover.New())

	// register pdp routes
	PdpRoutes := handlers.PdpRoutes{
		Client: client,
	}

	route := app.Group("/api/v1")
	route.Post("/pdp/decision", PdpRoutes.PdpCheck)
	route.Get("/health", PdpRoutes.Health)

	if config.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// listen for system interrupts like ctrl+c
	quit := make(chan struct{})
	cleanup := func() {
		if ctx.Err() != nil {
			return
		}

		//shutdown down services gracefully
		logger.Info("service shutting down")
		err := app.Shutdown()
		if err != nil {
			logger.Error("service shutdown with errors", slog.String("error", err.Error()))
		}

		// cancel the context and anything waiting for it
		cancelCtx()
		close(quit)
	}

	go util.MonitorSystemSignals(ctx, func(s os.Signal) {
		logger.Info("received signal", slog.String("signal", s.String()))
		cleanup()
	})

	// start the app and handles errors
	err = app.Listen(config.ListenAddress)
	if err != nil {
		logger.Error("service exited in a non-standard way", slog.String("error", err.Error()))
		cleanup()
	}

	// wait for shutdown
	<-quit
}
