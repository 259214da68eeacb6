package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/uneedwind/webhook-gateway/internal/config"
	"github.com/uneedwind/webhook-gateway/internal/ecpay"
	"github.com/uneedwind/webhook-gateway/internal/envconfig"
	"github.com/uneedwind/webhook-gateway/internal/httpapi"
	"github.com/uneedwind/webhook-gateway/internal/logging"
	"github.com/uneedwind/webhook-gateway/internal/metrics"
	"github.com/uneedwind/webhook-gateway/internal/server"
)

func main() {
	ctx := context.Background()

	loadedDotEnv, err := envconfig.LoadDotEnv(envconfig.Get("DOTENV_PATH", ".env"))
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(logging.Options{
		Service:      cfg.ServiceName,
		Level:        logging.ParseLevel(cfg.LogLevel),
		CloudLogging: cfg.Deployment.OnAppEngine(),
	})
	if !loadedDotEnv {
		logger.Debug(".env file not found, relying on environment")
	}

	var (
		httpMetrics *metrics.HTTPMetrics
		metricsPath string
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		httpMetrics = metrics.NewHTTPMetrics(reg)
		metricsPath = "/metrics"
	}

	deps := httpapi.Deps{
		Logger:       logger,
		Metrics:      httpMetrics,
		Deployment:   cfg.Deployment,
		ServiceName:  cfg.ServiceName,
		MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
	}
	if cfg.RelayEnabled() {
		deps.Relay = ecpay.NewForwarder(cfg.ECPay.ForwardURL, cfg.ECPay.ForwardTimeout)
		logger.Info("ecpay relay enabled", slog.Duration("timeout", cfg.ECPay.ForwardTimeout))
	}

	router := server.NewRouter(server.RouterOptions{
		Logger:      logger,
		Metrics:     httpMetrics,
		MetricsPath: metricsPath,
	}, func(r chi.Router) {
		httpapi.RegisterRoutes(r, httpapi.Routes(deps))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("deployment",
		slog.String("gae_env", cfg.Deployment.Env),
		slog.String("gae_service", cfg.Deployment.Service),
		slog.String("gae_version", cfg.Deployment.Version),
	)

	if err := server.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
