package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/ilift/ilift-backend/api/routes"
	"github.com/ilift/ilift-backend/internal/catalog"
	"github.com/ilift/ilift-backend/internal/enquiry"
	"github.com/ilift/ilift-backend/internal/leads"
	"github.com/ilift/ilift-backend/pkg/config"
	"github.com/ilift/ilift-backend/pkg/db"
	"github.com/ilift/ilift-backend/pkg/logger"
	"github.com/ilift/ilift-backend/pkg/mailer"
	"github.com/ilift/ilift-backend/pkg/metrics"
	"github.com/ilift/ilift-backend/pkg/migrate"
	"github.com/ilift/ilift-backend/pkg/outbox"
	"github.com/ilift/ilift-backend/pkg/redis"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	enquiryMetrics := metrics.NewEnquiryMetrics(registry)

	smtp, err := mailer.New(cfg.Mail)
	if err != nil {
		return err
	}

	leadService, err := leads.NewService(leads.ServiceParams{
		DB:         dbClient,
		Repo:       leads.NewRepository(dbClient.DB()),
		Counter:    redisClient,
		Mailer:     smtp,
		Outbox:     outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Recipients: cfg.Mail.LeadRecipients,
		Logger:     logg,
	})
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}

	enquiryService, err := enquiry.NewService(enquiry.ServiceParams{
		CartStore:     redisClient,
		ProductIDs:    catalogService,
		CartTTL:       cfg.Enquiry.CartTTL,
		RegistrySize:  cfg.Enquiry.RegistrySize,
		SubmitTimeout: cfg.Enquiry.SubmitTimeout,
		Submitter:     leadService,
		Logger:        logg,
		Metrics:       enquiryMetrics,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	ctx, stop := signal.NotifyContext(bootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, catalogService, enquiryService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
