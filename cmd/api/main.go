package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/erp-desk/internal/api/http"
	"github.com/spec-kit/erp-desk/internal/api/http/handlers"
	"github.com/spec-kit/erp-desk/internal/auth"
	"github.com/spec-kit/erp-desk/internal/config"
	"github.com/spec-kit/erp-desk/internal/domain"
	"github.com/spec-kit/erp-desk/internal/notify"
	"github.com/spec-kit/erp-desk/internal/observability"
	"github.com/spec-kit/erp-desk/internal/persistence"
	"github.com/spec-kit/erp-desk/internal/render"
	"github.com/spec-kit/erp-desk/internal/repository"
	"github.com/spec-kit/erp-desk/internal/repository/memory"
	"github.com/spec-kit/erp-desk/internal/service"
	"github.com/spec-kit/erp-desk/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
	} else {
		store = memory.New()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var notifier notify.Notifier
	if redis.Enabled() {
		notifier = notify.NewQueueNotifier(notify.NewQueue(redis.Client, cfg.Notification, logger), logger, metrics)
	} else {
		logger.Info("REDIS_ADDR not provided; notifications are delivered inline")
		notifier = notify.NewDirectNotifier(notify.Senders(cfg.Notification.EmailFrom, cfg.Notification.WebhookURL, logger), logger, metrics)
	}

	renderer := render.NewPDFRenderer()
	billingDeps := service.BillingDependencies{Store: store, Renderer: renderer, Logger: logger, Metrics: metrics}
	archive, err := storage.NewS3Archive(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to init s3 archive", zap.Error(err))
	}
	if archive != nil {
		billingDeps.Archive = archive
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL())
	companyService := service.NewCompanyService(store, logger)
	authService := service.NewAuthService(companyService, tokens)
	featureService := service.NewFeatureService(store, nil)
	notificationService := service.NewNotificationService(store, notifier, logger, metrics)
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Store:         store,
		Notifications: notificationService,
		Logger:        logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:         store,
		Assignment:    assignmentService,
		Notifications: notificationService,
		Logger:        logger,
		Metrics:       metrics,
	})
	billingService := service.NewBillingService(billingDeps)
	accountingService := service.NewAccountingService(service.AccountingDependencies{
		Store:    store,
		Renderer: renderer,
		Logger:   logger,
	})

	app := httptransport.NewApp(logger, metrics, cfg.App.RequestTimeout(), httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Company:        handlers.NewCompanyHandler(authService, companyService, featureService),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService),
		Customers:      handlers.NewBillingHandler(billingService, ""),
		Quotes:         handlers.NewBillingHandler(billingService, domain.DocumentQuote),
		Invoices:       handlers.NewBillingHandler(billingService, domain.DocumentInvoice),
		Accounting:     handlers.NewAccountingHandler(accountingService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, companyService),
		Features:       featureService,
		TokenExchange:  cfg.App.Env != "production",
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
