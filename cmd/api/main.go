package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/agency-ledger/internal/api/http"
	"github.com/spec-kit/agency-ledger/internal/api/http/handlers"
	"github.com/spec-kit/agency-ledger/internal/audit"
	"github.com/spec-kit/agency-ledger/internal/auth"
	"github.com/spec-kit/agency-ledger/internal/clock"
	"github.com/spec-kit/agency-ledger/internal/config"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/internal/i18n"
	"github.com/spec-kit/agency-ledger/internal/observability"
	"github.com/spec-kit/agency-ledger/internal/persistence"
	"github.com/spec-kit/agency-ledger/internal/repository"
	"github.com/spec-kit/agency-ledger/internal/resilience"
	"github.com/spec-kit/agency-ledger/internal/service"
	"github.com/spec-kit/agency-ledger/internal/store"
	"github.com/spec-kit/agency-ledger/internal/worker"
)

func main() {
	envFile := pflag.String("env-file", "", "optional .env file to load before the environment")
	pflag.Parse()

	var paths []string
	if *envFile != "" {
		paths = append(paths, *envFile)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, "api")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := persistence.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open document store", zap.Error(err))
	}
	defer backend.Close()

	clk := clock.Real()
	metrics := observability.NewMetrics()
	localizer := i18n.New(cfg.Ledger.DefaultLocale)
	notifications := resilience.NewNotificationCenter(cfg.Resilience.NotificationCapacity, localizer, clk, logger)

	probePath := store.Path{Collection: cfg.Store.ProbeCollection, ID: cfg.Store.ProbeID}
	connection := resilience.NewConnectionManager(resilience.ConnectionConfig{
		Schedule:     cfg.Resilience.ReconnectSchedule,
		MaxAttempts:  cfg.Resilience.ReconnectMaxAttempts,
		ProbeTimeout: cfg.Resilience.ProbeTimeout,
	}, resilience.SentinelProbe(backend.Store, probePath), clk, logger)
	defer connection.Close()
	connection.OnChange(notifications.ConnectionListener())
	connection.OnChange(metrics.ConnectionListener())

	watchTarget := cfg.Resilience.WatchTarget
	if watchTarget == "" {
		watchTarget = backend.WatchTarget
	}
	if watchTarget != "" {
		watcher := resilience.NewNetworkWatcher(watchTarget, cfg.Resilience.WatchInterval, connection, clk, logger)
		go watcher.Run(ctx)
	}

	retrier := resilience.NewRetrier(resilience.Policy{
		MaxAttempts:       cfg.Resilience.RetryAttempts,
		BaseDelay:         cfg.Resilience.RetryBaseDelay,
		NetworkMultiplier: 2,
	},
		resilience.WithClock(clk),
		resilience.WithReachability(connection),
		resilience.WithNetworkReporter(connection),
		resilience.WithNotifier(notifications),
		resilience.WithObserver(metrics),
		resilience.WithLogger(logger),
	)
	docs := resilience.NewStore(backend.Store, retrier, resilience.SubscribeOptions{
		Schedule: resilience.ConnectionConfig{
			Schedule:    cfg.Resilience.ReconnectSchedule,
			MaxAttempts: cfg.Resilience.ReconnectMaxAttempts,
		},
		Clock:    clk,
		Logger:   logger,
		Notifier: notifications,
	})

	ticketRepo := repository.NewTicketRepository(docs)
	serviceTicketRepo := repository.NewServiceTicketRepository(docs)
	agentRepo := repository.NewAgentRepository(docs)
	userRepo := repository.NewUserRepository(docs)
	currencyRepo := repository.NewCurrencyRepository(docs)
	serviceRepo := repository.NewServiceRepository(docs)
	logRepo := repository.NewLogRepository(docs)

	dispatcher := events.NewAsyncDispatcher(cfg.Audit.EventBuffer, logger)
	defer dispatcher.Close()

	deps := service.Dependencies{
		TicketRepo:        ticketRepo,
		ServiceTicketRepo: serviceTicketRepo,
		AgentRepo:         agentRepo,
		UserRepo:          userRepo,
		CurrencyRepo:      currencyRepo,
		ServiceRepo:       serviceRepo,
		Dispatcher:        dispatcher,
		Clock:             clk,
		Logger:            logger,
		Ledger:            cfg.Ledger,
	}

	currencyService := service.NewCurrencyService(deps)
	if err := currencyService.EnsureBaseCurrency(ctx); err != nil {
		logger.Fatal("failed to seed base currency", zap.Error(err))
	}
	ticketService := service.NewTicketService(deps, currencyService)
	serviceTicketService := service.NewServiceTicketService(deps, currencyService)
	balanceService := service.NewBalanceService(deps, currencyService)
	statsService := service.NewStatsService(deps)
	agentService := service.NewAgentService(deps, currencyService)
	userService := service.NewUserService(deps, currencyService)
	catalogService := service.NewCatalogService(deps, currencyService)
	notificationService := service.NewNotificationService(dispatcher, agentRepo, logger, cfg.Notification)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	authService := service.NewAuthService(userService, tokens)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)
	identity := auth.NewIdentityVerifier(cfg.Auth.IdentitySecret, cfg.Auth.IdentitySecretHash)

	var sink audit.Sink = audit.NewDirectSink(logRepo)
	if cfg.Audit.Sink == config.AuditSinkQueue {
		client := asynq.NewClient(worker.RedisOpt(cfg.Redis))
		defer client.Close()
		sink = audit.NewQueueSink(client, cfg.Audit.Queue)
	}
	auditSubscriber := audit.NewSubscriber(audit.NewBuilder(localizer), sink, logger)
	worker.StartEventSubscribers(dispatcher, auditSubscriber, notificationService)

	feed := audit.NewFeed(logRepo, 100, logger)
	if err := feed.Start(ctx); err != nil {
		logger.Warn("activity feed unavailable", zap.Error(err))
		feed = nil
	} else {
		defer feed.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	presenter := handlers.NewPresenter(currencyService)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Store.Driver, backend.Store, connection),
		Auth:           handlers.NewAuthHandler(authService, presenter),
		Currencies:     handlers.NewCurrencyHandler(currencyService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Agents:         handlers.NewAgentHandler(agentService, balanceService, statsService, presenter),
		Users:          handlers.NewUserHandler(userService, balanceService, statsService, presenter),
		Tickets:        handlers.NewTicketHandler(ticketService, presenter),
		ServiceTickets: handlers.NewServiceTicketHandler(serviceTicketService, presenter),
		Logs:           handlers.NewLogHandler(logRepo, feed),
		Connection:     handlers.NewConnectionHandler(connection, notifications, metrics),
		AuthMiddleware: authMiddleware,
		Identity:       identity,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	// Drain queued events before the sink's connections close.
	dispatcher.Close()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
