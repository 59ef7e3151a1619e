package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"harambee/internal/config"
	"harambee/internal/database"
	"harambee/internal/logger"
	"harambee/internal/notify"
	"harambee/internal/services"
	"harambee/internal/store"
	"harambee/internal/validator"

	_ "harambee/internal/docs" // Import swagger docs
)

// @title           Harambee API
// @version         1.0
// @description     Harambee tracks community fundraising: members, groups, goals with group and member targets, contributions, pledges and progress.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ServiceKey
// @in header
// @name X-API-Key

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(appConfig.Env, appConfig.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(appConfig.MigrationsDir); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	db := dbManager.DB()
	st := store.New(db)

	// Intents go to RabbitMQ when configured, otherwise they are delivered
	// in-process through the same worker the notifier runs.
	var publisher notify.Publisher
	if appConfig.AMQPURL != "" {
		client, err := notify.NewClient(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPQueue)
		if err != nil {
			return fmt.Errorf("failed to connect to AMQP: %w", err)
		}
		defer client.Close()
		publisher = client
	} else {
		log.Warnw("AMQP_URL not set, delivering notifications in-process")
		publisher = notify.PublisherFunc(notify.NewWorker(st, st, newSender(appConfig)).Handle)
	}
	dispatcher := notify.NewAsyncDispatcher(publisher, appConfig.NotifyBuffer)

	validator.Register()

	a := app{
		users:     services.NewUserService(db),
		audit:     services.NewAuditService(db),
		members:   services.NewMemberService(st),
		groups:    services.NewGroupService(st),
		goals:     services.NewGoalService(st),
		hierarchy: services.NewGoalHierarchyService(st),
		ledger:    services.NewLedgerService(st, dispatcher),
		progress:  services.NewProgressService(st),
		reminders: services.NewReminderService(st, dispatcher, appConfig.ReminderWindow),
	}
	router := newRouter(a, routerConfig{
		corsOrigins:   appConfig.CORSOrigins,
		serviceAPIKey: appConfig.ServiceAPIKey,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("Starting Harambee API on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return serve(ctx, srv, ln, dispatcher)
}

// serve runs srv on ln and the dispatcher until ctx is cancelled. The server
// finishes in-flight requests before the dispatcher is closed, so intents
// raised by those requests are still published.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, dispatcher *notify.AsyncDispatcher) error {
	log := logger.Get()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Stopped by Close below, not by the signal.
		dispatcher.Run(context.WithoutCancel(gctx))
		return nil
	})
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		dispatcher.Close()
		log.Info("Notification queue flushed")
		return err
	})

	return g.Wait()
}

func newSender(cfg *config.Config) notify.Sender {
	if cfg.SMSGatewayURL == "" {
		return notify.LogSender{}
	}
	return notify.NewGatewaySender(cfg.SMSGatewayURL, cfg.SMSGatewayKey, cfg.SMSSenderID)
}
