// Command notifier consumes notification intents from RabbitMQ, renders them
// to SMS and records each delivery. It also runs the periodic pledge
// reminder scan.
package main

import (
	"context"
	"errors"
	"fmt"
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
)

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Notifier error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the notifier")
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()
	st := store.New(dbManager.DB())

	client, err := notify.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	defer client.Close()

	var sender notify.Sender = notify.LogSender{}
	if cfg.SMSGatewayURL != "" {
		sender = notify.NewGatewaySender(cfg.SMSGatewayURL, cfg.SMSGatewayKey, cfg.SMSSenderID)
	} else {
		log.Warnw("SMS_GATEWAY_URL not set, messages will only be logged")
	}
	worker := notify.NewWorker(st, st, sender)

	dispatcher := notify.NewAsyncDispatcher(client, cfg.NotifyBuffer)
	reminders := services.NewReminderService(st, dispatcher, cfg.ReminderWindow)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		err := client.Consume(gctx, worker.Handle)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return remindLoop(gctx, reminders, cfg.ReminderInterval)
	})

	log.Infow("notifier started",
		"queue", cfg.AMQPQueue,
		"reminder_interval", cfg.ReminderInterval.String(),
		"reminder_window", cfg.ReminderWindow.String(),
	)
	return g.Wait()
}

// remindLoop scans for due pledges once at startup and then every interval.
func remindLoop(ctx context.Context, reminders services.ReminderServicer, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sent, err := reminders.SendDueReminders(ctx, time.Now())
		if err != nil {
			logger.Get().Errorw("reminder scan failed", "error", err)
		} else if sent > 0 {
			logger.Get().Infow("pledge reminders queued", "count", sent)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
