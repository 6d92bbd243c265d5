package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uriscan/config"
	"uriscan/log"
	"uriscan/models"
	"uriscan/services"

	"go.uber.org/zap"
)

func main() {
	// Initialize timezone to Asia/Bangkok
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		panic("Failed to load Asia/Bangkok timezone: " + err.Error())
	}
	time.Local = loc

	// Initialize structured logger
	logger := log.GetInstance()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Validate required configuration
	if cfg.FirebaseDbUrl == "" || cfg.FirebaseServiceAccountJSON == "" {
		logger.Fatal("Firebase configuration is required")
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		logger.Fatal("Telegram configuration is required")
	}

	// Initialize services
	firebaseService, err := services.NewFirebaseService(cfg, logger.Named("firebase"))
	if err != nil {
		logger.Fatal("Failed to initialize Firebase service", zap.Error(err))
	}
	defer firebaseService.Close()

	telegramService, err := services.NewTelegramService(cfg, logger.Named("telegram"))
	if err != nil {
		logger.Fatal("Failed to initialize Telegram service", zap.Error(err))
	}

	reconciler := services.NewReconciler(logger.Named("reconciler"))
	alertDetector := services.NewAlertDetector(logger.Named("alerts"))
	tracker := services.NewSessionTracker()

	// Initialize dashboard webhook if configured
	var webhookService *services.WebhookService
	if cfg.DashboardWebhookURL != "" {
		webhookService = services.NewWebhookService(logger.Named("webhook"), cfg.DashboardWebhookURL)
		logger.Info("Dashboard webhook enabled", zap.String("url", cfg.DashboardWebhookURL))
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize heartbeat monitoring if a broker is configured
	var rabbitMQService *services.RabbitMQService
	if cfg.RabbitMQURL != "" {
		rabbitMQService, err = services.NewRabbitMQService(cfg, logger.Named("rabbitmq"))
		if err != nil {
			logger.Fatal("Failed to initialize RabbitMQ service", zap.Error(err))
		}

		heartbeatService := services.NewHeartbeatService(cfg, telegramService, logger.Named("heartbeat"))
		heartbeatChan := make(chan *models.HeartbeatData, 100)

		go func() {
			if err := rabbitMQService.Consume(ctx, heartbeatChan); err != nil {
				logger.Error("RabbitMQ consumer stopped", zap.Error(err))
			}
			close(heartbeatChan)
		}()
		go heartbeatService.Start(ctx, heartbeatChan)

		logger.Info("Heartbeat monitoring enabled",
			zap.String("queue", cfg.HeartbeatQueue),
			zap.Int("timeout_seconds", cfg.HeartbeatTimeout))
	} else {
		logger.Info("RabbitMQ URL not set, heartbeat monitoring disabled")
	}

	// Send startup notification
	if err := telegramService.SendStartupMessage(); err != nil {
		logger.Warn("Failed to send startup message", zap.Error(err))
	}

	logger.Info("URISCAN Health Monitoring Service started",
		zap.Int("poll_interval_seconds", cfg.PollInterval))

	// Set up graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Channel to signal when cleanup is complete
	cleanupDone := make(chan bool, 1)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping services")

		// Cancel context to stop all goroutines
		cancel()

		// Wait for cleanup to complete or timeout
		select {
		case <-cleanupDone:
			logger.Info("Cleanup completed successfully")
		case <-time.After(5 * time.Second):
			logger.Warn("Cleanup timeout, forcing exit")
		}

		logger.Info("URISCAN Health Monitoring Service stopped")
		os.Exit(0)
	}()

	// Subscribe to per-user daily reports
	err = firebaseService.SubscribeToReports(ctx, func(uid string, reports map[string]*models.DailyReport) {
		records := reconciler.ReconcileRange(reports)
		if len(records) == 0 {
			return
		}

		latest := records[0]

		// Only react once per hardware session
		if !tracker.Advance(uid, latest.Date, latest.Sensor.Key) {
			return
		}

		logger.Info("New session detected",
			zap.String("uid", uid),
			zap.String("record_id", latest.ID),
			zap.Time("timestamp", latest.Timestamp),
			zap.Bool("has_chemistry", latest.Chemistry != nil))

		// Persist the combined record to the user's history
		if err := firebaseService.AppendHealthRecord(ctx, uid, latest); err != nil {
			logger.Error("Failed to append health record",
				zap.String("uid", uid),
				zap.String("record_id", latest.ID),
				zap.Error(err))
		}

		var previous *models.CombinedRecord
		if len(records) > 1 {
			previous = records[1]
		}

		alerts := alertDetector.DetectTransitionAlerts(previous, latest)
		if len(alerts) == 0 {
			return
		}

		logger.Warn("Abnormal transitions detected",
			zap.String("uid", uid),
			zap.String("record_id", latest.ID),
			zap.Int("alert_count", len(alerts)))

		for _, alert := range alerts {
			if err := firebaseService.AppendNotification(ctx, uid, alert); err != nil {
				logger.Error("Failed to write notification",
					zap.String("uid", uid),
					zap.String("parameter", string(alert.Parameter)),
					zap.Error(err))
			}
		}

		if err := telegramService.SendHealthAlerts(uid, alerts); err != nil {
			logger.Error("Failed to send Telegram alert",
				zap.String("uid", uid),
				zap.Error(err))
		} else {
			logger.Info("Health alert sent",
				zap.String("uid", uid),
				zap.Int("alert_count", len(alerts)))
		}

		if webhookService != nil {
			if err := webhookService.SendAlertWebhook(uid, latest, alerts); err != nil {
				logger.Error("Failed to send dashboard webhook",
					zap.String("uid", uid),
					zap.Error(err))
			}
		}
	})

	if err != nil {
		logger.Fatal("Failed to subscribe to reports", zap.Error(err))
	}

	logger.Info("Monitoring started, waiting for session data")

	// Wait for shutdown signal
	<-ctx.Done()

	// Perform cleanup
	logger.Info("Starting cleanup")

	if rabbitMQService != nil {
		if err := rabbitMQService.Close(); err != nil {
			logger.Error("Error closing RabbitMQ service", zap.Error(err))
		} else {
			logger.Info("RabbitMQ service closed")
		}
	}

	// Close Firebase service
	if err := firebaseService.Close(); err != nil {
		logger.Error("Error closing Firebase service", zap.Error(err))
	} else {
		logger.Info("Firebase service closed")
	}

	// Signal cleanup completion
	cleanupDone <- true
}
