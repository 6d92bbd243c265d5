package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"uriscan/config"
	"uriscan/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramService pushes health and device alerts to the caregiver chat.
type TelegramService struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	config         *config.Config
	lastAlertTimes map[string]time.Time // Track last alert time per user
	logger         *zap.Logger
}

func NewTelegramService(cfg *config.Config, logger *zap.Logger) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram bot: %v", err)
	}

	chatID, err := strconv.ParseInt(cfg.TelegramChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("error parsing chat ID: %v", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", bot.Self.UserName))

	ts := &TelegramService{
		bot:            bot,
		chatID:         chatID,
		config:         cfg,
		lastAlertTimes: make(map[string]time.Time),
		logger:         logger,
	}

	// Test Telegram connection with retry
	if err := ts.testConnection(); err != nil {
		logger.Error("Telegram connection test failed", zap.Error(err))
		return nil, fmt.Errorf("telegram connection test failed: %v", err)
	}

	return ts, nil
}

// testConnection tests Telegram connection with retry logic
func (ts *TelegramService) testConnection() error {
	maxRetries := 3

	for attempt := 1; attempt <= maxRetries; attempt++ {
		ts.logger.Info("Testing Telegram connection", zap.Int("attempt", attempt), zap.Int("max_retries", maxRetries))

		// Try to get bot info to test connection
		_, err := ts.bot.GetMe()

		if err == nil {
			ts.logger.Info("Telegram connection successful")
			return nil
		}

		ts.logger.Warn("Telegram connection failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err))

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second) // Exponential backoff
		}
	}

	return fmt.Errorf("failed to connect to Telegram after %d attempts", maxRetries)
}

// SendHealthAlerts sends the transition alerts for one user's newest
// session, throttled per user so a burst of parameters does not flood
// the chat.
func (ts *TelegramService) SendHealthAlerts(uid string, alerts []*models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	if ts.shouldThrottleAlert(uid) {
		ts.logger.Debug("Throttling health alert", zap.String("uid", uid))
		return nil
	}

	message := ts.formatHealthAlertMessage(uid, alerts)

	msg := tgbotapi.NewMessage(ts.chatID, message)
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true

	_, err := ts.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("error sending telegram message: %v", err)
	}

	ts.lastAlertTimes[uid] = time.Now()

	ts.logger.Info("Sent health alert",
		zap.String("uid", uid),
		zap.Int("alert_count", len(alerts)))
	return nil
}

// shouldThrottleAlert checks if we should throttle alerts for a user (within 15 seconds)
func (ts *TelegramService) shouldThrottleAlert(uid string) bool {
	lastAlertTime, exists := ts.lastAlertTimes[uid]
	if !exists {
		return false // No previous alert, don't throttle
	}

	timeSinceLastAlert := time.Since(lastAlertTime)
	return timeSinceLastAlert < 15*time.Second
}

// formatHealthAlertMessage creates a mobile-friendly, formatted message
func (ts *TelegramService) formatHealthAlertMessage(uid string, alerts []*models.Alert) string {
	var sb strings.Builder

	sb.WriteString("🚨 <b>URISCAN HEALTH ALERT</b> 🚨\n\n")

	sb.WriteString(fmt.Sprintf("👤 <b>User:</b> %s\n", uid))
	sb.WriteString(fmt.Sprintf("🕐 <b>Time:</b> %s\n\n", alerts[0].Timestamp.Format("2006-01-02 15:04:05")))

	sb.WriteString("⚠️ <b>Out-of-range Parameters:</b>\n")
	for i, alert := range alerts {
		sb.WriteString(fmt.Sprintf("%s <b>%s</b>: %s\n",
			alert.SeverityEmoji(),
			alert.SensorName,
			alert.CurrentValue))
		sb.WriteString(fmt.Sprintf("   └ Normal range: %s\n", alert.NormalRange))

		if i < len(alerts)-1 {
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n💡 <b>Recommended Action:</b>\n")
	sb.WriteString("Values went out of range on the latest session. Monitor the next readings and consult a physician if they persist.\n\n")

	sb.WriteString("🔴 <b>Status:</b> ATTENTION REQUIRED")

	return sb.String()
}

// SendStatusMessage sends a general status message
func (ts *TelegramService) SendStatusMessage(message string) error {
	msg := tgbotapi.NewMessage(ts.chatID, message)
	msg.ParseMode = "HTML"

	_, err := ts.bot.Send(msg)
	return err
}

// SendStartupMessage sends a message when the service starts
func (ts *TelegramService) SendStartupMessage() error {
	message := "🟢 <b>URISCAN Monitoring Service Started</b>\n\n" +
		"📡 Connected to Firebase Realtime Database\n" +
		"🤖 Telegram notifications active\n" +
		"👀 Watching session reports for out-of-range readings...\n\n" +
		"✅ System is ready and operational!"

	return ts.SendStatusMessage(message)
}

// SendHeartbeatTimeoutAlert sends an alert when a unit stops sending heartbeats
func (ts *TelegramService) SendHeartbeatTimeoutAlert(deviceID string, lastSeen time.Time, timeSinceLastSeen time.Duration, lastHeartbeat *models.HeartbeatData) error {
	var sb strings.Builder

	sb.WriteString("⚠️ <b>DEVICE HEARTBEAT TIMEOUT</b> ⚠️\n\n")

	sb.WriteString(fmt.Sprintf("🚽 <b>Device:</b> %s\n", deviceID))
	sb.WriteString(fmt.Sprintf("🕐 <b>Last Seen:</b> %s\n", lastSeen.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("⏱️ <b>Time Since Last Heartbeat:</b> %s\n\n", formatDuration(timeSinceLastSeen)))

	// Last known status (if available)
	if lastHeartbeat != nil {
		sb.WriteString("📊 <b>Last Known Status:</b>\n")
		sb.WriteString(fmt.Sprintf("📡 WiFi: %s\n", formatConnectionStatus(lastHeartbeat.WiFiConnected)))
		sb.WriteString(fmt.Sprintf("🔌 MQTT: %s\n", formatConnectionStatus(lastHeartbeat.MQTTConnected)))
		sb.WriteString(fmt.Sprintf("🔋 Battery: %.0f%%\n", lastHeartbeat.BatteryPercent))
		sb.WriteString(fmt.Sprintf("⏰ Uptime: %s\n\n", formatUptime(lastHeartbeat.UptimeMs)))

		sb.WriteString("🔧 <b>Probes:</b>\n")
		sb.WriteString(fmt.Sprintf("  • pH: %s\n", formatProbeStatus(lastHeartbeat.Probes.PH)))
		sb.WriteString(fmt.Sprintf("  • TDS: %s\n", formatProbeStatus(lastHeartbeat.Probes.TDS)))
		sb.WriteString(fmt.Sprintf("  • Turbidity: %s\n", formatProbeStatus(lastHeartbeat.Probes.Turbidity)))
		sb.WriteString(fmt.Sprintf("  • Ammonia: %s\n", formatProbeStatus(lastHeartbeat.Probes.Ammonia)))
		sb.WriteString(fmt.Sprintf("  • Dipstick: %s\n\n", formatProbeStatus(lastHeartbeat.Probes.Dipstick)))
	}

	sb.WriteString("💡 <b>Action Required:</b>\n")
	sb.WriteString("The unit may be offline or experiencing connectivity issues. Please check the device.\n\n")

	sb.WriteString("🔴 <b>Status:</b> DEVICE TIMEOUT")

	msg := tgbotapi.NewMessage(ts.chatID, sb.String())
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true

	_, err := ts.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("error sending heartbeat timeout alert: %v", err)
	}

	ts.logger.Info("Sent heartbeat timeout alert",
		zap.String("device_id", deviceID),
		zap.Duration("time_since_last_seen", timeSinceLastSeen))

	return nil
}

// SendHeartbeatRecoveryAlert sends an alert when a unit recovers from timeout
func (ts *TelegramService) SendHeartbeatRecoveryAlert(deviceID string, downDuration time.Duration) error {
	var sb strings.Builder

	sb.WriteString("✅ <b>DEVICE RECOVERED</b> ✅\n\n")

	sb.WriteString(fmt.Sprintf("🚽 <b>Device:</b> %s\n", deviceID))
	sb.WriteString(fmt.Sprintf("🕐 <b>Recovery Time:</b> %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("⏱️ <b>Downtime:</b> %s\n\n", formatDuration(downDuration)))

	sb.WriteString("🟢 <b>Status:</b> DEVICE ONLINE")

	msg := tgbotapi.NewMessage(ts.chatID, sb.String())
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true

	_, err := ts.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("error sending heartbeat recovery alert: %v", err)
	}

	ts.logger.Info("Sent heartbeat recovery alert",
		zap.String("device_id", deviceID),
		zap.Duration("down_duration", downDuration))

	return nil
}

// Helper functions for formatting

func formatConnectionStatus(connected bool) string {
	if connected {
		return "✅ Connected"
	}
	return "❌ Disconnected"
}

func formatProbeStatus(working bool) string {
	if working {
		return "✅ OK"
	}
	return "❌ Failed"
}

func formatUptime(uptimeMs int64) string {
	duration := time.Duration(uptimeMs) * time.Millisecond
	return formatDuration(duration)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0f seconds", d.Seconds())
	} else if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%d min %d sec", minutes, seconds)
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%d hr %d min", hours, minutes)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%d days %d hr", days, hours)
}
