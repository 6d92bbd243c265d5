package services

import (
	"context"
	"sync"
	"time"

	"uriscan/config"
	"uriscan/models"

	"go.uber.org/zap"
)

// HeartbeatNotifier is the alert channel for device liveness changes.
// TelegramService satisfies it.
type HeartbeatNotifier interface {
	SendHeartbeatTimeoutAlert(deviceID string, lastSeen time.Time, timeSinceLastSeen time.Duration, lastHeartbeat *models.HeartbeatData) error
	SendHeartbeatRecoveryAlert(deviceID string, downDuration time.Duration) error
}

// HeartbeatService tracks per-device heartbeats and sends alerts when a
// unit goes silent longer than the configured timeout.
type HeartbeatService struct {
	config   *config.Config
	notifier HeartbeatNotifier
	logger   *zap.Logger
	devices  map[string]*models.DeviceHealth
	mu       sync.RWMutex
}

// NewHeartbeatService creates a new heartbeat monitoring service
func NewHeartbeatService(cfg *config.Config, notifier HeartbeatNotifier, logger *zap.Logger) *HeartbeatService {
	return &HeartbeatService{
		config:   cfg,
		notifier: notifier,
		logger:   logger,
		devices:  make(map[string]*models.DeviceHealth),
	}
}

// Start begins the heartbeat monitoring process
func (h *HeartbeatService) Start(ctx context.Context, heartbeatChan <-chan *models.HeartbeatData) {
	h.logger.Info("Starting heartbeat monitoring service",
		zap.String("queue", h.config.HeartbeatQueue),
		zap.Int("timeout_seconds", h.config.HeartbeatTimeout))

	// Start the timeout checker goroutine
	go h.runTimeoutChecker(ctx)

	// Process incoming heartbeats
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Heartbeat monitoring service stopped")
			return
		case heartbeat, ok := <-heartbeatChan:
			if !ok {
				h.logger.Info("Heartbeat channel closed")
				return
			}
			h.updateHeartbeat(heartbeat)
		}
	}
}

// updateHeartbeat records a fresh heartbeat for a device
func (h *HeartbeatService) updateHeartbeat(data *models.HeartbeatData) {
	h.mu.Lock()
	defer h.mu.Unlock()

	deviceID := data.DeviceID
	now := time.Now()

	// Get or create device health record
	device, exists := h.devices[deviceID]
	if !exists {
		device = &models.DeviceHealth{
			DeviceID: deviceID,
			Status:   models.DeviceOnline,
		}
		h.devices[deviceID] = device
		h.logger.Info("New device registered for heartbeat monitoring",
			zap.String("device_id", deviceID))
	}

	// Check if device was previously in timeout state
	wasTimeout := device.Status == models.DeviceTimeout

	// Update device health
	device.LastHeartbeat = data
	device.LastSeen = now
	device.Status = models.DeviceOnline

	h.logger.Debug("Heartbeat received",
		zap.String("device_id", deviceID),
		zap.Bool("wifi_connected", data.WiFiConnected),
		zap.Bool("mqtt_connected", data.MQTTConnected),
		zap.Int64("uptime_ms", data.UptimeMs),
		zap.Any("probes", data.Probes))

	// If device recovered from timeout, send recovery alert
	if wasTimeout {
		downDuration := now.Sub(device.TimeoutAt)
		h.logger.Info("Device recovered from timeout",
			zap.String("device_id", deviceID),
			zap.Duration("down_duration", downDuration))

		if err := h.notifier.SendHeartbeatRecoveryAlert(deviceID, downDuration); err != nil {
			h.logger.Error("Failed to send recovery alert",
				zap.String("device_id", deviceID),
				zap.Error(err))
		}
	}
}

// runTimeoutChecker periodically checks for device timeouts
func (h *HeartbeatService) runTimeoutChecker(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	h.logger.Info("Heartbeat timeout checker started")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Heartbeat timeout checker stopped")
			return
		case <-ticker.C:
			h.CheckTimeouts()
		}
	}
}

// CheckTimeouts sweeps all devices for timeout conditions
func (h *HeartbeatService) CheckTimeouts() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	timeoutDuration := time.Duration(h.config.HeartbeatTimeout) * time.Second

	for deviceID, device := range h.devices {
		// Skip if already in timeout state
		if device.Status == models.DeviceTimeout {
			continue
		}

		// Check if device has timed out
		timeSinceLastSeen := now.Sub(device.LastSeen)
		if timeSinceLastSeen > timeoutDuration {
			h.logger.Warn("Device heartbeat timeout detected",
				zap.String("device_id", deviceID),
				zap.Time("last_seen", device.LastSeen),
				zap.Duration("time_since_last_seen", timeSinceLastSeen))

			// Update device status
			device.Status = models.DeviceTimeout
			device.TimeoutAt = now

			// Send timeout alert
			if err := h.notifier.SendHeartbeatTimeoutAlert(
				deviceID,
				device.LastSeen,
				timeSinceLastSeen,
				device.LastHeartbeat,
			); err != nil {
				h.logger.Error("Failed to send timeout alert",
					zap.String("device_id", deviceID),
					zap.Error(err))
			}
		}
	}
}

// GetDeviceHealth returns the current health status of a device (for testing/debugging)
func (h *HeartbeatService) GetDeviceHealth(deviceID string) (*models.DeviceHealth, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	device, exists := h.devices[deviceID]
	return device, exists
}
