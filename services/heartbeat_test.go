package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"uriscan/config"
	"uriscan/models"
	"uriscan/services"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	mu         sync.Mutex
	timeouts   []string
	recoveries []string
}

func (f *fakeNotifier) SendHeartbeatTimeoutAlert(deviceID string, lastSeen time.Time, timeSinceLastSeen time.Duration, lastHeartbeat *models.HeartbeatData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeouts = append(f.timeouts, deviceID)
	return nil
}

func (f *fakeNotifier) SendHeartbeatRecoveryAlert(deviceID string, downDuration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recoveries = append(f.recoveries, deviceID)
	return nil
}

func (f *fakeNotifier) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timeouts), len(f.recoveries)
}

func startHeartbeatService(t *testing.T, timeoutSeconds int) (*services.HeartbeatService, *fakeNotifier, chan *models.HeartbeatData) {
	t.Helper()
	cfg := &config.Config{
		HeartbeatQueue:   "device_heartbeat_queue",
		HeartbeatTimeout: timeoutSeconds,
	}
	notifier := &fakeNotifier{}
	h := services.NewHeartbeatService(cfg, notifier, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	heartbeatChan := make(chan *models.HeartbeatData, 1)
	go h.Start(ctx, heartbeatChan)
	return h, notifier, heartbeatChan
}

func waitForStatus(t *testing.T, h *services.HeartbeatService, deviceID string, want models.DeviceStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		device, ok := h.GetDeviceHealth(deviceID)
		return ok && device.Status == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHeartbeatServiceTracksDevices(t *testing.T) {
	h, _, heartbeatChan := startHeartbeatService(t, 3600)

	_, exists := h.GetDeviceHealth("URISCAN-001")
	require.False(t, exists)

	heartbeatChan <- &models.HeartbeatData{
		DeviceID:      "URISCAN-001",
		Timestamp:     time.Now(),
		WiFiConnected: true,
		MQTTConnected: true,
	}

	waitForStatus(t, h, "URISCAN-001", models.DeviceOnline)

	device, ok := h.GetDeviceHealth("URISCAN-001")
	require.True(t, ok)
	require.NotNil(t, device.LastHeartbeat)
	require.True(t, device.LastHeartbeat.WiFiConnected)
}

func TestHeartbeatServiceTimeoutAndRecovery(t *testing.T) {
	// Zero timeout: any elapsed time since the last heartbeat counts
	h, notifier, heartbeatChan := startHeartbeatService(t, 0)

	heartbeatChan <- &models.HeartbeatData{DeviceID: "URISCAN-001", Timestamp: time.Now()}
	waitForStatus(t, h, "URISCAN-001", models.DeviceOnline)

	h.CheckTimeouts()

	device, ok := h.GetDeviceHealth("URISCAN-001")
	require.True(t, ok)
	require.Equal(t, models.DeviceTimeout, device.Status)

	timeouts, recoveries := notifier.counts()
	require.Equal(t, 1, timeouts)
	require.Equal(t, 0, recoveries)

	// A timed-out device does not re-alert
	h.CheckTimeouts()
	timeouts, _ = notifier.counts()
	require.Equal(t, 1, timeouts)

	// The next heartbeat brings it back and raises a recovery alert
	heartbeatChan <- &models.HeartbeatData{DeviceID: "URISCAN-001", Timestamp: time.Now()}
	waitForStatus(t, h, "URISCAN-001", models.DeviceOnline)

	_, recoveries = notifier.counts()
	require.Equal(t, 1, recoveries)
}
